package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(nil, envFrom(nil))
	require.NoError(t, err)

	want := &Config{}
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(want, cfg))
	assert.False(t, cfg.TokensEnabled())
	assert.False(t, cfg.GitHubEnabled())
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	cfg, err := load(nil, envFrom(map[string]string{
		"ADDR":                 ":9000",
		"DB_DRIVER":            "postgres",
		"DATABASE_URL":         "postgres://u:p@db:5432/snippets",
		"SESSION_BACKEND":      "redis",
		"REDIS_ADDR":           "cache:6379",
		"SESSION_TTL":          "2h",
		"TOKEN_TTL":            "15m",
		"JWT_SECRET":           "0123456789abcdef0123",
		"GITHUB_CLIENT_ID":     "id",
		"GITHUB_CLIENT_SECRET": "secret",
		"CORS_ORIGINS":         "https://a.example, https://b.example,",
		"PAGE_SIZE":            "25",
		"LOG_LEVEL":            "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@db:5432/snippets", cfg.DatabaseURL)
	assert.Equal(t, SessionsRedis, cfg.SessionBackend)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 25, cfg.PageSize)
	assert.True(t, cfg.TokensEnabled())
	assert.True(t, cfg.GitHubEnabled())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	cfg, err := load(
		[]string{"-addr", ":7000", "-page-size", "5", "-db-path", "/tmp/x.db", "-cors-origins", "http://localhost:3000"},
		envFrom(map[string]string{"ADDR": ":9000", "PAGE_SIZE": "25"}),
	)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "bad duration", env: map[string]string{"SESSION_TTL": "forever"}},
		{name: "bad page size", env: map[string]string{"PAGE_SIZE": "ten"}},
		{name: "page size too big", env: map[string]string{"PAGE_SIZE": "1000"}},
		{name: "page size zero", args: []string{"-page-size", "0"}},
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "oracle"}},
		{name: "postgres without dsn", env: map[string]string{"DB_DRIVER": "postgres"}},
		{name: "unknown session backend", env: map[string]string{"SESSION_BACKEND": "memcached"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "chatty"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(tt.args, envFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.DBDriver = "oracle"
	cfg.PageSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "PAGE_SIZE")
}
