// Package config loads runtime settings for the server and the admin CLI.
//
// Values are layered, later layers winning:
//
//  1. defaults (LoadDefaults)
//  2. environment variables (ADDR, DB_DRIVER, ...)
//  3. command-line flags (-addr, -db-driver, ...)
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Session backends.
const (
	SessionsDB    = "db"
	SessionsRedis = "redis"
)

// MaxPageSize is the largest page size the stores will return.
const MaxPageSize = 100

// Config holds runtime settings.
//
// Fields:
//   - Addr: listen address for the HTTP server.
//   - DBDriver / DBPath / DatabaseURL: which store to open and where.
//   - SessionBackend / RedisAddr / RedisPassword / SessionTTL: login sessions.
//   - JWTSecret / TokenTTL: bearer tokens (HS256). An empty secret disables /api-auth/token/.
//   - GitHub*: OAuth app credentials. Empty client id disables GitHub sign-in.
//   - CORSOrigins: allowed browser origins; empty means CORS is off.
//   - PageSize: results per page on list endpoints.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Addr               string
	DBDriver           string
	DBPath             string
	DatabaseURL        string
	SessionBackend     string
	RedisAddr          string
	RedisPassword      string
	SessionTTL         time.Duration
	JWTSecret          string
	TokenTTL           time.Duration
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	CORSOrigins        []string
	PageSize           int
	LogLevel           string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8000"
	c.DBDriver = DriverSQLite
	c.DBPath = "data/snippets.db"
	c.SessionBackend = SessionsDB
	c.RedisAddr = "localhost:6379"
	c.SessionTTL = 14 * 24 * time.Hour
	c.TokenTTL = time.Hour
	c.GitHubCallbackURL = "http://localhost:8000/api-auth/github/callback/"
	c.PageSize = 10
	c.LogLevel = "info"
}

// Load builds a Config from defaults, the process environment and args
// (without the program name).
func Load(args []string) (*Config, error) {
	return load(args, os.Getenv)
}

func load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	str("ADDR", &c.Addr)
	str("DB_DRIVER", &c.DBDriver)
	str("DB_PATH", &c.DBPath)
	str("DATABASE_URL", &c.DatabaseURL)
	str("SESSION_BACKEND", &c.SessionBackend)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("JWT_SECRET", &c.JWTSecret)
	str("GITHUB_CLIENT_ID", &c.GitHubClientID)
	str("GITHUB_CLIENT_SECRET", &c.GitHubClientSecret)
	str("GITHUB_CALLBACK_URL", &c.GitHubCallbackURL)
	str("LOG_LEVEL", &c.LogLevel)

	if v := getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	var errs []error
	if v := getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: SESSION_TTL: %w", err))
		}
		c.SessionTTL = d
	}
	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: TOKEN_TTL: %w", err))
		}
		c.TokenTTL = d
	}
	if v := getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: PAGE_SIZE: %w", err))
		}
		c.PageSize = n
	}
	return errors.Join(errs...)
}

// parseFlags overlays command-line flags. Flags default to the values the
// earlier layers produced, so an absent flag changes nothing.
func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("snippets-api", flag.ContinueOnError)

	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.DBDriver, "db-driver", c.DBDriver, "storage driver: sqlite or postgres")
	fs.StringVar(&c.DBPath, "db-path", c.DBPath, "SQLite database file")
	fs.StringVar(&c.DatabaseURL, "database-url", c.DatabaseURL, "PostgreSQL DSN")
	fs.StringVar(&c.SessionBackend, "session-backend", c.SessionBackend, "session store: db or redis")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "login session lifetime")
	fs.DurationVar(&c.TokenTTL, "token-ttl", c.TokenTTL, "bearer token lifetime")
	fs.IntVar(&c.PageSize, "page-size", c.PageSize, "results per page")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	origins := fs.String("cors-origins", strings.Join(c.CORSOrigins, ","), "comma-separated allowed origins")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.CORSOrigins = splitList(*origins)
	return nil
}

// Validate rejects settings the server can't start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("config: DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("config: DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown DB_DRIVER %q", c.DBDriver))
	}

	switch c.SessionBackend {
	case SessionsDB:
	case SessionsRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("config: REDIS_ADDR is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown SESSION_BACKEND %q", c.SessionBackend))
	}

	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("config: PAGE_SIZE must be between 1 and %d, got %d", MaxPageSize, c.PageSize))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("config: SESSION_TTL must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("config: TOKEN_TTL must be positive"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel converts LogLevel for slog.HandlerOptions.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return level, nil
}

// TokensEnabled reports whether bearer tokens can be issued and checked.
func (c *Config) TokensEnabled() bool {
	return c.JWTSecret != ""
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
