// Package storage opens the repositories selected by configuration.
//
// One place decides which concrete stores back the repository interfaces,
// so the server and the admin CLI always agree:
//
//	DB_DRIVER=sqlite   → sqlite.DB  (snippets, users, sessions)
//	DB_DRIVER=postgres → postgres.DB (snippets, users, sessions)
//	SESSION_BACKEND=redis replaces the sessions store with redisstore.SessionStore
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/snippets-api/internal/config"
	"github.com/sakif/snippets-api/internal/repository"
	"github.com/sakif/snippets-api/internal/repository/postgres"
	"github.com/sakif/snippets-api/internal/repository/redisstore"
	"github.com/sakif/snippets-api/internal/repository/sqlite"
)

// Stores bundles the opened repositories and the resources behind them.
type Stores struct {
	Snippets repository.SnippetRepository
	Users    repository.UserRepository
	Sessions repository.SessionRepository

	pingers []func(context.Context) error
	closers []func() error
}

// Open connects to the configured stores and applies migrations.
// On error, anything already opened is closed again.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	s := &Stores{}

	switch cfg.DBDriver {
	case config.DriverSQLite:
		if cfg.DBPath != sqlite.MemoryPath {
			// os.MkdirAll is `mkdir -p`: a no-op when the directory exists.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("storage: creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		s.Snippets, s.Users, s.Sessions = db, db, db
		s.pingers = append(s.pingers, db.Ping)
		s.closers = append(s.closers, db.Close)
		logger.Info("storage opened", slog.String("driver", cfg.DBDriver), slog.String("path", cfg.DBPath))

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.Snippets, s.Users, s.Sessions = db, db, db
		s.pingers = append(s.pingers, db.Ping)
		s.closers = append(s.closers, db.Close)
		logger.Info("storage opened", slog.String("driver", cfg.DBDriver))

	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.DBDriver)
	}

	if cfg.SessionBackend == config.SessionsRedis {
		rdb, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Sessions = redisstore.NewSessionStore(rdb)
		s.pingers = append(s.pingers, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		s.closers = append(s.closers, rdb.Close)
		logger.Info("sessions stored in redis", slog.String("addr", cfg.RedisAddr))
	}

	return s, nil
}

// Ping checks every backing store.
func (s *Stores) Ping(ctx context.Context) error {
	for _, ping := range s.pingers {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every backing store, newest first.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
