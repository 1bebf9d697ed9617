package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
)

func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO sessions (session_key, user_id, expires_at) VALUES ($1, $2, $3)`,
		session.Key, session.UserID, session.ExpiresAt)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return apperror.Conflict("session", session.Key)
		}
		return fmt.Errorf("postgres: creating session: %w", err)
	}
	return nil
}

// GetSession returns a live session. Expired rows are removed and reported as not found.
func (db *DB) GetSession(ctx context.Context, key string) (*model.Session, error) {
	var s model.Session
	err := db.pool.QueryRow(ctx,
		`SELECT session_key, user_id, expires_at FROM sessions WHERE session_key = $1`, key,
	).Scan(&s.Key, &s.UserID, &s.ExpiresAt)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("session", "(redacted)")
		}
		return nil, fmt.Errorf("postgres: getting session: %w", err)
	}

	if s.Expired(time.Now()) {
		if err := db.DeleteSession(ctx, key); err != nil {
			return nil, err
		}
		return nil, apperror.NotFound("session", "(redacted)")
	}
	return &s, nil
}

func (db *DB) DeleteSession(ctx context.Context, key string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE session_key = $1`, key); err != nil {
		return fmt.Errorf("postgres: deleting session: %w", err)
	}
	return nil
}
