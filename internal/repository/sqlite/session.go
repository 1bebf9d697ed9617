package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession stores a new session row.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (session_key, user_id, expires_at) VALUES (?, ?, ?)`,
		session.Key, session.UserID, session.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("session", session.Key)
		}
		return fmt.Errorf("sqlite: creating session: %w", err)
	}
	return nil
}

// GetSession looks up a session by key. Expired sessions are deleted on sight
// and reported as not found, the same as keys that never existed.
func (db *DB) GetSession(ctx context.Context, key string) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT session_key, user_id, expires_at FROM sessions WHERE session_key = ?`, key,
	).Scan(&s.Key, &s.UserID, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", "(redacted)")
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	if s.Expired(time.Now()) {
		if err := db.DeleteSession(ctx, key); err != nil {
			return nil, err
		}
		return nil, apperror.NotFound("session", "(redacted)")
	}

	return &s, nil
}

// DeleteSession removes a session. Deleting an unknown key is not an error.
func (db *DB) DeleteSession(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}
