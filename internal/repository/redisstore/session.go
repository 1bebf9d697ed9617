// Package redisstore keeps login sessions in Redis instead of the SQL database.
//
// Selected with SESSION_BACKEND=redis. Each session is one key,
// "session:<key>", whose value is the user id and whose TTL is the session
// lifetime, so Redis expires sessions on its own.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

const keyPrefix = "session:"

var _ repository.SessionRepository = (*SessionStore)(nil)

// SessionStore implements repository.SessionRepository on Redis.
type SessionStore struct {
	rdb *redis.Client
}

// NewClient creates and pings a Redis client with optional password auth.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redisstore: pinging %s: %w", addr, err)
	}
	return rdb, nil
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// CreateSession stores the session with a TTL matching its expiry.
// SETNX keeps an existing key from being overwritten.
func (s *SessionStore) CreateSession(ctx context.Context, session *model.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apperror.ValidationFailed("expires_at", "session already expired")
	}

	ok, err := s.rdb.SetNX(ctx, keyPrefix+session.Key, session.UserID, ttl).Result()
	if err != nil {
		return fmt.Errorf("redisstore: creating session: %w", err)
	}
	if !ok {
		return apperror.Conflict("session", session.Key)
	}
	return nil
}

// GetSession reads the user id and remaining TTL in one round trip.
func (s *SessionStore) GetSession(ctx context.Context, key string) (*model.Session, error) {
	pipe := s.rdb.Pipeline()
	get := pipe.Get(ctx, keyPrefix+key)
	ttl := pipe.PTTL(ctx, keyPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redisstore: getting session: %w", err)
	}

	val, err := get.Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NotFound("session", "(redacted)")
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: getting session: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redisstore: corrupt session value %q: %w", val, err)
	}

	return &model.Session{
		Key:       key,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl.Val()),
	}, nil
}

// DeleteSession removes a session. Unknown keys are not an error.
func (s *SessionStore) DeleteSession(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redisstore: deleting session: %w", err)
	}
	return nil
}
