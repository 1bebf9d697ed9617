// Package repository declares the storage interfaces the services depend on.
// Implementations live in the sqlite, postgres and redisstore sub-packages.
package repository

import (
	"context"

	"github.com/sakif/snippets-api/internal/model"
)

// Page size bounds applied by every implementation.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type ListOptions struct {
	Limit  int
	Offset int
}

// SnippetRepository stores snippets. Reads fill Snippet.Owner with the
// owner's username. Lists are ordered by ascending id.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id int64) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id int64) error
	ListIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error)
}

// UserRepository stores user accounts. Usernames are unique; creating a
// duplicate returns apperror.ErrConflict.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpsertGitHub(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
	CountUsers(ctx context.Context) (int, error)
	SetPassword(ctx context.Context, id int64, hash string) error
}

// SessionRepository stores login sessions. GetSession returns
// apperror.ErrNotFound for unknown and expired keys alike.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, key string) (*model.Session, error)
	DeleteSession(ctx context.Context, key string) error
}
