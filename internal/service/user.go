package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/pagination"
	"github.com/sakif/snippets-api/internal/permission"
	"github.com/sakif/snippets-api/internal/repository"
)

// UserService exposes users read-only. Accounts are created by the admin
// CLI or by GitHub sign-in (see AuthService), never through this service.
type UserService struct {
	users    repository.UserRepository
	snippets repository.SnippetRepository
	logger   *slog.Logger
}

func NewUserService(users repository.UserRepository, snippets repository.SnippetRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		snippets: snippets,
		logger:   logger,
	}
}

// List returns one page of users with their snippet ids filled in.
func (s *UserService) List(ctx context.Context, caller *model.User, p pagination.Params) ([]model.User, int, error) {
	if err := permission.IsAuthenticated(caller); err != nil {
		return nil, 0, err
	}

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	if err := p.Check(count); err != nil {
		return nil, 0, err
	}

	users, err := s.users.ListUsers(ctx, repository.ListOptions{Limit: p.Size, Offset: p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}

	for i := range users {
		if err := s.fillSnippets(ctx, &users[i]); err != nil {
			return nil, 0, err
		}
	}

	return users, count, nil
}

// Get returns a single user with their snippet ids filled in.
func (s *UserService) Get(ctx context.Context, caller *model.User, id int64) (*model.User, error) {
	if err := permission.IsAuthenticated(caller); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if err := s.fillSnippets(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) fillSnippets(ctx context.Context, user *model.User) error {
	ids, err := s.snippets.ListIDsByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("listing snippets of user %d: %w", user.ID, err)
	}
	user.Snippets = ids
	return nil
}
