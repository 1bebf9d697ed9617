// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → authenticates, authorises, validates, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// CALLER IDENTITY IS A PARAMETER:
// Every operation takes the caller (*model.User, nil for anonymous) as an
// explicit argument. Only the HTTP boundary reads it out of the request
// context, so the rules here can be tested with plain function calls.
//
// DEPENDENCY INJECTION:
// SnippetService takes a repository.SnippetRepository (interface), not a
// concrete store. Tests pass an in-memory fake (see fakes_test.go); main.go
// passes SQLite or Postgres.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/pagination"
	"github.com/sakif/snippets-api/internal/permission"
	"github.com/sakif/snippets-api/internal/repository"
	"github.com/sakif/snippets-api/internal/serializer"
)

// SnippetService handles business logic for code snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

// NewSnippetService creates a new SnippetService.
func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: logger,
	}
}

// List returns one page of snippets in ascending id order together with the
// total number of snippets.
//
// The count is read first so a page past the end is reported as not found
// without fetching any rows.
func (s *SnippetService) List(ctx context.Context, caller *model.User, p pagination.Params) ([]model.Snippet, int, error) {
	if err := permission.IsAuthenticated(caller); err != nil {
		return nil, 0, err
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting snippets: %w", err)
	}
	if err := p.Check(count); err != nil {
		return nil, 0, err
	}

	snippets, err := s.repo.List(ctx, repository.ListOptions{Limit: p.Size, Offset: p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("listing snippets: %w", err)
	}

	return snippets, count, nil
}

// Create validates the decoded input and saves a new snippet owned by the caller.
//
// OWNER IS SERVER-ASSIGNED:
// The decoder drops any "owner" key in the body, and this method sets
// OwnerID from the authenticated caller. A client cannot create a snippet
// on someone else's behalf.
func (s *SnippetService) Create(ctx context.Context, caller *model.User, in *serializer.SnippetInput) (*model.Snippet, error) {
	if err := permission.IsAuthenticated(caller); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Language: model.DefaultLanguage,
		Style:    model.DefaultStyle,
		OwnerID:  caller.ID,
		Owner:    caller.Username,
	}
	in.Apply(snippet)

	if err := s.repo.Create(ctx, snippet); err != nil {
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.Int64("id", snippet.ID),
		slog.Int64("owner", caller.ID),
	)

	return snippet, nil
}

// Get retrieves a single snippet. Any authenticated caller may read any snippet.
func (s *SnippetService) Get(ctx context.Context, caller *model.User, id int64) (*model.Snippet, error) {
	if err := permission.IsAuthenticated(caller); err != nil {
		return nil, err
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting snippet: %w", err)
	}

	return snippet, nil
}

// Update applies the decoded input to an existing snippet.
//
// PUT and PATCH both land here; the difference is in how the handler
// decoded the body. A full decode carries every field (absent optional
// fields already hold their defaults), a partial decode carries only what
// the client sent.
//
// CHECK ORDER:
//  1. authenticated?             → 401
//  2. snippet exists?            → 404
//  3. caller owns it?            → 403
//  4. input valid?               → 400
//
// A non-owner's payload is never validated. An owner's invalid payload
// leaves the row untouched.
func (s *SnippetService) Update(ctx context.Context, caller *model.User, id int64, in *serializer.SnippetInput) (*model.Snippet, error) {
	if err := permission.IsAuthenticated(caller); err != nil {
		return nil, err
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting snippet for update: %w", err)
	}

	if err := permission.OwnerOrReadOnly(caller, permission.Write, snippet); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	in.Apply(snippet)

	if err := s.repo.Update(ctx, snippet); err != nil {
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.Int64("id", snippet.ID))

	return snippet, nil
}

// Delete removes a snippet owned by the caller. Same 401 → 404 → 403 order as Update.
func (s *SnippetService) Delete(ctx context.Context, caller *model.User, id int64) error {
	if err := permission.IsAuthenticated(caller); err != nil {
		return err
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("getting snippet for delete: %w", err)
	}

	if err := permission.OwnerOrReadOnly(caller, permission.Write, snippet); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting snippet: %w", err)
	}

	s.logger.Info("snippet deleted", slog.Int64("id", id))

	return nil
}
