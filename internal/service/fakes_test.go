package service

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Each one stores
// copies, never the caller's pointer, so a test can't accidentally mutate
// "database" state through a returned value. Set the *Err fields to
// simulate a store failure.

type fakeSnippetRepo struct {
	snippets map[int64]model.Snippet
	nextID   int64
	listErr  error
}

func newFakeSnippetRepo() *fakeSnippetRepo {
	return &fakeSnippetRepo{snippets: make(map[int64]model.Snippet)}
}

func (f *fakeSnippetRepo) Create(_ context.Context, s *model.Snippet) error {
	f.nextID++
	s.ID = f.nextID
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.snippets[s.ID] = *s
	return nil
}

func (f *fakeSnippetRepo) GetByID(_ context.Context, id int64) (*model.Snippet, error) {
	s, ok := f.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", strconv.FormatInt(id, 10))
	}
	return &s, nil
}

func (f *fakeSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Snippet
	for _, id := range slices.Sorted(maps.Keys(f.snippets)) {
		out = append(out, f.snippets[id])
	}
	return window(out, opts), nil
}

func (f *fakeSnippetRepo) Count(_ context.Context) (int, error) {
	return len(f.snippets), nil
}

func (f *fakeSnippetRepo) Update(_ context.Context, s *model.Snippet) error {
	if _, ok := f.snippets[s.ID]; !ok {
		return apperror.NotFound("snippet", strconv.FormatInt(s.ID, 10))
	}
	s.UpdatedAt = time.Now()
	f.snippets[s.ID] = *s
	return nil
}

func (f *fakeSnippetRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.snippets[id]; !ok {
		return apperror.NotFound("snippet", strconv.FormatInt(id, 10))
	}
	delete(f.snippets, id)
	return nil
}

func (f *fakeSnippetRepo) ListIDsByOwner(_ context.Context, ownerID int64) ([]int64, error) {
	ids := []int64{}
	for _, id := range slices.Sorted(maps.Keys(f.snippets)) {
		if f.snippets[id].OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeUserRepo struct {
	users     map[int64]model.User
	nextID    int64
	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperror.Conflict("user", u.Username)
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	return &u, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) UpsertGitHub(ctx context.Context, u *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for id, existing := range f.users {
		if existing.GitHubID == u.GitHubID {
			existing.Email = u.Email
			f.users[id] = existing
			*u = existing
			return nil
		}
	}
	return f.CreateUser(ctx, u)
}

func (f *fakeUserRepo) ListUsers(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	var out []model.User
	for _, id := range slices.Sorted(maps.Keys(f.users)) {
		out = append(out, f.users[id])
	}
	return window(out, opts), nil
}

func (f *fakeUserRepo) CountUsers(_ context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeUserRepo) SetPassword(_ context.Context, id int64, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	u.PasswordHash = hash
	f.users[id] = u
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]model.Session)}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, s *model.Session) error {
	f.sessions[s.Key] = *s
	return nil
}

func (f *fakeSessionRepo) GetSession(_ context.Context, key string) (*model.Session, error) {
	s, ok := f.sessions[key]
	if !ok || s.Expired(time.Now()) {
		return nil, apperror.NotFound("session", "(redacted)")
	}
	return &s, nil
}

func (f *fakeSessionRepo) DeleteSession(_ context.Context, key string) error {
	if _, ok := f.sessions[key]; !ok {
		return apperror.NotFound("session", "(redacted)")
	}
	delete(f.sessions, key)
	return nil
}

// window applies limit/offset the way the real stores do.
func window[T any](rows []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(rows) {
		return []T{}
	}
	rows = rows[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}
	return rows
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
