package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

const userColumns = `id, username, email, password_hash, github_id, created_at, updated_at`

func scanUser(row pgx.Row, u *model.User) error {
	var githubID *int64
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &githubID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	if githubID != nil {
		u.GitHubID = *githubID
	}
	return nil
}

// nullGitHubID maps "not linked" (0) to NULL.
func nullGitHubID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, github_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		user.Username, user.Email, user.PasswordHash, nullGitHubID(user.GitHubID),
		user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("postgres: creating user %q: %w", user.Username, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u); err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("postgres: getting user %d: %w", id, err)
	}
	return &u, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username), &u); err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("postgres: getting user %q: %w", username, err)
	}
	return &u, nil
}

// UpsertGitHub refreshes the email of the account linked to user.GitHubID, or
// creates one named after the GitHub login. See the sqlite implementation.
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return apperror.ValidationFailed("github_id", "GitHub id is required")
	}

	found, err := db.refreshGitHubUser(ctx, user)
	if err != nil || found {
		return err
	}

	// A concurrent first sign-in may win the insert; then update its row.
	err = db.CreateUser(ctx, user)
	if !errors.Is(err, apperror.ErrConflict) {
		return err
	}
	found, lookupErr := db.refreshGitHubUser(ctx, user)
	if lookupErr != nil {
		return lookupErr
	}
	if found {
		return nil
	}
	return err
}

func (db *DB) refreshGitHubUser(ctx context.Context, user *model.User) (bool, error) {
	var existing model.User
	err := scanUser(db.pool.QueryRow(ctx,
		`UPDATE users SET email = $1, updated_at = now() WHERE github_id = $2
		 RETURNING `+userColumns,
		user.Email, user.GitHubID), &existing)
	switch {
	case err == nil:
		*user = existing
		return true, nil
	case isNoRows(err):
		return false, nil
	default:
		return false, fmt.Errorf("postgres: upserting user by github_id %d: %w", user.GitHubID, err)
	}
}

func (db *DB) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}
	return users, nil
}

func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: counting users: %w", err)
	}
	return n, nil
}

func (db *DB) SetPassword(ctx context.Context, id int64, hash string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("postgres: setting password for user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	return nil
}
