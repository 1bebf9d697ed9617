package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

const snippetColumns = `s.id, s.title, s.code, s.linenos, s.language, s.style,
	s.owner_id, u.username, s.created_at, s.updated_at`

const snippetFrom = `FROM snippets s JOIN users u ON u.id = s.owner_id`

func scanSnippet(row pgx.Row, s *model.Snippet) error {
	return row.Scan(
		&s.ID, &s.Title, &s.Code, &s.Linenos, &s.Language, &s.Style,
		&s.OwnerID, &s.Owner, &s.CreatedAt, &s.UpdatedAt,
	)
}

func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	err := db.pool.QueryRow(ctx,
		`INSERT INTO snippets (title, code, linenos, language, style, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		snippet.Title, snippet.Code, snippet.Linenos, snippet.Language, snippet.Style,
		snippet.OwnerID, snippet.CreatedAt, snippet.UpdatedAt,
	).Scan(&snippet.ID)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return apperror.NotFound("user", strconv.FormatInt(snippet.OwnerID, 10))
		}
		return fmt.Errorf("postgres: creating snippet: %w", err)
	}
	return nil
}

func (db *DB) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	var s model.Snippet
	row := db.pool.QueryRow(ctx, `SELECT `+snippetColumns+` `+snippetFrom+` WHERE s.id = $1`, id)
	if err := scanSnippet(row, &s); err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("snippet", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("postgres: getting snippet %d: %w", id, err)
	}
	return &s, nil
}

func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.pool.Query(ctx,
		`SELECT `+snippetColumns+` `+snippetFrom+` ORDER BY s.id ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("postgres: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating snippets: %w", err)
	}
	return snippets, nil
}

func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM snippets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: counting snippets: %w", err)
	}
	return n, nil
}

func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	tag, err := db.pool.Exec(ctx,
		`UPDATE snippets
		 SET title = $1, code = $2, linenos = $3, language = $4, style = $5, updated_at = $6
		 WHERE id = $7`,
		snippet.Title, snippet.Code, snippet.Linenos, snippet.Language, snippet.Style,
		snippet.UpdatedAt, snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating snippet %d: %w", snippet.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("snippet", strconv.FormatInt(snippet.ID, 10))
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, id int64) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM snippets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting snippet %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("snippet", strconv.FormatInt(id, 10))
	}
	return nil
}

func (db *DB) ListIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error) {
	rows, err := db.pool.Query(ctx, `SELECT id FROM snippets WHERE owner_id = $1 ORDER BY id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing snippet ids for user %d: %w", ownerID, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("postgres: collecting snippet ids: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
