// Package article manages markdown articles and their cover images.
package article

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/galerie/service/internal/storage"
)

// Article is a persisted markdown article.
type Article struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Slug            string       `json:"slug"`
	MarkdownContent string       `json:"markdownContent,omitempty"`
	CoverPhoto      *string      `json:"coverPhoto,omitempty"`
	ExternalID      *string      `json:"-"`
	StorageMode     storage.Mode `json:"storageMode"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`

	// CoverURL is the resolved display URL, filled on reads. Not persisted.
	CoverURL string `json:"coverUrl,omitempty"`
}

// Summary is the listing projection: no markdown body.
type Summary struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	CoverPhoto  *string      `json:"coverPhoto,omitempty"`
	ExternalID  *string      `json:"-"`
	StorageMode storage.Mode `json:"storageMode"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	CoverURL string `json:"coverUrl,omitempty"`
}

// ErrNotFound is returned when an article does not exist.
var ErrNotFound = errors.New("article not found")

// ErrSlugTaken is returned when the derived slug already exists.
var ErrSlugTaken = errors.New("an article with this slug already exists")

// Repository handles all article database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const articleColumns = `id, title, slug, markdown_content, cover_path, external_id, storage_mode, created_at, updated_at`

func scanArticle(row pgx.Row) (*Article, error) {
	a := &Article{}
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.MarkdownContent, &a.CoverPhoto, &a.ExternalID, &a.StorageMode, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return a, nil
}

// Create inserts a new article. A unique violation on the slug maps to
// ErrSlugTaken.
func (r *Repository) Create(ctx context.Context, title, slug, markdown string, coverPath, externalID *string, mode storage.Mode) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(ctx,
		`INSERT INTO articles (title, slug, markdown_content, cover_path, external_id, storage_mode)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+articleColumns,
		title, slug, markdown, coverPath, externalID, mode,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return a, nil
}

// SlugExists reports whether an article with the slug already exists.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// GetBySlug fetches a full article by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	return scanArticle(r.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE slug = $1`, slug))
}

// List returns article summaries, newest first. Deliberately not filtered by
// storage mode: published articles stay listed across mode changes.
func (r *Repository) List(ctx context.Context) ([]*Summary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, slug, cover_path, external_id, storage_mode, created_at, updated_at
		 FROM articles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []*Summary
	for rows.Next() {
		s := &Summary{}
		if err := rows.Scan(&s.ID, &s.Title, &s.Slug, &s.CoverPhoto, &s.ExternalID, &s.StorageMode, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan article summary: %w", err)
		}
		articles = append(articles, s)
	}
	return articles, rows.Err()
}

// DeleteBySlug removes the article row.
func (r *Repository) DeleteBySlug(ctx context.Context, slug string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM articles WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation
// (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
