// Package photo manages gallery photos and their album membership.
package photo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/galerie/service/internal/storage"
)

// Photo is a persisted photo record.
type Photo struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ImagePath   string       `json:"imagePath"`
	ExternalID  *string      `json:"-"`
	StorageMode storage.Mode `json:"storageMode"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	// SignedURL is the resolved display URL, filled on reads. Not persisted.
	SignedURL string `json:"signedUrl,omitempty"`
}

// ErrNotFound is returned when a photo does not exist.
var ErrNotFound = errors.New("photo not found")

// ErrAlbumNotFound is returned when the target album does not exist.
var ErrAlbumNotFound = errors.New("album not found")

// Repository handles all photo database operations, including album
// membership rows.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const photoColumns = `id, title, description, image_path, external_id, storage_mode, created_at, updated_at`

func scanPhoto(row pgx.Row) (*Photo, error) {
	p := &Photo{}
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ImagePath, &p.ExternalID, &p.StorageMode, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan photo: %w", err)
	}
	return p, nil
}

// Create inserts the photo and its album membership in one transaction, so a
// photo is never persisted without belonging to its album. The membership
// insert is idempotent (primary key on the pair, ON CONFLICT DO NOTHING).
func (r *Repository) Create(ctx context.Context, title, description, imagePath string, externalID *string, mode storage.Mode, albumID string) (*Photo, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM albums WHERE id = $1)`, albumID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check album: %w", err)
	}
	if !exists {
		return nil, ErrAlbumNotFound
	}

	p, err := scanPhoto(tx.QueryRow(ctx,
		`INSERT INTO photos (title, description, image_path, external_id, storage_mode)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+photoColumns,
		title, description, imagePath, externalID, mode,
	))
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO album_photos (album_id, photo_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		albumID, p.ID,
	); err != nil {
		return nil, fmt.Errorf("attach photo to album: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// AlbumExists reports whether the album exists. The service checks this
// before writing the image blob, so a bad album id never orphans a blob.
func (r *Repository) AlbumExists(ctx context.Context, albumID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM albums WHERE id = $1)`, albumID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check album: %w", err)
	}
	return exists, nil
}

// GetByID fetches a photo by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Photo, error) {
	return scanPhoto(r.db.QueryRow(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
}

// List returns one page of photos created under the given storage mode,
// newest first.
func (r *Repository) List(ctx context.Context, mode storage.Mode, offset, limit int) ([]*Photo, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+photoColumns+` FROM photos
		 WHERE storage_mode = $1
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		mode, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []*Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// Count returns the number of photos under the given storage mode.
func (r *Repository) Count(ctx context.Context, mode storage.Mode) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM photos WHERE storage_mode = $1`, mode).Scan(&n); err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return n, nil
}

// Update patches the photo's text fields and, when imagePath is non-nil,
// replaces the blob reference and storage mode.
func (r *Repository) Update(ctx context.Context, id string, title, description *string, imagePath, externalID *string, mode *storage.Mode) (*Photo, error) {
	return scanPhoto(r.db.QueryRow(ctx,
		`UPDATE photos SET
		   title        = COALESCE($2, title),
		   description  = COALESCE($3, description),
		   image_path   = COALESCE($4, image_path),
		   external_id  = CASE WHEN $4 IS NULL THEN external_id ELSE $5 END,
		   storage_mode = COALESCE($6, storage_mode),
		   updated_at   = now()
		 WHERE id = $1
		 RETURNING `+photoColumns,
		id, title, description, imagePath, externalID, mode,
	))
}

// Delete removes the photo row. Album membership rows cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
