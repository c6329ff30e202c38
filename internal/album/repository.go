// Package album manages photo albums and their cover images.
package album

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/galerie/service/internal/storage"
)

// Album is a persisted album record.
type Album struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CoverPhoto  *string      `json:"coverPhoto,omitempty"`
	ExternalID  *string      `json:"-"`
	StorageMode storage.Mode `json:"storageMode"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	// CoverURL is the resolved display URL, filled on reads. Not persisted.
	CoverURL string `json:"coverUrl,omitempty"`
}

// Photo is the view of an owned photo returned inside an album. The photos
// table is owned by the photo package; this is a read-only projection.
type Photo struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ImagePath   string       `json:"imagePath"`
	ExternalID  *string      `json:"-"`
	StorageMode storage.Mode `json:"storageMode"`
	CreatedAt   time.Time    `json:"createdAt"`

	SignedURL string `json:"signedUrl,omitempty"`
}

// ErrNotFound is returned when an album does not exist.
var ErrNotFound = errors.New("album not found")

// ErrNotEmpty is returned when deleting an album that still owns photos.
var ErrNotEmpty = errors.New("album still contains photos")

// ErrPhotoNotFound is returned by association operations when the photo does
// not exist.
var ErrPhotoNotFound = errors.New("photo not found")

// Repository handles all album database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const albumColumns = `id, name, description, cover_path, external_id, storage_mode, created_at, updated_at`

func scanAlbum(row pgx.Row) (*Album, error) {
	a := &Album{}
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.CoverPhoto, &a.ExternalID, &a.StorageMode, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan album: %w", err)
	}
	return a, nil
}

// Create inserts a new album and returns the created record.
func (r *Repository) Create(ctx context.Context, name, description string, coverPath, externalID *string, mode storage.Mode) (*Album, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO albums (name, description, cover_path, external_id, storage_mode)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+albumColumns,
		name, description, coverPath, externalID, mode,
	)
	return scanAlbum(row)
}

// GetByID fetches an album by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Album, error) {
	row := r.db.QueryRow(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = $1`, id)
	return scanAlbum(row)
}

// List returns all albums created under the given storage mode, newest first.
func (r *Repository) List(ctx context.Context, mode storage.Mode) ([]*Album, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE storage_mode = $1 ORDER BY created_at DESC`,
		mode,
	)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	var albums []*Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// Update patches the album's text fields and, when coverPath is non-nil,
// replaces the cover reference and storage mode.
func (r *Repository) Update(ctx context.Context, id string, name, description *string, coverPath, externalID *string, mode *storage.Mode) (*Album, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE albums SET
		   name         = COALESCE($2, name),
		   description  = COALESCE($3, description),
		   cover_path   = COALESCE($4, cover_path),
		   external_id  = CASE WHEN $4 IS NULL THEN external_id ELSE $5 END,
		   storage_mode = COALESCE($6, storage_mode),
		   updated_at   = now()
		 WHERE id = $1
		 RETURNING `+albumColumns,
		id, name, description, coverPath, externalID, mode,
	)
	return scanAlbum(row)
}

// Delete removes the album row. Membership rows cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM albums WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PhotoCount returns how many photos the album currently owns.
func (r *Repository) PhotoCount(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM album_photos WHERE album_id = $1`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count album photos: %w", err)
	}
	return n, nil
}

// PhotoExists reports whether the photo record exists.
func (r *Repository) PhotoExists(ctx context.Context, photoID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM photos WHERE id = $1)`, photoID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check photo: %w", err)
	}
	return exists, nil
}

// AddPhoto attaches the photo to the album. Idempotent: adding an existing
// membership is a no-op (primary key on the pair, ON CONFLICT DO NOTHING).
func (r *Repository) AddPhoto(ctx context.Context, albumID, photoID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO album_photos (album_id, photo_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		albumID, photoID,
	)
	if err != nil {
		return fmt.Errorf("attach photo to album: %w", err)
	}
	return nil
}

// RemovePhoto detaches the photo from the album. Removing a membership that
// does not exist is a no-op.
func (r *Repository) RemovePhoto(ctx context.Context, albumID, photoID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM album_photos WHERE album_id = $1 AND photo_id = $2`,
		albumID, photoID,
	)
	if err != nil {
		return fmt.Errorf("detach photo from album: %w", err)
	}
	return nil
}

// ListPhotos returns the album's photos created under the given storage mode,
// newest first.
func (r *Repository) ListPhotos(ctx context.Context, id string, mode storage.Mode) ([]*Photo, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.title, p.description, p.image_path, p.external_id, p.storage_mode, p.created_at
		 FROM photos p
		 JOIN album_photos ap ON ap.photo_id = p.id
		 WHERE ap.album_id = $1 AND p.storage_mode = $2
		 ORDER BY p.created_at DESC`,
		id, mode,
	)
	if err != nil {
		return nil, fmt.Errorf("list album photos: %w", err)
	}
	defer rows.Close()

	var photos []*Photo
	for rows.Next() {
		p := &Photo{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImagePath, &p.ExternalID, &p.StorageMode, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan album photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
