package photo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/galerie/service/internal/storage"
	"github.com/galerie/service/internal/validation"
)

// repository is the persistence surface the service needs; *Repository
// implements it.
type repository interface {
	Create(ctx context.Context, title, description, imagePath string, externalID *string, mode storage.Mode, albumID string) (*Photo, error)
	AlbumExists(ctx context.Context, albumID string) (bool, error)
	GetByID(ctx context.Context, id string) (*Photo, error)
	List(ctx context.Context, mode storage.Mode, offset, limit int) ([]*Photo, error)
	Count(ctx context.Context, mode storage.Mode) (int, error)
	Update(ctx context.Context, id string, title, description *string, imagePath, externalID *string, mode *storage.Mode) (*Photo, error)
	Delete(ctx context.Context, id string) error
}

// imageFolder is the logical folder photo blobs are stored under.
const imageFolder = "photos"

// DefaultPageLimit is the photo listing page size when none is requested.
const DefaultPageLimit = 25

// CreateInput is the validated payload for a photo upload.
type CreateInput struct {
	Title       string `validate:"required,min=3,max=100"`
	Description string `validate:"max=300"`
	AlbumID     string `validate:"required,uuid"`
}

// UpdateInput carries the optional patch fields for a photo.
type UpdateInput struct {
	Title       *string `validate:"omitempty,min=3,max=100"`
	Description *string `validate:"omitempty,max=300"`
}

// Page is one page of a photo listing.
type Page struct {
	Photos      []*Photo `json:"photos"`
	Total       int      `json:"total"`
	TotalPages  int      `json:"totalPages"`
	CurrentPage int      `json:"currentPage"`
}

// Service contains the business logic for photo management.
type Service struct {
	repo     repository
	store    storage.Backend
	resolver *storage.Resolver
	log      *zap.Logger
}

// NewService creates a new photo Service.
func NewService(repo repository, store storage.Backend, resolver *storage.Resolver, log *zap.Logger) *Service {
	return &Service{repo: repo, store: store, resolver: resolver, log: log}
}

// Create validates the input, confirms the target album exists, writes the
// image blob to the active backend, then persists the record and its album
// membership. The album check precedes the blob write so an unknown album id
// never leaves an orphaned blob; a failed blob write aborts everything.
func (s *Service) Create(ctx context.Context, in CreateInput, image storage.Upload) (*Photo, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	exists, err := s.repo.AlbumExists(ctx, in.AlbumID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrAlbumNotFound
	}

	h, err := s.store.Put(ctx, image.Reader, image.Size, image.ContentType, imageFolder, image.Filename)
	if err != nil {
		s.log.Error("photo write failed",
			zap.String("mode", string(s.store.Mode())),
			zap.String("filename", image.Filename),
			zap.Error(err))
		return nil, err
	}

	var externalID *string
	if h.ExternalID != "" {
		externalID = &h.ExternalID
	}
	p, err := s.repo.Create(ctx, in.Title, in.Description, h.Reference, externalID, s.store.Mode(), in.AlbumID)
	if err != nil {
		// Blob already written: orphaned on record failure, accepted risk.
		s.log.Warn("photo record write failed after blob write; blob orphaned",
			zap.String("reference", h.Reference), zap.Error(err))
		return nil, err
	}

	s.log.Info("photo created",
		zap.String("id", p.ID),
		zap.String("album", in.AlbumID),
		zap.String("title", p.Title))
	return s.withSignedURL(ctx, p)
}

// List returns one page of photos visible under the active storage mode,
// newest first, with display URLs resolved concurrently. Total and page count
// come from a separate count query.
func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}

	photos, err := s.repo.List(ctx, s.store.Mode(), (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, s.store.Mode())
	if err != nil {
		return nil, err
	}

	modes := make([]storage.Mode, len(photos))
	handles := make([]storage.Handle, len(photos))
	for i, p := range photos {
		modes[i] = p.StorageMode
		handles[i] = handleOf(p)
	}
	urls, err := s.resolver.ResolveAll(ctx, modes, handles)
	if err != nil {
		return nil, fmt.Errorf("resolve photo urls: %w", err)
	}
	for i, p := range photos {
		p.SignedURL = urls[i]
	}

	if photos == nil {
		photos = []*Photo{}
	}
	return &Page{
		Photos:      photos,
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

// Update patches text fields and optionally replaces the image blob,
// write-new-then-delete-old: the old blob is removed only after the record
// points at the new one, using the backend of the mode it was written under.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, image *storage.Upload) (*Photo, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var imagePath, externalID *string
	var newMode *storage.Mode
	if image != nil {
		h, err := s.store.Put(ctx, image.Reader, image.Size, image.ContentType, imageFolder, image.Filename)
		if err != nil {
			s.log.Error("photo write failed",
				zap.String("mode", string(s.store.Mode())),
				zap.String("filename", image.Filename),
				zap.Error(err))
			return nil, err
		}
		imagePath = &h.Reference
		if h.ExternalID != "" {
			externalID = &h.ExternalID
		}
		m := s.store.Mode()
		newMode = &m
	}

	updated, err := s.repo.Update(ctx, id, in.Title, in.Description, imagePath, externalID, newMode)
	if err != nil {
		return nil, err
	}

	if image != nil {
		s.deleteBlob(ctx, existing.StorageMode, handleOf(existing))
	}

	s.log.Info("photo updated", zap.String("id", id))
	return s.withSignedURL(ctx, updated)
}

// Delete removes the photo's blob best-effort, then the record. Membership
// rows cascade with the record.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.deleteBlob(ctx, p.StorageMode, handleOf(p))

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("photo deleted", zap.String("id", id))
	return nil
}

func (s *Service) withSignedURL(ctx context.Context, p *Photo) (*Photo, error) {
	u, err := s.resolver.Resolve(ctx, p.StorageMode, handleOf(p))
	if err != nil {
		return nil, fmt.Errorf("resolve photo url: %w", err)
	}
	p.SignedURL = u
	return p, nil
}

// deleteBlob removes a blob through the backend matching its stored mode.
// Failures are logged and swallowed.
func (s *Service) deleteBlob(ctx context.Context, mode storage.Mode, h storage.Handle) {
	b, ok := s.resolver.Backend(mode)
	if !ok {
		s.log.Warn("no backend for stored mode, blob left behind",
			zap.String("mode", string(mode)), zap.String("reference", h.Reference))
		return
	}
	if err := b.Delete(ctx, h); err != nil {
		s.log.Warn("blob delete failed",
			zap.String("mode", string(mode)),
			zap.String("reference", h.Reference),
			zap.Error(err))
	}
}

func handleOf(p *Photo) storage.Handle {
	h := storage.Handle{Reference: p.ImagePath}
	if p.ExternalID != nil {
		h.ExternalID = *p.ExternalID
	}
	return h
}
