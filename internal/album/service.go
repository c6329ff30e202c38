package album

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
	Create(ctx context.Context, name, description string, coverPath, externalID *string, mode storage.Mode) (*Album, error)
	GetByID(ctx context.Context, id string) (*Album, error)
	List(ctx context.Context, mode storage.Mode) ([]*Album, error)
	Update(ctx context.Context, id string, name, description *string, coverPath, externalID *string, mode *storage.Mode) (*Album, error)
	Delete(ctx context.Context, id string) error
	PhotoCount(ctx context.Context, id string) (int, error)
	ListPhotos(ctx context.Context, id string, mode storage.Mode) ([]*Photo, error)
	PhotoExists(ctx context.Context, photoID string) (bool, error)
	AddPhoto(ctx context.Context, albumID, photoID string) error
	RemovePhoto(ctx context.Context, albumID, photoID string) error
}

// coverFolder is the logical folder album covers are stored under.
const coverFolder = "albums"

// CreateInput is the validated payload for album creation.
type CreateInput struct {
	Name        string `validate:"required,min=3,max=100"`
	Description string `validate:"max=500"`
}

// UpdateInput carries the optional patch fields for an album.
type UpdateInput struct {
	Name        *string `validate:"omitempty,min=3,max=100"`
	Description *string `validate:"omitempty,max=500"`
}

// AddPhotoInput identifies the album and photo to associate.
type AddPhotoInput struct {
	AlbumID string `json:"albumId" validate:"required,uuid"`
	PhotoID string `json:"photoId" validate:"required,uuid"`
}

// MovePhotoInput identifies a photo and the albums to move it between.
type MovePhotoInput struct {
	FromAlbumID string `json:"fromAlbumId" validate:"required,uuid"`
	ToAlbumID   string `json:"toAlbumId" validate:"required,uuid"`
	PhotoID     string `json:"photoId" validate:"required,uuid"`
}

// AlbumWithPhotos is an album plus its resolved photo set.
type AlbumWithPhotos struct {
	*Album
	Photos []*Photo `json:"photos"`
}

// Service contains the business logic for album management. New blobs always
// go to the active backend; old blobs are deleted through the backend matching
// the mode they were written under.
type Service struct {
	repo     repository
	store    storage.Backend
	resolver *storage.Resolver
	log      *zap.Logger
}

// NewService creates a new album Service.
func NewService(repo repository, store storage.Backend, resolver *storage.Resolver, log *zap.Logger) *Service {
	return &Service{repo: repo, store: store, resolver: resolver, log: log}
}

// Create validates the input, persists the optional cover blob, then writes
// the record. A failed blob write aborts the whole operation.
func (s *Service) Create(ctx context.Context, in CreateInput, cover *storage.Upload) (*Album, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var coverPath, externalID *string
	if cover != nil {
		h, err := s.store.Put(ctx, cover.Reader, cover.Size, cover.ContentType, coverFolder, cover.Filename)
		if err != nil {
			s.log.Error("album cover write failed",
				zap.String("mode", string(s.store.Mode())),
				zap.String("filename", cover.Filename),
				zap.Error(err))
			return nil, err
		}
		coverPath = &h.Reference
		if h.ExternalID != "" {
			externalID = &h.ExternalID
		}
	}

	a, err := s.repo.Create(ctx, in.Name, in.Description, coverPath, externalID, s.store.Mode())
	if err != nil {
		// The cover blob (if any) is now orphaned: accepted risk, logged only.
		if coverPath != nil {
			s.log.Warn("album record write failed after blob write; blob orphaned",
				zap.String("reference", *coverPath), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("album created", zap.String("id", a.ID), zap.String("name", a.Name))
	return s.withCoverURL(ctx, a)
}

// List returns all albums visible under the active storage mode, with cover
// URLs resolved concurrently.
func (s *Service) List(ctx context.Context) ([]*Album, error) {
	albums, err := s.repo.List(ctx, s.store.Mode())
	if err != nil {
		return nil, err
	}

	modes := make([]storage.Mode, 0, len(albums))
	handles := make([]storage.Handle, 0, len(albums))
	withCover := make([]*Album, 0, len(albums))
	for _, a := range albums {
		if a.CoverPhoto == nil {
			continue
		}
		modes = append(modes, a.StorageMode)
		handles = append(handles, handleOf(*a.CoverPhoto, a.ExternalID))
		withCover = append(withCover, a)
	}

	urls, err := s.resolver.ResolveAll(ctx, modes, handles)
	if err != nil {
		return nil, fmt.Errorf("resolve album covers: %w", err)
	}
	for i, a := range withCover {
		a.CoverURL = urls[i]
	}
	return albums, nil
}

// GetByID returns one album with its photo set. Photos are scoped to the
// active storage mode, mirroring the photo listing; each photo's URL is
// resolved through the mode it was created under.
func (s *Service) GetByID(ctx context.Context, id string) (*AlbumWithPhotos, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.withCoverURL(ctx, a); err != nil {
		return nil, err
	}

	photos, err := s.repo.ListPhotos(ctx, id, s.store.Mode())
	if err != nil {
		return nil, err
	}

	modes := make([]storage.Mode, len(photos))
	handles := make([]storage.Handle, len(photos))
	for i, p := range photos {
		modes[i] = p.StorageMode
		handles[i] = handleOf(p.ImagePath, p.ExternalID)
	}
	urls, err := s.resolver.ResolveAll(ctx, modes, handles)
	if err != nil {
		return nil, fmt.Errorf("resolve album photos: %w", err)
	}
	for i, p := range photos {
		p.SignedURL = urls[i]
	}

	return &AlbumWithPhotos{Album: a, Photos: photos}, nil
}

// Update patches text fields and optionally replaces the cover. The new blob
// is written first; only after the record update succeeds is the old blob
// deleted, so a failure can orphan a blob but never lose the record's data.
// Replacing the cover re-persists the record under the active mode.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, cover *storage.Upload) (*Album, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var coverPath, externalID *string
	var newMode *storage.Mode
	if cover != nil {
		h, err := s.store.Put(ctx, cover.Reader, cover.Size, cover.ContentType, coverFolder, cover.Filename)
		if err != nil {
			s.log.Error("album cover write failed",
				zap.String("mode", string(s.store.Mode())),
				zap.String("filename", cover.Filename),
				zap.Error(err))
			return nil, err
		}
		coverPath = &h.Reference
		if h.ExternalID != "" {
			externalID = &h.ExternalID
		}
		m := s.store.Mode()
		newMode = &m
	}

	updated, err := s.repo.Update(ctx, id, in.Name, in.Description, coverPath, externalID, newMode)
	if err != nil {
		return nil, err
	}

	if cover != nil && existing.CoverPhoto != nil {
		s.deleteBlob(ctx, existing.StorageMode, handleOf(*existing.CoverPhoto, existing.ExternalID))
	}

	s.log.Info("album updated", zap.String("id", id))
	return s.withCoverURL(ctx, updated)
}

// Delete removes the album. Refused while the album still owns photos; the
// cover blob is deleted best-effort before the record.
func (s *Service) Delete(ctx context.Context, id string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.repo.PhotoCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d photos", ErrNotEmpty, n)
	}

	if a.CoverPhoto != nil {
		s.deleteBlob(ctx, a.StorageMode, handleOf(*a.CoverPhoto, a.ExternalID))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("album deleted", zap.String("id", id))
	return nil
}

// AddPhoto associates an existing photo with the album. Calling it again for
// the same pair changes nothing.
func (s *Service) AddPhoto(ctx context.Context, in AddPhotoInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, in.AlbumID); err != nil {
		return err
	}
	ok, err := s.repo.PhotoExists(ctx, in.PhotoID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPhotoNotFound
	}

	if err := s.repo.AddPhoto(ctx, in.AlbumID, in.PhotoID); err != nil {
		return err
	}
	s.log.Info("photo added to album",
		zap.String("album", in.AlbumID), zap.String("photo", in.PhotoID))
	return nil
}

// MovePhoto detaches the photo from the source album and attaches it to the
// destination. Both albums and the photo must exist; the attach side is
// idempotent like AddPhoto.
func (s *Service) MovePhoto(ctx context.Context, in MovePhotoInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, in.FromAlbumID); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, in.ToAlbumID); err != nil {
		return err
	}
	ok, err := s.repo.PhotoExists(ctx, in.PhotoID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPhotoNotFound
	}

	if err := s.repo.RemovePhoto(ctx, in.FromAlbumID, in.PhotoID); err != nil {
		return err
	}
	if err := s.repo.AddPhoto(ctx, in.ToAlbumID, in.PhotoID); err != nil {
		return err
	}
	s.log.Info("photo moved between albums",
		zap.String("from", in.FromAlbumID),
		zap.String("to", in.ToAlbumID),
		zap.String("photo", in.PhotoID))
	return nil
}

func (s *Service) withCoverURL(ctx context.Context, a *Album) (*Album, error) {
	if a.CoverPhoto == nil {
		return a, nil
	}
	u, err := s.resolver.Resolve(ctx, a.StorageMode, handleOf(*a.CoverPhoto, a.ExternalID))
	if err != nil {
		return nil, fmt.Errorf("resolve album cover: %w", err)
	}
	a.CoverURL = u
	return a, nil
}

// deleteBlob removes a blob through the backend matching its stored mode.
// Failures are logged and swallowed: a cleanup problem must never block the
// record mutation.
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

func handleOf(reference string, externalID *string) storage.Handle {
	h := storage.Handle{Reference: reference}
	if externalID != nil {
		h.ExternalID = *externalID
	}
	return h
}
