package article

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/galerie/service/internal/storage"
	"github.com/galerie/service/internal/validation"
)

// repository is the persistence surface the service needs; *Repository
// implements it.
type repository interface {
	Create(ctx context.Context, title, slug, markdown string, coverPath, externalID *string, mode storage.Mode) (*Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetBySlug(ctx context.Context, slug string) (*Article, error)
	List(ctx context.Context) ([]*Summary, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

// coverFolder is the logical folder article covers are stored under.
const coverFolder = "articles"

// uploadInput is validated internally; title and slug derive from the
// markdown filename rather than arriving as form fields.
type uploadInput struct {
	Title string `validate:"required,min=3,max=200"`
	Slug  string `validate:"required,min=1,max=200"`
}

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
)

// stripMarkdownExt drops a .md extension regardless of case, matching the
// case-insensitive upload filter.
func stripMarkdownExt(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".md") {
		return filename[:len(filename)-len(".md")]
	}
	return filename
}

// Slugify derives the URL slug from a markdown filename: the .md extension is
// dropped, spaces become dashes, everything outside [a-z0-9-] is stripped.
func Slugify(filename string) string {
	name := strings.ToLower(strings.TrimSpace(stripMarkdownExt(filename)))
	name = slugSpaces.ReplaceAllString(name, "-")
	return slugInvalid.ReplaceAllString(name, "")
}

// TitleFromFilename derives the display title: the filename without its
// extension, trimmed.
func TitleFromFilename(filename string) string {
	return strings.TrimSpace(stripMarkdownExt(filename))
}

// Service contains the business logic for article management.
type Service struct {
	repo     repository
	store    storage.Backend
	resolver *storage.Resolver
	log      *zap.Logger
}

// NewService creates a new article Service.
func NewService(repo repository, store storage.Backend, resolver *storage.Resolver, log *zap.Logger) *Service {
	return &Service{repo: repo, store: store, resolver: resolver, log: log}
}

// Upload creates an article from a markdown file plus an optional cover
// image. The slug is checked before the cover blob is written, so a slug
// collision never leaves an orphaned blob behind.
func (s *Service) Upload(ctx context.Context, mdFilename string, markdown []byte, cover *storage.Upload) (*Article, error) {
	in := uploadInput{
		Title: TitleFromFilename(mdFilename),
		Slug:  Slugify(mdFilename),
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	taken, err := s.repo.SlugExists(ctx, in.Slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}

	var coverPath, externalID *string
	if cover != nil {
		h, err := s.store.Put(ctx, cover.Reader, cover.Size, cover.ContentType, coverFolder, cover.Filename)
		if err != nil {
			s.log.Error("article cover write failed",
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

	a, err := s.repo.Create(ctx, in.Title, in.Slug, string(markdown), coverPath, externalID, s.store.Mode())
	if err != nil {
		if coverPath != nil {
			s.log.Warn("article record write failed after blob write; blob orphaned",
				zap.String("reference", *coverPath), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("article created", zap.String("slug", a.Slug))
	s.resolveCover(ctx, a.StorageMode, a.CoverPhoto, a.ExternalID, &a.CoverURL)
	return a, nil
}

// List returns all article summaries, newest first. Listing is not scoped to
// the active storage mode; each cover resolves through the mode it was
// created under, and a record whose backend is no longer configured falls
// back to its raw stored reference rather than failing the whole listing.
func (s *Service) List(ctx context.Context) ([]*Summary, error) {
	articles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range articles {
		s.resolveCover(ctx, a.StorageMode, a.CoverPhoto, a.ExternalID, &a.CoverURL)
	}
	return articles, nil
}

// GetBySlug returns a full article with its cover resolved.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	a, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.resolveCover(ctx, a.StorageMode, a.CoverPhoto, a.ExternalID, &a.CoverURL)
	return a, nil
}

// DeleteBySlug removes the cover blob best-effort, then the record.
func (s *Service) DeleteBySlug(ctx context.Context, slug string) error {
	a, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	if a.CoverPhoto != nil {
		h := storage.Handle{Reference: *a.CoverPhoto}
		if a.ExternalID != nil {
			h.ExternalID = *a.ExternalID
		}
		b, ok := s.resolver.Backend(a.StorageMode)
		if !ok {
			s.log.Warn("no backend for stored mode, blob left behind",
				zap.String("mode", string(a.StorageMode)), zap.String("reference", h.Reference))
		} else if err := b.Delete(ctx, h); err != nil {
			s.log.Warn("blob delete failed",
				zap.String("mode", string(a.StorageMode)),
				zap.String("reference", h.Reference),
				zap.Error(err))
		}
	}

	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		return err
	}
	s.log.Info("article deleted", zap.String("slug", slug))
	return nil
}

// resolveCover fills dst with the cover's display URL, falling back to the
// raw stored reference when the record's backend is unavailable.
func (s *Service) resolveCover(ctx context.Context, mode storage.Mode, coverPath, externalID *string, dst *string) {
	if coverPath == nil {
		return
	}
	h := storage.Handle{Reference: *coverPath}
	if externalID != nil {
		h.ExternalID = *externalID
	}
	u, err := s.resolver.Resolve(ctx, mode, h)
	if err != nil {
		s.log.Warn("cover resolution failed, serving stored reference",
			zap.String("mode", string(mode)), zap.Error(err))
		*dst = *coverPath
		return
	}
	*dst = u
}
