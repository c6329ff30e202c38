package photo

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/galerie/service/internal/storage"
	"github.com/galerie/service/internal/validation"
)

const albumID = "7f1c3a0e-9f1b-4f7e-8d52-1f2b3c4d5e6f"

type fakeBackend struct {
	mode    storage.Mode
	putErr  error
	puts    []string
	deletes []storage.Handle
}

func (f *fakeBackend) Mode() storage.Mode { return f.mode }

func (f *fakeBackend) Put(ctx context.Context, r io.Reader, size int64, contentType, folder, name string) (storage.Handle, error) {
	if f.putErr != nil {
		return storage.Handle{}, f.putErr
	}
	f.puts = append(f.puts, name)
	return storage.Handle{Reference: fmt.Sprintf("/uploads/%s/%d-%s", folder, len(f.puts), name)}, nil
}

func (f *fakeBackend) Delete(ctx context.Context, h storage.Handle) error {
	f.deletes = append(f.deletes, h)
	return nil
}

func (f *fakeBackend) ResolveURL(ctx context.Context, h storage.Handle) (string, error) {
	return "resolved:" + h.Reference, nil
}

type fakeRepo struct {
	albums    map[string]bool
	photos    map[string]*Photo
	memberOf  map[string]string
	createErr error
	nextID    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		albums:   map[string]bool{albumID: true},
		photos:   map[string]*Photo{},
		memberOf: map[string]string{},
	}
}

func (r *fakeRepo) AlbumExists(ctx context.Context, album string) (bool, error) {
	return r.albums[album], nil
}

func (r *fakeRepo) Create(ctx context.Context, title, description, imagePath string, externalID *string, mode storage.Mode, album string) (*Photo, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	p := &Photo{
		ID:          fmt.Sprintf("photo-%d", r.nextID),
		Title:       title,
		Description: description,
		ImagePath:   imagePath,
		ExternalID:  externalID,
		StorageMode: mode,
		CreatedAt:   time.Now().Add(time.Duration(r.nextID) * time.Second),
	}
	r.photos[p.ID] = p
	r.memberOf[p.ID] = album
	return p, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Photo, error) {
	p, ok := r.photos[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context, mode storage.Mode, offset, limit int) ([]*Photo, error) {
	var all []*Photo
	for _, p := range r.photos {
		if p.StorageMode == mode {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeRepo) Count(ctx context.Context, mode storage.Mode) (int, error) {
	n := 0
	for _, p := range r.photos {
		if p.StorageMode == mode {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, title, description *string, imagePath, externalID *string, mode *storage.Mode) (*Photo, error) {
	p, ok := r.photos[id]
	if !ok {
		return nil, ErrNotFound
	}
	if title != nil {
		p.Title = *title
	}
	if description != nil {
		p.Description = *description
	}
	if imagePath != nil {
		p.ImagePath = *imagePath
		p.ExternalID = externalID
	}
	if mode != nil {
		p.StorageMode = *mode
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.photos[id]; !ok {
		return ErrNotFound
	}
	delete(r.photos, id)
	return nil
}

func newTestService(backend *fakeBackend, repo *fakeRepo) *Service {
	return NewService(repo, backend, storage.NewResolver(backend), zap.NewNop())
}

func testUpload(name string) storage.Upload {
	return storage.Upload{
		Reader:      strings.NewReader("img"),
		Size:        3,
		ContentType: "image/jpeg",
		Filename:    name,
	}
}

func TestCreate(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	repo := newFakeRepo()
	svc := newTestService(backend, repo)

	p, err := svc.Create(context.Background(), CreateInput{Title: "Sunset", AlbumID: albumID}, testUpload("sunset.jpg"))
	require.NoError(t, err)
	require.Equal(t, storage.ModeLocal, p.StorageMode)
	require.Equal(t, "resolved:"+p.ImagePath, p.SignedURL)
	require.Equal(t, albumID, repo.memberOf[p.ID])
}

func TestCreateRequiresValidAlbumID(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	svc := newTestService(backend, newFakeRepo())

	_, err := svc.Create(context.Background(), CreateInput{Title: "Sunset", AlbumID: "not-a-uuid"}, testUpload("sunset.jpg"))
	require.ErrorIs(t, err, validation.ErrInvalid)
	require.Empty(t, backend.puts)
}

func TestCreateUnknownAlbumWritesNoBlob(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	repo := newFakeRepo()
	svc := newTestService(backend, repo)

	missing := "00000000-0000-4000-8000-000000000000"
	_, err := svc.Create(context.Background(), CreateInput{Title: "Sunset", AlbumID: missing}, testUpload("sunset.jpg"))
	require.ErrorIs(t, err, ErrAlbumNotFound)
	require.Empty(t, backend.puts, "the album must be checked before the blob is written")
	require.Empty(t, repo.photos)
}

func TestCreateAbortsOnWriteFailure(t *testing.T) {
	backend := &fakeBackend{
		mode:   storage.ModeAWS,
		putErr: fmt.Errorf("%w: bucket unavailable", storage.ErrWrite),
	}
	repo := newFakeRepo()
	svc := newTestService(backend, repo)

	_, err := svc.Create(context.Background(), CreateInput{Title: "Sunset", AlbumID: albumID}, testUpload("sunset.jpg"))
	require.ErrorIs(t, err, storage.ErrWrite)
	require.Empty(t, repo.photos, "no record may be written after a failed blob write")
	require.Empty(t, repo.memberOf, "album membership must be untouched")
}

func TestListPagination(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	repo := newFakeRepo()
	svc := newTestService(backend, repo)

	for i := 0; i < 15; i++ {
		_, err := svc.Create(context.Background(),
			CreateInput{Title: fmt.Sprintf("Photo %02d", i), AlbumID: albumID},
			testUpload(fmt.Sprintf("p%02d.jpg", i)))
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Photos, 10)
	require.Equal(t, 15, page.Total)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, 1, page.CurrentPage)
	require.Equal(t, "Photo 14", page.Photos[0].Title, "newest first")

	page, err = svc.List(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Photos, 5)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, "Photo 04", page.Photos[0].Title)
}

func TestListDefaultsAndEmptyPage(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	svc := newTestService(backend, newFakeRepo())

	page, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.NotNil(t, page.Photos, "empty page must serialize as [], not null")
	require.Empty(t, page.Photos)
	require.Equal(t, 0, page.Total)
	require.Equal(t, 0, page.TotalPages)
	require.Equal(t, 1, page.CurrentPage)
}

func TestListScopedToActiveMode(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	repo := newFakeRepo()
	svc := newTestService(backend, repo)

	_, err := svc.Create(context.Background(), CreateInput{Title: "Local shot", AlbumID: albumID}, testUpload("a.jpg"))
	require.NoError(t, err)
	repo.photos["stale"] = &Photo{ID: "stale", Title: "Old", ImagePath: "s3://x", StorageMode: storage.ModeAWS}

	page, err := svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Photos, 1)
	require.Equal(t, "Local shot", page.Photos[0].Title)
}

func TestUpdateReplacesImageWriteNewThenDeleteOld(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	repo := newFakeRepo()
	svc := newTestService(backend, repo)

	p, err := svc.Create(context.Background(), CreateInput{Title: "Sunset", AlbumID: albumID}, testUpload("old.jpg"))
	require.NoError(t, err)
	old := p.ImagePath

	img := testUpload("new.jpg")
	updated, err := svc.Update(context.Background(), p.ID, UpdateInput{}, &img)
	require.NoError(t, err)
	require.NotEqual(t, old, updated.ImagePath)
	require.Len(t, backend.deletes, 1)
	require.Equal(t, old, backend.deletes[0].Reference)
}

func TestUpdateTextOnlyKeepsBlob(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	repo := newFakeRepo()
	svc := newTestService(backend, repo)

	p, err := svc.Create(context.Background(), CreateInput{Title: "Sunset", AlbumID: albumID}, testUpload("a.jpg"))
	require.NoError(t, err)

	title := "Golden hour"
	updated, err := svc.Update(context.Background(), p.ID, UpdateInput{Title: &title}, nil)
	require.NoError(t, err)
	require.Equal(t, "Golden hour", updated.Title)
	require.Equal(t, p.ImagePath, updated.ImagePath)
	require.Empty(t, backend.deletes)
}

func TestDeleteRemovesBlobAndRecord(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	repo := newFakeRepo()
	svc := newTestService(backend, repo)

	p, err := svc.Create(context.Background(), CreateInput{Title: "Sunset", AlbumID: albumID}, testUpload("a.jpg"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), p.ID))
	require.Len(t, backend.deletes, 1)
	require.Equal(t, p.ImagePath, backend.deletes[0].Reference)
	require.NotContains(t, repo.photos, p.ID)

	require.ErrorIs(t, svc.Delete(context.Background(), p.ID), ErrNotFound)
}

func TestDeleteForeignModeBlobLeftBehind(t *testing.T) {
	backend := &fakeBackend{mode: storage.ModeLocal}
	repo := newFakeRepo()
	repo.photos["p"] = &Photo{ID: "p", Title: "Old", ImagePath: "s3://bucket/k", StorageMode: storage.ModeAWS}
	svc := newTestService(backend, repo)

	// No backend is configured for the record's mode: the record still goes.
	require.NoError(t, svc.Delete(context.Background(), "p"))
	require.Empty(t, backend.deletes)
	require.NotContains(t, repo.photos, "p")
}
