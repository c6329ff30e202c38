package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Local stores blobs on the local filesystem under a configurable root
// directory and references them as /uploads/... paths, which the HTTP layer
// serves statically. ResolveURL prefixes the path with the public base URL.
type Local struct {
	root       string
	publicBase string
}

// NewLocal creates a Local backend rooted at root, creating the directory if
// needed. publicBase is the externally reachable server URL, e.g.
// "http://localhost:8080".
func NewLocal(root, publicBase string) (*Local, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload root %q: %w", root, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	return &Local{root: absRoot, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Mode reports ModeLocal.
func (l *Local) Mode() Mode { return ModeLocal }

// abs maps a logical key to a filesystem path, refusing anything that would
// escape the upload root.
func (l *Local) abs(key string) (string, error) {
	joined := filepath.Join(l.root, filepath.Clean(filepath.FromSlash(key)))
	rel, err := filepath.Rel(l.root, joined)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("key %q escapes upload root", key)
	}
	return joined, nil
}

// Put writes the blob via a temp file and atomic rename, so a crashed upload
// never leaves a partial file behind.
func (l *Local) Put(ctx context.Context, r io.Reader, size int64, contentType, logicalFolder, originalFilename string) (Handle, error) {
	key := ObjectKey(logicalFolder, originalFilename, time.Now())
	dest, err := l.abs(key)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return Handle{}, fmt.Errorf("%w: mkdir %q: %v", ErrWrite, filepath.Dir(dest), err)
	}

	tmp := dest + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: open %q: %v", ErrWrite, tmp, err)
	}

	_, werr := io.Copy(f, r)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp) //nolint:errcheck
		if werr == nil {
			werr = cerr
		}
		return Handle{}, fmt.Errorf("%w: write %q: %v", ErrWrite, key, werr)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return Handle{}, fmt.Errorf("%w: rename %q: %v", ErrWrite, key, err)
	}

	return Handle{Reference: "/uploads/" + key}, nil
}

// Delete unlinks the file behind the handle. Silently succeeds when the file
// is already gone.
func (l *Local) Delete(ctx context.Context, h Handle) error {
	abs, err := l.abs(keyFromLocalReference(h.Reference))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: unlink %q: %v", ErrDelete, h.Reference, err)
	}
	return nil
}

// ResolveURL returns the publicly reachable URL of the stored file.
func (l *Local) ResolveURL(ctx context.Context, h Handle) (string, error) {
	return l.publicBase + h.Reference, nil
}

// keyFromLocalReference strips the /uploads/ serving prefix from a stored
// reference, yielding the key relative to the upload root.
func keyFromLocalReference(ref string) string {
	return strings.TrimPrefix(path.Clean(ref), "/uploads/")
}
