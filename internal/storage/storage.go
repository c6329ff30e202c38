// Package storage abstracts where uploaded blobs live. Three backends implement
// the same contract: local disk, an S3-compatible object store, and Cloudinary.
// The active backend is chosen once at startup from configuration; records keep
// the mode they were written under so reads can always reach the right store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Mode identifies which backend a blob was written to.
type Mode string

const (
	ModeLocal      Mode = "local"
	ModeAWS        Mode = "aws"
	ModeCloudinary Mode = "cloudinary"
)

// SignedURLExpiry is how long presigned object-store URLs stay valid.
// Recomputed on every read, never persisted.
const SignedURLExpiry = 3600 * time.Second

// ParseMode validates a mode string from configuration or the database.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLocal, ModeAWS, ModeCloudinary:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown storage mode %q", s)
}

// Handle is the durable reference returned by a successful Put.
// Reference alone is enough to read or delete a blob on the local and
// object-store backends; Cloudinary additionally needs ExternalID to delete.
type Handle struct {
	// Reference is a local-relative path (/uploads/...), a fully-qualified
	// object-store URL, or a Cloudinary secure URL, depending on the backend.
	Reference string
	// ExternalID is the provider-side identifier (Cloudinary public ID).
	// Empty for the other backends.
	ExternalID string
}

// ErrWrite is wrapped by all blob-write failures. A write failure aborts the
// surrounding mutation: no record may be persisted after it.
var ErrWrite = errors.New("storage write failed")

// ErrDelete is wrapped by all blob-delete failures. Callers log and continue:
// an orphaned blob is preferred over a record pointing at nothing.
var ErrDelete = errors.New("storage delete failed")

// Backend is the contract every storage implementation satisfies.
type Backend interface {
	// Mode reports which backend this is.
	Mode() Mode

	// Put stores the blob under logicalFolder and returns its handle.
	// size must be the exact byte count of r.
	Put(ctx context.Context, r io.Reader, size int64, contentType, logicalFolder, originalFilename string) (Handle, error)

	// Delete removes the blob behind handle. Deleting an already-absent blob
	// is not an error.
	Delete(ctx context.Context, h Handle) error

	// ResolveURL produces a client-usable URL for the blob. The object-store
	// backend returns a freshly signed time-limited URL on every call.
	ResolveURL(ctx context.Context, h Handle) (string, error)
}

// Upload describes an inbound blob awaiting persistence, as extracted from a
// multipart request by the HTTP layer.
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Filename    string
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectKey builds the storage key for the local and object-store backends:
// {folder}/{epoch-millis}-{sanitized-original-filename}. Cloudinary assigns
// its own opaque identifiers and does not use this.
func ObjectKey(folder, originalFilename string, now time.Time) string {
	name := strings.TrimSpace(originalFilename)
	name = unsafeFilenameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%s/%d-%s", strings.Trim(folder, "/"), now.UnixMilli(), name)
}
