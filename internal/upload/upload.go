// Package upload extracts and filters multipart file uploads before they
// reach the services: size caps and content-type allow-lists live here.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/galerie/service/internal/storage"
)

const (
	// MaxImageSize caps photo and cover uploads.
	MaxImageSize = 2 << 20 // 2 MiB
	// MaxMarkdownSize caps article markdown files.
	MaxMarkdownSize = 10 << 20 // 10 MiB
)

// ErrRejected marks an upload refused by a filter; handlers map it to 400.
var ErrRejected = errors.New("upload rejected")

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Image extracts an optional image upload from the given multipart field.
// Returns (nil, nil) when the field is absent. Only JPG and PNG up to
// MaxImageSize are accepted. The caller owns the returned Upload's Reader
// for the lifetime of the request.
func Image(r *http.Request, field string) (*storage.Upload, error) {
	f, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", ErrRejected, field, err)
	}

	if header.Size > MaxImageSize {
		f.Close()
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrRejected, MaxImageSize)
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	ct := header.Header.Get("Content-Type")
	if !imageExts[ext] || (ct != "" && ct != "image/jpeg" && ct != "image/png") {
		f.Close()
		return nil, fmt.Errorf("%w: only JPG and PNG images are allowed", ErrRejected)
	}

	return &storage.Upload{
		Reader:      f,
		Size:        header.Size,
		ContentType: ct,
		Filename:    header.Filename,
	}, nil
}

// Markdown extracts a required markdown upload from the given field and reads
// it fully, returning the filename and content.
func Markdown(r *http.Request, field string) (filename string, content []byte, err error) {
	f, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil, fmt.Errorf("%w: no .md file provided", ErrRejected)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: read %q: %v", ErrRejected, field, err)
	}
	defer f.Close()

	if header.Size > MaxMarkdownSize {
		return "", nil, fmt.Errorf("%w: markdown exceeds %d bytes", ErrRejected, MaxMarkdownSize)
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".md") {
		return "", nil, fmt.Errorf("%w: only .md files are allowed", ErrRejected)
	}

	content, err = io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("read markdown: %w", err)
	}
	return header.Filename, content, nil
}
