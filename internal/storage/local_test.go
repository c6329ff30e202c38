package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l
}

func TestLocalPut(t *testing.T) {
	l := newTestLocal(t)
	want := []byte("jpeg bytes")

	h, err := l.Put(context.Background(), bytes.NewReader(want), int64(len(want)), "image/jpeg", "photos", "sunset.jpg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if matched, _ := regexp.MatchString(`^/uploads/photos/\d+-sunset\.jpg$`, h.Reference); !matched {
		t.Errorf("reference %q does not match /uploads/photos/<ts>-<name>", h.Reference)
	}
	if h.ExternalID != "" {
		t.Errorf("local backend must not set ExternalID, got %q", h.ExternalID)
	}

	got, err := os.ReadFile(filepath.Join(l.root, keyFromLocalReference(h.Reference)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("stored content mismatch: got %q, want %q", got, want)
	}
}

func TestLocalPutSanitizesFilename(t *testing.T) {
	l := newTestLocal(t)

	h, err := l.Put(context.Background(), strings.NewReader("x"), 1, "image/png", "photos", "week end (1)!.png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if strings.ContainsAny(h.Reference, " ()!") {
		t.Errorf("reference %q contains unsanitized characters", h.Reference)
	}
}

func TestLocalPutLeavesNoPartialFileOnError(t *testing.T) {
	l := newTestLocal(t)

	r := &failingReader{}
	if _, err := l.Put(context.Background(), r, 10, "image/jpeg", "photos", "broken.jpg"); err == nil {
		t.Fatal("expected error from failing reader")
	}

	entries, err := os.ReadDir(filepath.Join(l.root, "photos"))
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty folder after failed write, found %d entries", len(entries))
	}
}

func TestLocalDelete(t *testing.T) {
	l := newTestLocal(t)

	h, err := l.Put(context.Background(), strings.NewReader("data"), 4, "image/jpeg", "albums", "cover.jpg")
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Delete(context.Background(), h); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(l.root, keyFromLocalReference(h.Reference))); !os.IsNotExist(err) {
		t.Error("file still exists after Delete")
	}

	// Second delete must succeed silently.
	if err := l.Delete(context.Background(), h); err != nil {
		t.Fatalf("repeated Delete returned error: %v", err)
	}
}

func TestLocalDeleteRefusesEscape(t *testing.T) {
	l := newTestLocal(t)
	if err := l.Delete(context.Background(), Handle{Reference: "../../etc/passwd"}); err == nil {
		t.Error("expected error for reference escaping the upload root")
	}
}

func TestLocalResolveURL(t *testing.T) {
	l := newTestLocal(t)
	u, err := l.ResolveURL(context.Background(), Handle{Reference: "/uploads/photos/1-a.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if u != "http://localhost:8080/uploads/photos/1-a.jpg" {
		t.Errorf("ResolveURL = %q", u)
	}
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	tests := []struct {
		folder, name, want string
	}{
		{"photos", "sunset.jpg", "photos/1700000000000-sunset.jpg"},
		{"albums/", "my cover.png", "albums/1700000000000-my-cover.png"},
		{"articles", "", "articles/1700000000000-upload"},
		{"photos", "???", "photos/1700000000000-upload"},
	}
	for _, tt := range tests {
		if got := ObjectKey(tt.folder, tt.name, now); got != tt.want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", tt.folder, tt.name, got, tt.want)
		}
	}
}

type failingReader struct{}

func (f *failingReader) Read([]byte) (int, error) { return 0, os.ErrClosed }
