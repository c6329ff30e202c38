package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"
)

// stubBackend resolves every handle to "<mode>:<reference>".
type stubBackend struct {
	mode Mode
}

func (s *stubBackend) Mode() Mode { return s.mode }

func (s *stubBackend) Put(ctx context.Context, r io.Reader, size int64, contentType, folder, name string) (Handle, error) {
	return Handle{}, errors.New("not implemented")
}

func (s *stubBackend) Delete(ctx context.Context, h Handle) error { return nil }

func (s *stubBackend) ResolveURL(ctx context.Context, h Handle) (string, error) {
	return string(s.mode) + ":" + h.Reference, nil
}

func TestResolveDispatchesOnRecordMode(t *testing.T) {
	r := NewResolver(&stubBackend{mode: ModeLocal}, &stubBackend{mode: ModeAWS})

	u, err := r.Resolve(context.Background(), ModeAWS, Handle{Reference: "ref"})
	if err != nil {
		t.Fatal(err)
	}
	if u != "aws:ref" {
		t.Errorf("Resolve dispatched to %q, want aws backend", u)
	}
}

func TestResolveCloudinaryNeedsNoBackend(t *testing.T) {
	r := NewResolver(&stubBackend{mode: ModeLocal})

	u, err := r.Resolve(context.Background(), ModeCloudinary, Handle{Reference: "https://res.cloudinary.com/demo/x.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if u != "https://res.cloudinary.com/demo/x.jpg" {
		t.Errorf("cloudinary resolution = %q, want stored secure URL", u)
	}
}

func TestResolveUnknownModeFails(t *testing.T) {
	r := NewResolver(&stubBackend{mode: ModeLocal})
	if _, err := r.Resolve(context.Background(), ModeAWS, Handle{Reference: "ref"}); err == nil {
		t.Error("expected error for mode without a backend")
	}
}

func TestResolveAllPreservesInputOrder(t *testing.T) {
	r := NewResolver(&stubBackend{mode: ModeLocal}, &stubBackend{mode: ModeAWS})

	const n = 50
	modes := make([]Mode, n)
	handles := make([]Handle, n)
	for i := range handles {
		if i%2 == 0 {
			modes[i] = ModeLocal
		} else {
			modes[i] = ModeAWS
		}
		handles[i] = Handle{Reference: strconv.Itoa(i)}
	}

	urls, err := r.ResolveAll(context.Background(), modes, handles)
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != n {
		t.Fatalf("got %d urls, want %d", len(urls), n)
	}
	for i, u := range urls {
		want := fmt.Sprintf("%s:%d", modes[i], i)
		if u != want {
			t.Errorf("urls[%d] = %q, want %q", i, u, want)
		}
	}
}

func TestResolveAllLengthMismatch(t *testing.T) {
	r := NewResolver(&stubBackend{mode: ModeLocal})
	if _, err := r.ResolveAll(context.Background(), []Mode{ModeLocal}, nil); err == nil {
		t.Error("expected error for mismatched batch lengths")
	}
}

func TestParseMode(t *testing.T) {
	for _, ok := range []string{"local", "aws", "cloudinary"} {
		if _, err := ParseMode(ok); err != nil {
			t.Errorf("ParseMode(%q) = %v", ok, err)
		}
	}
	if _, err := ParseMode("gcs"); err == nil {
		t.Error("ParseMode accepted an unknown mode")
	}
}
