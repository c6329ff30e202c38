package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Resolver turns stored handles into client-usable URLs. Dispatch is on the
// mode the record was created under, not the server's current mode: a blob
// lives wherever it was originally written, even after the deployment's
// active mode changes.
type Resolver struct {
	backends map[Mode]Backend
}

// NewResolver builds a resolver over the given backends. Pass every backend
// the deployment can construct; records tagged with a mode that has no
// backend resolve with an error.
func NewResolver(backends ...Backend) *Resolver {
	m := make(map[Mode]Backend, len(backends))
	for _, b := range backends {
		m[b.Mode()] = b
	}
	return &Resolver{backends: m}
}

// Backend returns the backend registered for mode, if any. Services use it to
// delete blobs of records created under an earlier mode.
func (r *Resolver) Backend(mode Mode) (Backend, bool) {
	b, ok := r.backends[mode]
	return b, ok
}

// Resolve produces the display URL for a single handle.
func (r *Resolver) Resolve(ctx context.Context, mode Mode, h Handle) (string, error) {
	if mode == ModeCloudinary {
		// Secure URLs are stored verbatim; no backend round-trip needed.
		return h.Reference, nil
	}
	b, ok := r.backends[mode]
	if !ok {
		return "", fmt.Errorf("no backend configured for mode %q", mode)
	}
	return b.ResolveURL(ctx, h)
}

// ResolveAll resolves a batch of handles concurrently. Object-store signing is
// a network call per record, so serial resolution would stack latency across a
// page of photos. Output order matches input order.
func (r *Resolver) ResolveAll(ctx context.Context, modes []Mode, handles []Handle) ([]string, error) {
	if len(modes) != len(handles) {
		return nil, fmt.Errorf("resolve batch: %d modes for %d handles", len(modes), len(handles))
	}

	urls := make([]string, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range handles {
		i := i // per-iteration copy: the go directive is 1.21, pre-loopvar semantics
		g.Go(func() error {
			u, err := r.Resolve(gctx, modes[i], handles[i])
			if err != nil {
				return err
			}
			urls[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
