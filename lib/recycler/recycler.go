// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package recycler pools handles that are expensive to create and not
// safe for concurrent use, such as archive entry decompressors and
// module readers. Unlike a fixed-size pool, a Recycler grows on
// demand: Acquire hands out an idle handle when one is available and
// creates a new one otherwise, so callers never block waiting for
// each other. Close tears down every handle the Recycler ever
// created, including handles currently checked out, which converts a
// stuck reader into an I/O error instead of a hang at shutdown.
package recycler

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Acquire after the Recycler has been closed.
var ErrClosed = errors.New("recycler: closed")

// Config holds the parameters for a Recycler. New and Close are
// required.
type Config[H any] struct {
	// New creates a fresh handle. Called by Acquire whenever no idle
	// handle is available. Must be safe to call from any goroutine.
	New func() (H, error)

	// Close releases a handle. Called once per created handle when
	// the Recycler shuts down, regardless of whether the handle is
	// idle or checked out at that moment.
	Close func(H) error

	// Logger receives shutdown diagnostics. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Recycler is a grow-on-demand pool of reusable handles.
//
// Recycler is safe for concurrent use. Individual handles are not —
// each goroutine must Acquire its own handle and Recycle it when
// done. Recycle performs no ownership validation: returning a handle
// twice, or returning a handle the Recycler did not create, corrupts
// the idle set.
type Recycler[H any] struct {
	newFn   func() (H, error)
	closeFn func(H) error
	logger  *slog.Logger

	mu        sync.Mutex
	idle      []H
	allocated []H
	closed    bool
}

// New creates a Recycler from cfg.
func New[H any](cfg Config[H]) (*Recycler[H], error) {
	if cfg.New == nil {
		return nil, errors.New("recycler: New is required")
	}
	if cfg.Close == nil {
		return nil, errors.New("recycler: Close is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recycler[H]{
		newFn:   cfg.New,
		closeFn: cfg.Close,
		logger:  logger,
	}, nil
}

// Acquire returns an idle handle, or creates a new one when none is
// idle. The caller MUST pass the handle to Recycle when done with it,
// or close it through a Scoped wrapper from AcquireScoped. After
// Close, Acquire fails with ErrClosed.
func (r *Recycler[H]) Acquire() (H, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		var zero H
		return zero, ErrClosed
	}
	if n := len(r.idle); n > 0 {
		h := r.idle[n-1]
		r.idle = r.idle[:n-1]
		r.mu.Unlock()
		return h, nil
	}
	r.mu.Unlock()

	h, err := r.newFn()
	if err != nil {
		var zero H
		return zero, fmt.Errorf("recycler: creating handle: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		// Lost the race with Close: this handle was never published,
		// so it is this caller's to release.
		r.mu.Unlock()
		r.closeFn(h)
		var zero H
		return zero, ErrClosed
	}
	r.allocated = append(r.allocated, h)
	r.mu.Unlock()
	return h, nil
}

// Recycle returns a handle to the idle set for reuse. After Close it
// is a no-op: the handle has already been released by Close. After
// Recycle, the caller must not use the handle.
func (r *Recycler[H]) Recycle(h H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.idle = append(r.idle, h)
}

// AcquireScoped acquires a handle wrapped so that Close recycles it,
// making the checkout safe on every exit path:
//
//	scoped, err := r.AcquireScoped()
//	if err != nil {
//	    return err
//	}
//	defer scoped.Close()
//	use(scoped.Handle())
func (r *Recycler[H]) AcquireScoped() (*Scoped[H], error) {
	h, err := r.Acquire()
	if err != nil {
		return nil, err
	}
	return &Scoped[H]{recycler: r, handle: h}, nil
}

// Close releases every handle the Recycler created, idle or checked
// out, and fails subsequent Acquires with ErrClosed. Closing a
// checked-out handle makes its holder's next operation fail with the
// handle's own closed error; holders are never waited for. Close is
// idempotent.
func (r *Recycler[H]) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	allocated := r.allocated
	idle := len(r.idle)
	r.allocated, r.idle = nil, nil
	r.mu.Unlock()

	var errs []error
	for _, h := range allocated {
		if err := r.closeFn(h); err != nil {
			errs = append(errs, err)
		}
	}
	r.logger.Debug("recycler closed",
		"handles", len(allocated),
		"idle", idle,
		"outstanding", len(allocated)-idle,
	)
	if len(errs) > 0 {
		return fmt.Errorf("recycler: closing handles: %w", errors.Join(errs...))
	}
	return nil
}

// Scoped is a checked-out handle that returns itself to its Recycler
// when closed. Close is idempotent; after Close the handle must not
// be used.
type Scoped[H any] struct {
	recycler *Recycler[H]
	handle   H
	done     atomic.Bool
}

// Handle returns the checked-out handle.
func (s *Scoped[H]) Handle() H { return s.handle }

// Close recycles the handle. Only the first call has any effect.
func (s *Scoped[H]) Close() error {
	if s.done.Swap(true) {
		return nil
	}
	s.recycler.Recycle(s.handle)
	return nil
}
