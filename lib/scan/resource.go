// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync/atomic"
	"time"
)

var (
	// ErrAlreadyOpen is returned when a resource handle is opened a
	// second time before being closed.
	ErrAlreadyOpen = errors.New("scan: resource already open")

	// ErrElementUnavailable is returned when a resource's classpath
	// element was skipped or its scan result has been closed.
	ErrElementUnavailable = errors.New("scan: classpath element unavailable")
)

// Resource is a handle to one file inside a classpath element. The
// handle starts closed; Open or Read opens it, and Close (or Load,
// which closes internally) returns it to the closed state. A handle
// serves one consumer at a time: opening an open handle fails with
// ErrAlreadyOpen rather than corrupting the first consumer's stream.
type Resource struct {
	el                *elementBase
	path              string
	pathWithinElement string
	length            int64
	modified          time.Time
	mode              fs.FileMode

	opener func() (io.ReadCloser, error)

	isOpen atomic.Bool
	rc     io.ReadCloser
	data   []byte
}

// Path is the resource's path relative to the element's package root.
// This is the path accept/reject patterns match against.
func (r *Resource) Path() string { return r.path }

// PathWithinElement is the resource's path inside its element before
// any package root was stripped, e.g. "BOOT-INF/classes/a/B.class"
// for Path "a/B.class".
func (r *Resource) PathWithinElement() string { return r.pathWithinElement }

// Element describes the classpath element that holds the resource.
func (r *Resource) Element() ElementInfo { return r.el.info() }

// Length is the resource's uncompressed size in bytes, or -1 when it
// is unknown before the resource has been read.
func (r *Resource) Length() int64 { return r.length }

// Modified is the resource's modification time. For module resources
// it falls back to the module's own timestamp.
func (r *Resource) Modified() time.Time { return r.modified }

// Mode is the resource's permission bits, when the element records
// them.
func (r *Resource) Mode() fs.FileMode { return r.mode }

// Open opens the resource for streaming. The returned reader stays
// valid until it or the Resource is closed; closing either one closes
// both.
func (r *Resource) Open() (io.ReadCloser, error) {
	if r.el.unavailable() {
		return nil, ErrElementUnavailable
	}
	if r.isOpen.Swap(true) {
		return nil, ErrAlreadyOpen
	}
	rc, err := r.opener()
	if err != nil {
		r.isOpen.Store(false)
		return nil, fmt.Errorf("scan: opening %s: %w", r.path, err)
	}
	r.rc = rc
	return &resourceStream{r: r, rc: rc}, nil
}

// Read opens the resource, reads it fully, and retains the bytes; the
// handle stays open until Close drops them. The returned slice must
// not be used after Close.
func (r *Resource) Read() ([]byte, error) {
	if r.el.unavailable() {
		return nil, ErrElementUnavailable
	}
	if r.isOpen.Swap(true) {
		return nil, ErrAlreadyOpen
	}
	rc, err := r.opener()
	if err != nil {
		r.isOpen.Store(false)
		return nil, fmt.Errorf("scan: opening %s: %w", r.path, err)
	}
	data, err := io.ReadAll(rc)
	cerr := rc.Close()
	if err != nil || cerr != nil {
		r.isOpen.Store(false)
		return nil, fmt.Errorf("scan: reading %s: %w", r.path, errors.Join(err, cerr))
	}
	r.data = data
	r.length = int64(len(data))
	return data, nil
}

// Load reads the whole resource and leaves the handle closed. The
// returned bytes are the caller's to keep.
func (r *Resource) Load() ([]byte, error) {
	data, err := r.Read()
	if err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return data, nil
}

// Close returns the handle to the closed state, releasing any open
// stream and retained bytes. Closing a closed handle is a no-op.
func (r *Resource) Close() error {
	if !r.isOpen.Swap(false) {
		return nil
	}
	r.data = nil
	if r.rc == nil {
		return nil
	}
	rc := r.rc
	r.rc = nil
	if err := rc.Close(); err != nil {
		return fmt.Errorf("scan: closing %s: %w", r.path, err)
	}
	return nil
}

// resourceStream is the reader handed out by Open. Closing it closes
// the owning Resource, and vice versa.
type resourceStream struct {
	r  *Resource
	rc io.ReadCloser
}

func (s *resourceStream) Read(p []byte) (int, error) { return s.rc.Read(p) }

func (s *resourceStream) Close() error { return s.r.Close() }
