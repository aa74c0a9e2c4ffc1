// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package fileslice provides byte-range views over files and memory
// buffers. A Slice is what the archive layer reads from: a root
// archive is a slice over its file, and an archive stored
// uncompressed inside another is a zero-copy sub-slice of its
// parent's range, sharing the parent's file handle. Sub-slices read
// with pread-style positioned I/O, so any number of them can be read
// concurrently through one open file.
//
// Closing a root FileSlice invalidates every sub-slice derived from
// it: their next read fails with the file's closed error. That is the
// mechanism the scanning session relies on to make shutdown
// deterministic rather than waiting on readers.
package fileslice

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Slice is a readable byte range with a diagnostic path.
type Slice interface {
	// Len returns the range's size in bytes.
	Len() int64

	// Path returns the filesystem path of the backing file, for
	// diagnostics. Memory-backed slices return the name they were
	// created with.
	Path() string

	// SectionReader returns a fresh positioned reader over the whole
	// range. Each call returns an independent reader; the underlying
	// handle is shared.
	SectionReader() *io.SectionReader

	// Slice returns a sub-range view sharing this slice's backing
	// storage. The view stays valid until the root slice is closed.
	Slice(off, length int64) (Slice, error)

	// Open returns a fresh sequential reader over the range. The
	// returned reader's Close never closes the backing storage.
	Open() (io.ReadCloser, error)

	// Load reads the whole range into a new buffer.
	Load() ([]byte, error)

	// Close releases the backing storage if this slice owns it.
	// Closing a sub-slice or a memory-backed slice is a no-op.
	Close() error
}

// FileSlice is a Slice backed by a range of an open file. The root
// FileSlice from OpenFile owns the file; sub-slices borrow it.
type FileSlice struct {
	file   *os.File
	off    int64
	length int64
	path   string
	owner  bool
}

// OpenFile opens path read-only and returns a FileSlice spanning the
// whole file. The caller owns the returned slice and must Close it;
// sub-slices derived from it do not need closing.
func OpenFile(path string) (*FileSlice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fileslice: opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("fileslice: stat %s: %w", path, err)
	}
	return &FileSlice{file: f, length: info.Size(), path: path, owner: true}, nil
}

// Len returns the range's size in bytes.
func (s *FileSlice) Len() int64 { return s.length }

// Path returns the backing file's path.
func (s *FileSlice) Path() string { return s.path }

// SectionReader returns a fresh positioned reader over the range.
func (s *FileSlice) SectionReader() *io.SectionReader {
	return io.NewSectionReader(s.file, s.off, s.length)
}

// Slice returns a sub-range view sharing the open file.
func (s *FileSlice) Slice(off, length int64) (Slice, error) {
	if err := checkRange(off, length, s.length); err != nil {
		return nil, fmt.Errorf("fileslice: %s: %w", s.path, err)
	}
	return &FileSlice{file: s.file, off: s.off + off, length: length, path: s.path}, nil
}

// Open returns a fresh sequential reader over the range.
func (s *FileSlice) Open() (io.ReadCloser, error) {
	return io.NopCloser(s.SectionReader()), nil
}

// Load reads the whole range into a new buffer.
func (s *FileSlice) Load() ([]byte, error) {
	buf := make([]byte, s.length)
	if _, err := io.ReadFull(s.SectionReader(), buf); err != nil {
		return nil, fmt.Errorf("fileslice: reading %s: %w", s.path, err)
	}
	return buf, nil
}

// Close closes the backing file if this slice owns it. Reads through
// outstanding sub-slices fail after the owner closes.
func (s *FileSlice) Close() error {
	if !s.owner {
		return nil
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("fileslice: closing %s: %w", s.path, err)
	}
	return nil
}

// BytesSlice is a Slice over an in-memory buffer, used for small
// archives extracted from a compressed parent entry.
type BytesSlice struct {
	data []byte
	path string
}

// Bytes wraps data in a Slice. The name is the diagnostic path
// reported by Path.
func Bytes(data []byte, name string) *BytesSlice {
	return &BytesSlice{data: data, path: name}
}

// Len returns the buffer's size in bytes.
func (s *BytesSlice) Len() int64 { return int64(len(s.data)) }

// Path returns the diagnostic name.
func (s *BytesSlice) Path() string { return s.path }

// SectionReader returns a fresh positioned reader over the buffer.
func (s *BytesSlice) SectionReader() *io.SectionReader {
	return io.NewSectionReader(bytes.NewReader(s.data), 0, int64(len(s.data)))
}

// Slice returns a sub-range view of the buffer.
func (s *BytesSlice) Slice(off, length int64) (Slice, error) {
	if err := checkRange(off, length, int64(len(s.data))); err != nil {
		return nil, fmt.Errorf("fileslice: %s: %w", s.path, err)
	}
	return &BytesSlice{data: s.data[off : off+length], path: s.path}, nil
}

// Open returns a fresh sequential reader over the buffer.
func (s *BytesSlice) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// Load returns a copy of the buffer.
func (s *BytesSlice) Load() ([]byte, error) {
	return bytes.Clone(s.data), nil
}

// Close is a no-op for memory-backed slices.
func (s *BytesSlice) Close() error { return nil }

func checkRange(off, length, size int64) error {
	if off < 0 || length < 0 || off+length > size {
		return fmt.Errorf("range [%d, %d) outside slice of %d bytes", off, off+length, size)
	}
	return nil
}
