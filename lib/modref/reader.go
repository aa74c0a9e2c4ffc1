// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package modref

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/zlataovce/classgraph/lib/jarfile"
)

// ErrNotFound is returned by Reader.Open and Reader.Read for names
// the module does not contain.
var ErrNotFound = errors.New("modref: resource not found")

// Reader lists and reads the resources of one module. A Reader holds
// an open handle to its module; intended for one user at a time —
// the module scanner checks Readers in and out of a pool rather than
// sharing one across goroutines.
type Reader struct {
	location string
	jar      *jarfile.Jar // nil for exploded modules
	root     string       // exploded module directory
	names    []string
}

// Open opens a Reader over the module's resources. The caller must
// Close it.
func (r Ref) Open() (*Reader, error) {
	if r.exploded {
		return openExploded(r.Location)
	}
	return openJar(r.Location, r.javaVersion)
}

func openJar(path string, javaVersion int) (*Reader, error) {
	jar, err := jarfile.Open(path, javaVersion)
	if err != nil {
		return nil, err
	}
	entries := jar.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.NameUnversioned
	}
	sort.Strings(names)
	return &Reader{location: path, jar: jar, names: names}, nil
}

func openExploded(root string) (*Reader, error) {
	var names []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing module directory %s: %w", root, err)
	}
	sort.Strings(names)
	return &Reader{location: root, root: root, names: names}, nil
}

// List returns the module's resource names, sorted. The caller must
// not modify the returned slice.
func (r *Reader) List() []string { return r.names }

// Open returns a reader over one resource's content. Names come from
// List.
func (r *Reader) Open(name string) (io.ReadCloser, error) {
	if r.jar != nil {
		e := r.jar.Entry(name)
		if e == nil {
			return nil, fmt.Errorf("%s in %s: %w", name, r.location, ErrNotFound)
		}
		return e.Open()
	}
	if !r.contains(name) {
		return nil, fmt.Errorf("%s in %s: %w", name, r.location, ErrNotFound)
	}
	f, err := os.Open(filepath.Join(r.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("opening %s in %s: %w", name, r.location, err)
	}
	return f, nil
}

// Read returns one resource's whole content.
func (r *Reader) Read(name string) ([]byte, error) {
	rc, err := r.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s in %s: %w", name, r.location, err)
	}
	return data, nil
}

// contains reports whether name is in the sorted resource list.
func (r *Reader) contains(name string) bool {
	i := sort.SearchStrings(r.names, name)
	return i < len(r.names) && r.names[i] == name
}

// Size returns a resource's uncompressed size, or -1 when unknown.
func (r *Reader) Size(name string) int64 {
	if r.jar != nil {
		if e := r.jar.Entry(name); e != nil {
			return e.UncompressedSize
		}
		return -1
	}
	info, err := os.Stat(filepath.Join(r.root, filepath.FromSlash(name)))
	if err != nil || !info.Mode().IsRegular() {
		return -1
	}
	return info.Size()
}

// Close releases the module's handle. The Reader must not be used
// afterwards.
func (r *Reader) Close() error {
	if r.jar != nil {
		return r.jar.Close()
	}
	return nil
}

// Modular reports whether the module carries a compiled module
// declaration (as opposed to an automatic module from a plain jar).
func (r *Reader) Modular() bool {
	if r.jar != nil {
		return r.jar.Modular()
	}
	return r.contains("module-info.class")
}
