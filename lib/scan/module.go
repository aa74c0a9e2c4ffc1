// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zlataovce/classgraph/lib/acceptreject"
	"github.com/zlataovce/classgraph/lib/jarfile"
	"github.com/zlataovce/classgraph/lib/modref"
	"github.com/zlataovce/classgraph/lib/recycler"
	"github.com/zlataovce/classgraph/lib/workqueue"
)

// moduleElement is a module-path element: a modular or automatic jar,
// or an exploded module directory. Its readers are pooled so that
// concurrent resource opens never share a handle.
type moduleElement struct {
	elementBase
	ref      modref.Ref
	readers  *recycler.Recycler[*modref.Reader]
	exploded bool
	fileSize int64
}

func (e *moduleElement) open(_ context.Context, _ *workqueue.Queue[workUnit]) {
	s := e.session
	if s.opts.SkipModules {
		e.markSkip("module scanning disabled", nil)
		return
	}
	readers, err := recycler.New(recycler.Config[*modref.Reader]{
		New:    e.ref.Open,
		Close:  (*modref.Reader).Close,
		Logger: s.logger,
	})
	if err != nil {
		e.markSkip("cannot create module reader pool", err)
		return
	}
	e.readers = readers
	info, err := os.Stat(filepath.FromSlash(e.location))
	if err != nil {
		e.markSkip("cannot stat module", err)
		return
	}
	e.modified = info.ModTime()
	if info.IsDir() {
		e.exploded = true
	} else {
		e.fileSize = info.Size()
	}
}

func (e *moduleElement) scanPaths(_ context.Context) error {
	s := e.session
	if e.skip.Load() {
		return nil
	}
	if e.scanned.Swap(true) {
		return fmt.Errorf("scan: element %s scanned twice", e.location)
	}
	scoped, err := e.readers.AcquireScoped()
	if err != nil {
		e.markSkip("cannot open module reader", err)
		return nil
	}
	defer scoped.Close()
	reader := scoped.Handle()
	s.logger.Debug("scanning module", "module", e.moduleName, "path", e.location)

	modular := s.javaVersion >= 9 && reader.Modular()
	names := reader.List()
	seen := make(map[string]bool, len(names))
	prevParentDir := "\x00"
	var prevParentStatus acceptreject.DirMatch
	for _, rel := range names {
		if strings.HasPrefix(rel, jarfile.MultiReleasePrefix) {
			s.logger.Debug("skipping unexpected versioned entry",
				"path", e.location, "entry", rel)
			continue
		}
		if modular && !strings.Contains(rel, "/") &&
			strings.HasSuffix(rel, ".class") && rel != moduleDescriptor {
			continue
		}
		if s.filter.Rejected(rel) {
			s.logger.Debug("skipping rejected path",
				"path", e.location, "entry", rel)
			continue
		}
		if parentDir := parentDirOf(rel); parentDir != prevParentDir {
			prevParentDir = parentDir
			prevParentStatus = s.filter.DirStatus(parentDir)
		}
		if prevParentStatus == acceptreject.DirHasRejectedPrefix {
			s.logger.Debug("skipping path under rejected directory",
				"path", e.location, "entry", rel)
			continue
		}
		if seen[rel] {
			continue
		}
		seen[rel] = true
		accepted := prevParentStatus == acceptreject.DirAtAccepted ||
			prevParentStatus == acceptreject.DirHasAcceptedPrefix
		if !accepted {
			accepted = s.filter.Path(rel)
		}
		if !accepted && rel != moduleDescriptor {
			continue
		}
		res := e.newResource(rel, reader.Size(rel))
		if !accepted {
			e.descriptors = append(e.descriptors, res)
			continue
		}
		e.resources = append(e.resources, res)
		if rel == moduleDescriptor {
			e.descriptors = append(e.descriptors, res)
		}
	}
	return nil
}

func (e *moduleElement) newResource(rel string, size int64) *Resource {
	return &Resource{
		el:                &e.elementBase,
		path:              rel,
		pathWithinElement: rel,
		length:            size,
		modified:          e.modified,
		opener: func() (io.ReadCloser, error) {
			scoped, err := e.readers.AcquireScoped()
			if err != nil {
				return nil, err
			}
			rc, err := scoped.Handle().Open(rel)
			if err != nil {
				scoped.Close()
				return nil, err
			}
			return &moduleStream{rc: rc, scoped: scoped}, nil
		},
	}
}

func (e *moduleElement) close() error {
	if e.readers == nil {
		return nil
	}
	return e.readers.Close()
}

// moduleStream keeps a pooled module reader checked out for as long
// as one of its resource streams is open.
type moduleStream struct {
	rc     io.ReadCloser
	scoped *recycler.Scoped[*modref.Reader]
}

func (s *moduleStream) Read(p []byte) (int, error) { return s.rc.Read(p) }

func (s *moduleStream) Close() error {
	return errors.Join(s.rc.Close(), s.scoped.Close())
}
