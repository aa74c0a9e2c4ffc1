// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zlataovce/classgraph/lib/acceptreject"
	"github.com/zlataovce/classgraph/lib/workqueue"
)

// dirElement is a directory tree on the classpath.
type dirElement struct {
	elementBase
}

func (e *dirElement) open(_ context.Context, _ *workqueue.Queue[workUnit]) {
	if e.session.opts.SkipDirs {
		e.markSkip("directory scanning disabled", nil)
		return
	}
	info, err := os.Stat(filepath.FromSlash(e.location))
	if err != nil {
		e.markSkip("cannot stat directory", err)
		return
	}
	if !info.IsDir() {
		e.markSkip("not a directory", nil)
		return
	}
	e.modified = info.ModTime()
}

func (e *dirElement) scanPaths(_ context.Context) error {
	s := e.session
	if e.skip.Load() {
		return nil
	}
	if s.filter.Rejected(e.location) {
		e.markSkip("element path rejected by filter", nil)
		return nil
	}
	if e.scanned.Swap(true) {
		return fmt.Errorf("scan: element %s scanned twice", e.location)
	}
	s.logger.Debug("scanning directory", "path", e.location)

	// Canonical paths of directories already entered, to cut symlink
	// cycles.
	visited := make(map[string]bool)
	seen := make(map[string]bool)
	e.walkDir(filepath.FromSlash(e.location), "", visited, seen)
	return nil
}

func (e *dirElement) walkDir(dir, rel string, visited, seen map[string]bool) {
	s := e.session
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		canonical = dir
	}
	if visited[canonical] {
		s.logger.Debug("skipping recursive symlink",
			"path", e.location, "dir", rel)
		return
	}
	visited[canonical] = true

	status := s.filter.DirStatus(rel)
	switch status {
	case acceptreject.DirHasRejectedPrefix:
		s.logger.Debug("skipping rejected directory",
			"path", e.location, "dir", rel)
		return
	case acceptreject.DirOutside:
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Debug("cannot read directory",
			"path", e.location, "dir", rel, "error", err)
		return
	}
	for _, de := range entries {
		name := de.Name()
		frel := name
		if rel != "" {
			frel = rel + "/" + name
		}
		full := filepath.Join(dir, name)
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			if info, err = os.Stat(full); err != nil {
				s.logger.Debug("skipping dangling symlink",
					"path", e.location, "file", frel, "error", err)
				continue
			}
		}
		switch {
		case info.IsDir():
			if e.underNestedRoot(frel + "/") {
				continue
			}
			e.walkDir(full, frel, visited, seen)
		case info.Mode().IsRegular():
			e.scanFile(full, frel, info, status, seen)
		}
	}
}

func (e *dirElement) scanFile(full, rel string, info fs.FileInfo, parentStatus acceptreject.DirMatch, seen map[string]bool) {
	s := e.session
	if s.filter.Rejected(rel) {
		s.logger.Debug("skipping rejected path",
			"path", e.location, "file", rel)
		return
	}
	if seen[rel] {
		return
	}
	seen[rel] = true
	if info.ModTime().After(e.modified) {
		e.modified = info.ModTime()
	}
	accepted := parentStatus == acceptreject.DirAtAccepted ||
		parentStatus == acceptreject.DirHasAcceptedPrefix
	if !accepted {
		// A whole-path accept pattern matches the file itself even
		// when its directory is only an ancestor of the pattern.
		accepted = s.filter.Path(rel)
	}
	if !accepted && rel != moduleDescriptor {
		return
	}
	res := &Resource{
		el:                &e.elementBase,
		path:              rel,
		pathWithinElement: rel,
		length:            info.Size(),
		modified:          info.ModTime(),
		mode:              info.Mode(),
		opener: func() (io.ReadCloser, error) {
			return os.Open(full)
		},
	}
	if !accepted {
		e.descriptors = append(e.descriptors, res)
		return
	}
	e.resources = append(e.resources, res)
	if rel == moduleDescriptor {
		e.descriptors = append(e.descriptors, res)
	}
}

func (e *dirElement) close() error { return nil }
