// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"context"
	"fmt"
	"strings"

	"github.com/zlataovce/classgraph/lib/acceptreject"
	"github.com/zlataovce/classgraph/lib/jarfile"
	"github.com/zlataovce/classgraph/lib/pathutil"
	"github.com/zlataovce/classgraph/lib/workqueue"
)

// jarElement is an archive on the classpath: a jar, war, ear or zip,
// possibly nested inside another archive or fetched from a URL.
type jarElement struct {
	elementBase
	jar *jarfile.Jar
}

func (e *jarElement) open(ctx context.Context, q *workqueue.Queue[workUnit]) {
	s := e.session
	if s.opts.SkipJars {
		e.markSkip("jar scanning disabled", nil)
		return
	}
	jar, packageRoot, err := s.resolver.Resolve(ctx, e.location)
	if err != nil {
		e.markSkip("cannot open jar", err)
		return
	}
	e.jar = jar
	e.modified = jar.LastModified()
	if packageRoot != "" {
		e.packageRoot = packageRoot + "/"
	}
	if jar.IsJREJar() {
		e.markSkip("jre runtime jar", nil)
		return
	}
	e.scheduleChildren(q)
}

// scheduleChildren queues the child classpath elements this jar
// declares: jars in automatic lib directories, manifest Class-Path
// entries, and OSGi Bundle-ClassPath entries.
func (e *jarElement) scheduleChildren(q *workqueue.Queue[workUnit]) {
	s := e.session
	order := 0
	add := func(path string) {
		q.Add(workUnit{path: path, loader: e.loader, parent: e, order: order})
		order++
	}

	if !s.opts.SkipNestedJars {
		for _, entry := range e.jar.Entries() {
			if !isLibJar(entry.NameUnversioned) {
				continue
			}
			s.logger.Debug("found nested lib jar",
				"path", e.location, "entry", entry.NameUnversioned)
			add(pathutil.JoinNested(e.jar.Path(), entry.NameUnversioned))
		}
	}

	scheduled := map[string]bool{e.location: true}
	for _, cp := range e.jar.ClassPathEntries() {
		child := e.resolveSibling(cp)
		if child == "" || scheduled[child] {
			continue
		}
		scheduled[child] = true
		s.logger.Debug("found Class-Path manifest entry",
			"path", e.location, "child", child)
		add(child)
	}
	for _, b := range e.jar.BundleClassPathEntries() {
		inner := pathutil.SanitizeEntryPath(b, true, true)
		if inner == "" {
			continue
		}
		child := e.jar.Path() + "!/" + inner
		if scheduled[child] {
			continue
		}
		scheduled[child] = true
		s.logger.Debug("found Bundle-ClassPath manifest entry",
			"path", e.location, "child", child)
		add(child)
	}
}

// resolveSibling resolves a manifest Class-Path entry, which is
// relative to the directory holding this jar. For a nested jar that
// directory lives inside the parent archive.
func (e *jarElement) resolveSibling(rel string) string {
	within := e.jar.PathWithinParent()
	if within == "" {
		return pathutil.Resolve(pathutil.ParentDir(e.jar.Path()), rel)
	}
	parentPath := strings.TrimSuffix(e.jar.Path(), "!/"+within)
	resolved := pathutil.Resolve(pathutil.ParentDir(within), rel)
	return pathutil.JoinNested(parentPath, strings.TrimPrefix(resolved, "/"))
}

func (e *jarElement) scanPaths(_ context.Context) error {
	s := e.session
	if e.skip.Load() {
		return nil
	}
	if e.jar == nil {
		e.markSkip("jar was never opened", nil)
		return nil
	}
	if s.filter.Rejected(e.location) {
		e.markSkip("element path rejected by filter", nil)
		return nil
	}
	if e.scanned.Swap(true) {
		return fmt.Errorf("scan: element %s scanned twice", e.location)
	}
	s.logger.Debug("scanning jar", "path", e.location)

	modular := s.javaVersion >= 9 && e.jar.Modular()
	entries := e.jar.Entries()
	seen := make(map[string]bool, len(entries))
	prevParentDir := "\x00"
	var prevParentStatus acceptreject.DirMatch
	for _, entry := range entries {
		rel := entry.NameUnversioned
		if strings.HasPrefix(rel, jarfile.MultiReleasePrefix) {
			s.logger.Debug("skipping unexpected versioned entry",
				"path", e.location, "entry", rel)
			continue
		}
		// A modular jar hides classfiles in its default package from
		// the classpath; only the module declaration survives there.
		if modular && !strings.Contains(rel, "/") &&
			strings.HasSuffix(rel, ".class") && rel != moduleDescriptor {
			continue
		}
		if e.underNestedRoot(rel) {
			continue
		}
		if e.packageRoot != "" {
			rest, ok := strings.CutPrefix(rel, e.packageRoot)
			if !ok {
				continue
			}
			rel = rest
		} else {
			for _, root := range jarfile.AutomaticPackageRootPrefixes {
				if rest, ok := strings.CutPrefix(rel, root); ok {
					rel = rest
					if e.strippedRoots == nil {
						e.strippedRoots = make(map[string]bool)
					}
					e.strippedRoots[strings.TrimSuffix(root, "/")] = true
					break
				}
			}
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
			// A whole-path accept pattern matches the entry itself
			// even when its directory is only an ancestor of the
			// pattern.
			accepted = s.filter.Path(rel)
		}
		if !accepted && rel != moduleDescriptor {
			continue
		}
		res := &Resource{
			el:                &e.elementBase,
			path:              rel,
			pathWithinElement: entry.NameUnversioned,
			length:            entry.UncompressedSize,
			modified:          entry.Modified,
			mode:              entry.Mode,
			opener:            entry.Open,
		}
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

func (e *jarElement) close() error { return nil }

// isLibJar reports whether a jar entry is a nested jar in one of the
// well-known lib directories that get scanned automatically.
func isLibJar(entryPath string) bool {
	if !strings.HasSuffix(entryPath, ".jar") {
		return false
	}
	for _, prefix := range jarfile.AutomaticLibDirPrefixes {
		if strings.HasPrefix(entryPath, prefix) {
			return true
		}
	}
	return false
}
