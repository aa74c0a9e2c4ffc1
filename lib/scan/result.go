// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"sort"
)

// Result is a finished scan. It keeps the underlying archives and
// module readers open so its resources stay readable; Close releases
// them all.
type Result struct {
	session     *session
	elements    []element
	resources   []*Resource
	descriptors []*Resource
	paths       []string
	byPath      map[string]*Resource
}

func newResult(s *session, ordered []element) *Result {
	r := &Result{
		session:  s,
		elements: ordered,
		byPath:   make(map[string]*Resource),
	}
	for _, el := range ordered {
		b := el.base()
		if b.skip.Load() {
			continue
		}
		for _, res := range b.resources {
			r.resources = append(r.resources, res)
			if _, ok := r.byPath[res.path]; !ok {
				r.byPath[res.path] = res
				r.paths = append(r.paths, res.path)
			}
		}
		r.descriptors = append(r.descriptors, b.descriptors...)
	}
	return r
}

// Resources lists every accepted resource in classpath order. A path
// masked by an earlier element still appears here, once per element
// that holds it.
func (r *Result) Resources() []*Resource { return r.resources }

// Paths lists the distinct accepted resource paths in classpath
// order.
func (r *Result) Paths() []string { return r.paths }

// Resource returns the resource that wins classpath precedence for a
// path, or nil when no element holds it.
func (r *Result) Resource(path string) *Resource { return r.byPath[path] }

// ResourcesWithPath lists every resource with the given path, in
// classpath order: the first one masks the rest.
func (r *Result) ResourcesWithPath(path string) []*Resource {
	var matches []*Resource
	for _, res := range r.resources {
		if res.path == path {
			matches = append(matches, res)
		}
	}
	return matches
}

// Descriptors lists every module declaration (module-info.class)
// found at element roots, in classpath order, including ones outside
// the accept patterns.
func (r *Result) Descriptors() []*Resource { return r.descriptors }

// Elements describes every classpath element in classpath order,
// including skipped ones.
func (r *Result) Elements() []ElementInfo {
	infos := make([]ElementInfo, len(r.elements))
	for i, el := range r.elements {
		infos[i] = el.base().info()
	}
	return infos
}

// RootURIs lists the package-root locations of every scanned element
// in classpath order: the element itself, plus any automatic package
// roots (BOOT-INF/classes, WEB-INF/classes) discovered inside it.
func (r *Result) RootURIs() []string {
	var uris []string
	for _, el := range r.elements {
		b := el.base()
		if b.skip.Load() {
			continue
		}
		uris = append(uris, b.location)
		roots := make([]string, 0, len(b.strippedRoots))
		for root := range b.strippedRoots {
			roots = append(roots, root)
		}
		sort.Strings(roots)
		for _, root := range roots {
			uris = append(uris, b.location+"!/"+root)
		}
	}
	return uris
}

// Close releases every archive and module reader the scan opened.
// Resources of this result fail with ErrElementUnavailable afterward.
// Safe to call more than once.
func (r *Result) Close() error { return r.session.close() }
