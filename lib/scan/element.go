// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zlataovce/classgraph/lib/modref"
	"github.com/zlataovce/classgraph/lib/workqueue"
)

// Kind identifies what backs a classpath element.
type Kind int

const (
	// KindDir is a directory tree on the filesystem.
	KindDir Kind = iota
	// KindJar is a jar, war, ear or zip archive, possibly nested
	// inside another archive or fetched from a remote URL.
	KindJar
	// KindModule is a module resolved from the module path.
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindJar:
		return "jar"
	case KindModule:
		return "module"
	}
	return "unknown"
}

// ElementInfo describes one classpath element of a finished scan.
type ElementInfo struct {
	// Location is the element's canonical path: a directory, a
	// possibly nested archive path, or a module's backing path.
	Location string
	// Module is the module name, for module-path elements.
	Module string
	// Kind says what backs the element.
	Kind Kind
	// Skipped reports whether the element was dropped before path
	// scanning: unreadable, filtered, or disabled by options.
	Skipped bool
	// LastModified is the element's modification time. For a
	// directory element it is the newest timestamp seen during the
	// walk.
	LastModified time.Time
}

// workUnit is one element to materialize and open. Opening an element
// can schedule more units (nested jars, manifest Class-Path entries),
// so units run on a work queue that only finishes once it drains with
// every worker idle.
type workUnit struct {
	path   string      // canonical element path; empty for modules
	module *modref.Ref // module-path element, when non-nil
	loader string      // origin tag, inherited by scheduled children
	parent element     // element whose open scheduled this unit
	order  int         // position among the parent's (or root's) units
}

// key is the identity under which the unit's element is deduplicated.
// The same path scheduled twice opens one element.
func (u workUnit) key() string {
	if u.module != nil {
		return "module:" + u.module.Location
	}
	return u.path
}

// element is one classpath element. Implementations are dirElement,
// jarElement and moduleElement.
type element interface {
	base() *elementBase
	// open prepares the element for scanning and schedules any child
	// elements it declares. Failure marks the element skipped rather
	// than failing the scan.
	open(ctx context.Context, q *workqueue.Queue[workUnit])
	// scanPaths walks the element's entries and publishes accepted
	// resources. Runs once, after every element is open.
	scanPaths(ctx context.Context) error
	// close releases per-element handles.
	close() error
}

// elementBase carries the state shared by all element kinds.
type elementBase struct {
	session    *session
	location   string
	moduleName string
	kind       Kind
	loader     string

	skip    atomic.Bool
	scanned atomic.Bool

	// packageRoot, when non-empty, confines the element to entries
	// under this prefix (stored with a trailing slash). Entries
	// outside it are invisible.
	packageRoot string
	// strippedRoots records automatic package roots (BOOT-INF/classes,
	// WEB-INF/classes) stripped from entry paths during the scan,
	// without trailing slash.
	strippedRoots map[string]bool
	// nestedRoots lists entry-path prefixes (with trailing slash)
	// that are scanned as separate classpath elements and must not be
	// walked again here.
	nestedRoots []string

	modified    time.Time
	resources   []*Resource
	descriptors []*Resource

	mu       sync.Mutex
	children []childRef
}

type childRef struct {
	order int
	el    element
}

func (b *elementBase) base() *elementBase { return b }

// markSkip drops the element from the scan and logs why. Skips
// caused by a failure warn, so a scan never comes back empty without
// a trace; deliberate skips (disabled kinds, filters) stay at debug.
func (b *elementBase) markSkip(reason string, err error) {
	b.skip.Store(true)
	if err != nil {
		b.session.logger.Warn("skipping classpath element",
			"path", b.location, "reason", reason, "error", err)
		return
	}
	b.session.logger.Debug("skipping classpath element",
		"path", b.location, "reason", reason)
}

// addChild links an element that this element's metadata declared.
func (b *elementBase) addChild(order int, el element) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.children = append(b.children, childRef{order: order, el: el})
}

// sortedChildren returns the children in scheduling order.
func (b *elementBase) sortedChildren() []element {
	b.mu.Lock()
	defer b.mu.Unlock()
	refs := make([]childRef, len(b.children))
	copy(refs, b.children)
	sort.Slice(refs, func(i, j int) bool { return refs[i].order < refs[j].order })
	els := make([]element, len(refs))
	for i, ref := range refs {
		els[i] = ref.el
	}
	return els
}

// underNestedRoot reports whether an entry path lies inside a nested
// classpath root that is scanned as its own element.
func (b *elementBase) underNestedRoot(entryPath string) bool {
	for _, root := range b.nestedRoots {
		if strings.HasPrefix(entryPath, root) {
			return true
		}
	}
	return false
}

// unavailable reports whether resources of this element can no longer
// be opened: the element was skipped or its session is closed.
func (b *elementBase) unavailable() bool {
	return b.skip.Load() || b.session.closed.Load()
}

func (b *elementBase) info() ElementInfo {
	return ElementInfo{
		Location:     b.location,
		Module:       b.moduleName,
		Kind:         b.kind,
		Skipped:      b.skip.Load(),
		LastModified: b.modified,
	}
}

// parentDirOf returns the directory portion of a relative entry path,
// "" for a root-level entry.
func parentDirOf(entryPath string) string {
	idx := strings.LastIndexByte(entryPath, '/')
	if idx < 0 {
		return ""
	}
	return entryPath[:idx]
}

// moduleDescriptor is the compiled module declaration at an element's
// root. It is reported as a descriptor, never as a resource.
const moduleDescriptor = "module-info.class"
