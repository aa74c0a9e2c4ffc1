// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package acceptreject classifies scanned paths against accepted and
// rejected path prefixes. Scanners consult it for every entry they
// walk, and for whole directory subtrees so rejected subtrees can be
// pruned without visiting their contents.
//
// Patterns are slash-separated relative paths without leading or
// trailing slashes ("com/example"). A pattern matches its own path
// and everything below it. An empty accept list accepts everything
// that is not rejected; reject always wins over accept. A built
// Filter is immutable and safe for concurrent use.
package acceptreject

import (
	"strings"

	radix "github.com/armon/go-radix"
)

// DirMatch classifies a directory against the filter, in the order a
// scanner should act on: prune, emit, descend, or skip.
type DirMatch int

const (
	// DirOutside: the directory is unrelated to any accepted path.
	// There is nothing to find below it.
	DirOutside DirMatch = iota

	// DirAtAccepted: the directory is itself an accepted path.
	DirAtAccepted

	// DirHasAcceptedPrefix: the directory is strictly inside an
	// accepted subtree.
	DirHasAcceptedPrefix

	// DirAncestorOfAccepted: an accepted path lies somewhere below
	// this directory. Descend, but do not emit entries at this level.
	DirAncestorOfAccepted

	// DirHasRejectedPrefix: the directory is at or inside a rejected
	// subtree. Prune it.
	DirHasRejectedPrefix
)

// String returns the classification name for logging.
func (m DirMatch) String() string {
	switch m {
	case DirAtAccepted:
		return "at-accepted"
	case DirHasAcceptedPrefix:
		return "has-accepted-prefix"
	case DirAncestorOfAccepted:
		return "ancestor-of-accepted"
	case DirHasRejectedPrefix:
		return "has-rejected-prefix"
	default:
		return "outside"
	}
}

// Filter classifies paths against accept and reject pattern sets.
type Filter struct {
	acceptAll    bool
	acceptExact  map[string]bool
	rejectExact  map[string]bool
	acceptPrefix *radix.Tree
	rejectPrefix *radix.Tree
}

// New builds a Filter from accept and reject patterns. Patterns are
// normalized (slashes trimmed); empty patterns are dropped. A nil or
// empty accept list accepts every path not rejected.
func New(accept, reject []string) *Filter {
	f := &Filter{
		acceptExact:  make(map[string]bool),
		rejectExact:  make(map[string]bool),
		acceptPrefix: radix.New(),
		rejectPrefix: radix.New(),
	}
	for _, pattern := range accept {
		if p := strings.Trim(pattern, "/"); p != "" {
			f.acceptExact[p] = true
			f.acceptPrefix.Insert(p+"/", true)
		}
	}
	for _, pattern := range reject {
		if p := strings.Trim(pattern, "/"); p != "" {
			f.rejectExact[p] = true
			f.rejectPrefix.Insert(p+"/", true)
		}
	}
	f.acceptAll = len(f.acceptExact) == 0
	return f
}

// Path reports whether a relative file path is accepted: under (or
// at) an accepted pattern and not under a rejected one.
func (f *Filter) Path(relPath string) bool {
	relPath = strings.Trim(relPath, "/")
	if f.rejected(relPath) {
		return false
	}
	if f.acceptAll {
		return true
	}
	if f.acceptExact[relPath] {
		return true
	}
	_, _, ok := f.acceptPrefix.LongestPrefix(relPath)
	return ok
}

// DirStatus classifies a directory path. The root directory is the
// empty string.
func (f *Filter) DirStatus(dirRelPath string) DirMatch {
	dir := strings.Trim(dirRelPath, "/")
	if f.rejected(dir) {
		return DirHasRejectedPrefix
	}
	if f.acceptAll {
		return DirHasAcceptedPrefix
	}
	if f.acceptExact[dir] {
		return DirAtAccepted
	}
	prefixed := dir + "/"
	if dir == "" {
		prefixed = ""
	}
	if dir != "" {
		if _, _, ok := f.acceptPrefix.LongestPrefix(prefixed); ok {
			return DirHasAcceptedPrefix
		}
	}
	// Ancestor check: any accepted pattern strictly below this
	// directory.
	ancestor := false
	f.acceptPrefix.WalkPrefix(prefixed, func(string, interface{}) bool {
		ancestor = true
		return true
	})
	if ancestor {
		return DirAncestorOfAccepted
	}
	return DirOutside
}

// Rejected reports whether a relative path is at or under a rejected
// pattern, regardless of whether it is accepted. Paths that are merely
// outside every accept pattern are not rejected.
func (f *Filter) Rejected(relPath string) bool {
	return f.rejected(strings.Trim(relPath, "/"))
}

// rejected reports whether the path is at or under a rejected
// pattern.
func (f *Filter) rejected(relPath string) bool {
	if len(f.rejectExact) == 0 {
		return false
	}
	if f.rejectExact[relPath] {
		return true
	}
	_, _, ok := f.rejectPrefix.LongestPrefix(relPath)
	return ok
}

// Empty reports whether the filter has no patterns at all, meaning
// every path passes.
func (f *Filter) Empty() bool {
	return f.acceptAll && len(f.rejectExact) == 0
}
