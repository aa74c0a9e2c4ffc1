// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package classpath builds the ordered, deduplicated list of
// search-path entries a scan session starts from.
//
// Entries arrive as raw strings (filesystem paths, file: or jar:file:
// URLs, remote http(s) URLs, or whole platform path lists) and are
// canonicalized through pathutil before ordering. The first
// occurrence of a resolved path wins; later duplicates are dropped
// and insertion order is the authoritative scan priority order. A
// trailing "/*" expands to the directory's immediate archive
// children, the way JDK classpath wildcards do.
package classpath

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zlataovce/classgraph/lib/jarfile"
	"github.com/zlataovce/classgraph/lib/jreinfo"
	"github.com/zlataovce/classgraph/lib/pathutil"
)

// automaticPackageRootSuffixes are the nested-path suffixes stripped
// from added entries before deduplication: "app.jar!/BOOT-INF/classes"
// and "app.jar" must dedup to one entry, since automatic package roots
// are rediscovered while scanning the jar itself.
var automaticPackageRootSuffixes = func() []string {
	suffixes := make([]string, 0, len(jarfile.AutomaticPackageRootPrefixes))
	for _, prefix := range jarfile.AutomaticPackageRootPrefixes {
		suffixes = append(suffixes, "!/"+strings.TrimSuffix(prefix, "/"))
	}
	return suffixes
}()

// archiveSuffixes are the extensions wildcard expansion treats as
// archive children.
var archiveSuffixes = []string{".jar", ".war", ".ear", ".zip"}

// ElementFilter lets a caller drop search-path elements before they
// are scheduled. It receives the canonical resolved path and reports
// whether the element should be kept. A nil filter keeps everything.
type ElementFilter func(resolvedPath string) bool

// Entry is one resolved search-path element.
type Entry struct {
	// Raw is the element as it was handed to Add, before resolution.
	Raw string

	// Loader tags the source loader the element came from.
	Loader string

	// Resolved is the canonical path, unique within an Order.
	Resolved string
}

// Config configures an Order.
type Config struct {
	// Filter drops elements by resolved path. Nil keeps everything.
	Filter ElementFilter

	// JRE classifies the runtime's own archives. When set and Override
	// is false, entries naming a JRE lib or ext jar (or rt.jar) are
	// dropped: system jars handed over by environment classpaths are
	// not application entries.
	JRE *jreinfo.Table

	// Override marks the order as built from an override classpath,
	// which disables the JRE system-jar rejection.
	Override bool

	// WorkDir anchors relative entries. Empty means the process
	// working directory.
	WorkDir string

	Logger *slog.Logger
}

// Order accumulates search-path entries in first-seen order with
// duplicates dropped. It is not safe for concurrent use: entries are
// added during single-threaded discovery before scanning starts.
type Order struct {
	filter   ElementFilter
	jre      *jreinfo.Table
	override bool
	workDir  string
	logger   *slog.Logger

	seen    map[string]bool
	entries []Entry
}

// NewOrder returns an empty Order.
func NewOrder(cfg Config) *Order {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workDir = filepath.ToSlash(wd)
		}
	}
	return &Order{
		filter:   cfg.Filter,
		jre:      cfg.JRE,
		override: cfg.Override,
		workDir:  workDir,
		logger:   logger,
		seen:     make(map[string]bool),
	}
}

// Add resolves one raw search-path element and appends it unless it
// is a duplicate, dropped by the filter, or a JRE system jar. A
// trailing "/*" expands to the directory's immediate archive children
// ("*" alone expands the working directory); a "*" anywhere else in
// the path rejects the entry. Reports whether at least one entry was
// appended.
func (o *Order) Add(raw, loader string) bool {
	resolved := pathutil.Resolve(o.workDir, raw)
	if resolved == "" {
		return false
	}
	if base, ok := strings.CutSuffix(resolved, "/*"); ok {
		return o.expandWildcard(raw, base, loader)
	}
	if resolved == "*" {
		return o.expandWildcard(raw, o.workDir, loader)
	}
	if strings.Contains(resolved, "*") {
		o.logger.Warn("wildcard only allowed as a trailing /* segment", "path", raw)
		return false
	}
	return o.add(raw, resolved, loader)
}

// AddPathList splits a platform path-list string and adds each
// element. Reports whether any element was appended.
func (o *Order) AddPathList(pathStr, loader string) bool {
	added := false
	for _, element := range pathutil.SplitPathList(pathStr) {
		if o.Add(element, loader) {
			added = true
		}
	}
	return added
}

// add records a resolved element, stripping automatic package-root
// suffixes first so the suffixed and plain forms of a jar dedup to
// one entry.
func (o *Order) add(raw, resolved, loader string) bool {
	for _, suffix := range automaticPackageRootSuffixes {
		if base, ok := strings.CutSuffix(resolved, suffix); ok {
			resolved = base
			break
		}
	}
	if o.filter != nil && !o.filter(resolved) {
		o.logger.Debug("classpath element dropped by filter", "path", resolved)
		return false
	}
	if !o.override && o.jre != nil && o.jre.IsSystemJar(resolved) {
		o.logger.Debug("ignoring jre system jar", "path", resolved)
		return false
	}
	if o.seen[resolved] {
		o.logger.Debug("ignoring duplicate classpath element", "path", resolved)
		return false
	}
	o.seen[resolved] = true
	o.entries = append(o.entries, Entry{Raw: raw, Loader: loader, Resolved: resolved})
	o.logger.Debug("found classpath element", "path", resolved, "loader", loader)
	return true
}

// expandWildcard adds every immediate archive child of dir, in name
// order.
func (o *Order) expandWildcard(raw, dir, loader string) bool {
	if dir == "" {
		o.logger.Warn("wildcard entry has no base directory", "path", raw)
		return false
	}
	children, err := os.ReadDir(dir)
	if err != nil {
		o.logger.Warn("cannot expand wildcard classpath element", "path", raw, "error", err)
		return false
	}
	added := false
	for _, child := range children {
		if child.IsDir() || !isArchiveName(child.Name()) {
			continue
		}
		childPath := dir + "/" + child.Name()
		if o.add(childPath, childPath, loader) {
			added = true
		}
	}
	return added
}

// Entries returns the accumulated entries in scan priority order. The
// returned slice is shared; callers must not modify it.
func (o *Order) Entries() []Entry { return o.entries }

// Contains reports whether a canonical resolved path is already in
// the order.
func (o *Order) Contains(resolved string) bool { return o.seen[resolved] }

// isArchiveName reports whether a file name carries one of the
// archive extensions, matched case-insensitively.
func isArchiveName(name string) bool {
	for _, suffix := range archiveSuffixes {
		if len(name) > len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
			return true
		}
	}
	return false
}
