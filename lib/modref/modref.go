// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package modref enumerates modules on a module path and reads their
// resources. A module-path element is either a module itself (a
// modular or plain jar, or an exploded directory with a compiled
// module declaration at its root) or a directory of such modules.
// Plain jars become automatic modules named from their manifest or
// filename, following the module system's derivation rules.
package modref

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/zlataovce/classgraph/lib/jarfile"
)

// Ref locates one module found on the module path.
type Ref struct {
	// Name is the module's name: the Automatic-Module-Name manifest
	// value when present, otherwise derived from the jar filename
	// (or the directory name for exploded modules).
	Name string

	// Version is the version string parsed from the jar filename's
	// dash-version suffix, or "".
	Version string

	// Location is the filesystem path of the modular jar or the
	// exploded module directory.
	Location string

	exploded    bool
	javaVersion int
}

// String formats the ref for logs.
func (r Ref) String() string {
	if r.Version == "" {
		return r.Name + " (" + r.Location + ")"
	}
	return r.Name + "@" + r.Version + " (" + r.Location + ")"
}

// FindModules enumerates the modules reachable from the given module
// path. javaVersion selects multi-release masking inside jar-backed
// module readers. Unreadable or unnameable elements are skipped with
// a log entry; duplicate module names keep the first occurrence, in
// path order.
func FindModules(modulePath []string, javaVersion int, logger *slog.Logger) []Ref {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var refs []Ref
	seen := make(map[string]bool)
	add := func(ref Ref) {
		if ref.Name == "" {
			logger.Warn("skipping module with underivable name", "path", ref.Location)
			return
		}
		if seen[ref.Name] {
			logger.Debug("skipping duplicate module name", "module", ref.Name, "path", ref.Location)
			return
		}
		seen[ref.Name] = true
		refs = append(refs, ref)
	}

	for _, element := range modulePath {
		info, err := os.Stat(element)
		if err != nil {
			logger.Warn("skipping module path element", "path", element, "error", err)
			continue
		}
		switch {
		case info.IsDir() && isExplodedModule(element):
			add(explodedRef(element, javaVersion))
		case info.IsDir():
			children, err := os.ReadDir(element)
			if err != nil {
				logger.Warn("skipping unreadable module path element", "path", element, "error", err)
				continue
			}
			for _, child := range children {
				childPath := filepath.Join(element, child.Name())
				switch {
				case child.IsDir() && isExplodedModule(childPath):
					add(explodedRef(childPath, javaVersion))
				case !child.IsDir() && strings.HasSuffix(child.Name(), ".jar"):
					ref, err := jarRef(childPath, javaVersion)
					if err != nil {
						logger.Warn("skipping unreadable jar on module path", "path", childPath, "error", err)
						continue
					}
					add(ref)
				}
			}
		case strings.HasSuffix(element, ".jar"):
			ref, err := jarRef(element, javaVersion)
			if err != nil {
				logger.Warn("skipping unreadable jar on module path", "path", element, "error", err)
				continue
			}
			add(ref)
		default:
			logger.Warn("module path element is neither a directory nor a jar", "path", element)
		}
	}
	return refs
}

// isExplodedModule reports whether dir holds a compiled module
// declaration at its root.
func isExplodedModule(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "module-info.class"))
	return err == nil && info.Mode().IsRegular()
}

func explodedRef(dir string, javaVersion int) Ref {
	return Ref{
		Name:        sanitizeModuleName(filepath.Base(dir)),
		Location:    dir,
		exploded:    true,
		javaVersion: javaVersion,
	}
}

// jarRef classifies one jar on the module path, preferring the
// manifest's Automatic-Module-Name over filename derivation.
func jarRef(path string, javaVersion int) (Ref, error) {
	jar, err := jarfile.Open(path, javaVersion)
	if err != nil {
		return Ref{}, err
	}
	defer jar.Close()

	name, version := deriveNameVersion(filepath.Base(path))
	if manifestName := jar.AutomaticModuleName(); manifestName != "" {
		name = manifestName
	}
	return Ref{
		Name:        name,
		Version:     version,
		Location:    path,
		javaVersion: javaVersion,
	}, nil
}

// dashVersionPattern matches the start of a version suffix in a jar
// filename: a hyphen followed by digits that end the name or are
// followed by a dot ("lib-1.2.3", "lib-2").
var dashVersionPattern = regexp.MustCompile(`-(\d+(\.|$))`)

// deriveNameVersion applies the automatic-module-name rules to a jar
// filename: the ".jar" suffix is dropped, a trailing dash-version is
// split off, and remaining non-alphanumeric runs become single dots.
func deriveNameVersion(filename string) (name, version string) {
	base := strings.TrimSuffix(filename, ".jar")
	if loc := dashVersionPattern.FindStringIndex(base); loc != nil {
		version = base[loc[0]+1:]
		base = base[:loc[0]]
	}
	return sanitizeModuleName(base), version
}

// sanitizeModuleName maps non-alphanumeric runs to single dots and
// trims leading and trailing dots.
func sanitizeModuleName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingDot := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		alnum := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
		if !alnum {
			pendingDot = b.Len() > 0
			continue
		}
		if pendingDot {
			b.WriteByte('.')
			pendingDot = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
