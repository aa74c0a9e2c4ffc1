// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"log/slog"
	"net/http"
	"runtime"

	"github.com/zlataovce/classgraph/lib/classpath"
)

// Options configures a scan. The zero value scans the CLASSPATH
// environment variable with every element kind enabled and no path
// filtering.
type Options struct {
	// OverrideClasspath replaces classpath discovery entirely: only
	// these entries are scanned, and JRE system jars are not filtered
	// out of them.
	OverrideClasspath []string
	// Classpath adds entries ahead of the CLASSPATH environment
	// variable. Ignored when OverrideClasspath is set.
	Classpath []string
	// ModulePath lists module-path entries: modular or automatic
	// jars, exploded module directories, or directories containing
	// modules.
	ModulePath []string

	// Accept and Reject are path patterns (package roots or exact
	// file paths, slash-separated) selecting which resource paths the
	// scan reports. An empty Accept list accepts everything not
	// rejected.
	Accept []string
	Reject []string
	// ElementFilter, when set, drops classpath elements whose
	// resolved path it returns false for. Module-path entries are not
	// filtered.
	ElementFilter classpath.ElementFilter

	// SkipDirs, SkipJars and SkipModules disable scanning of that
	// element kind. SkipNestedJars disables automatic discovery of
	// jars in lib directories inside other jars; explicitly named
	// nested jars are still scanned.
	SkipDirs       bool
	SkipJars       bool
	SkipModules    bool
	SkipNestedJars bool

	// JavaVersion selects which multi-release jar version directories
	// apply. Zero means the detected JRE's version, falling back to
	// jarfile.DefaultJavaVersion. DisableMultiRelease ignores version
	// directories entirely.
	JavaVersion         int
	DisableMultiRelease bool
	// JavaHome overrides JRE detection, which supplies the system-jar
	// filter and the default JavaVersion.
	JavaHome string

	// Workers caps scan parallelism. Zero picks a default from the
	// CPU count.
	Workers int
	// WorkDir is the base directory for resolving relative classpath
	// entries. Empty means the process working directory.
	WorkDir string
	// TempDir receives nested jars that have to be extracted to disk.
	// Empty means the system temp directory.
	TempDir string
	// MaxInMemory is the largest nested jar held in memory rather
	// than extracted to TempDir. Zero means 64 MiB.
	MaxInMemory int64
	// HTTPClient fetches remote (http/https) classpath elements. Nil
	// means a client with a request timeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// workers resolves the worker count, clamping the CPU-derived default
// to keep small machines responsive and big ones from thrashing the
// open-file budget.
func (o *Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	n := runtime.NumCPU()
	if n < 2 {
		n = 2
	}
	if n > 16 {
		n = 16
	}
	return n
}
