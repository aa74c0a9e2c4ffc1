// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package jreinfo probes a Java installation and produces a static
// lookup table of its system archives. The classpath layer uses the
// table to recognize JRE-internal jars (rt.jar, lib/*.jar, ext jars)
// handed to it by environment-derived classpaths, so they are not
// rescanned as ordinary application entries.
//
// Detection runs once per scan session. A missing or unrecognizable
// installation is not an error — the table is simply empty and
// classifies nothing as a system jar.
package jreinfo

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/zlataovce/classgraph/lib/pathutil"
)

// Table is the read-only result of probing a Java installation.
type Table struct {
	javaHome     string
	rtJarPath    string
	libOrExtJars []string
	libOrExtSet  map[string]bool
	hasModules   bool
	majorVersion int
}

// Detect probes the Java installation at javaHome. An empty javaHome
// falls back to the JAVA_HOME environment variable; if that is unset
// too, the returned table is empty. Detection reads directory
// listings and the installation's release file; nothing is opened
// beyond that.
func Detect(javaHome string, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if javaHome == "" {
		javaHome = os.Getenv("JAVA_HOME")
	}
	if javaHome == "" {
		return &Table{libOrExtSet: map[string]bool{}}
	}
	t := detectFrom(javaHome)
	logger.Debug("detected java installation",
		"java_home", t.javaHome,
		"major_version", t.majorVersion,
		"modular", t.hasModules,
		"system_jars", len(t.libOrExtJars),
	)
	return t
}

// detectFrom is the testable implementation of Detect: it probes the
// given installation root directly.
func detectFrom(javaHome string) *Table {
	home := pathutil.Resolve("", filepath.ToSlash(javaHome))
	t := &Table{
		javaHome:    home,
		libOrExtSet: map[string]bool{},
	}

	// A java.home of the pre-9 "jdk/jre" form also exposes the JDK's
	// own lib directory one level up.
	roots := []string{home}
	if filepath.Base(home) == "jre" {
		roots = append(roots, pathutil.ParentDir(home))
	} else if isDir(filepath.Join(home, "jre")) {
		roots = append(roots, home+"/jre")
	}

	for _, root := range roots {
		for _, libDir := range []string{root + "/lib", root + "/lib/ext"} {
			t.collectJars(libDir)
		}
		if rt := root + "/lib/rt.jar"; t.rtJarPath == "" && isFile(rt) {
			t.rtJarPath = rt
		}
		if isDir(root+"/jmods") || isFile(root+"/lib/jrt-fs.jar") {
			t.hasModules = true
		}
	}
	sort.Strings(t.libOrExtJars)
	t.majorVersion = readReleaseVersion(home + "/release")
	return t
}

// collectJars records every *.jar directly inside dir as a system jar.
func (t *Table) collectJars(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jar") {
			continue
		}
		p := dir + "/" + entry.Name()
		if !t.libOrExtSet[p] {
			t.libOrExtSet[p] = true
			t.libOrExtJars = append(t.libOrExtJars, p)
		}
	}
}

// JavaHome returns the canonical installation root, or "" when no
// installation was found.
func (t *Table) JavaHome() string { return t.javaHome }

// RtJarPath returns the path of a pre-9 installation's rt.jar, or ""
// for modular installations.
func (t *Table) RtJarPath() string { return t.rtJarPath }

// HasModuleSystem reports whether the installation ships packaged
// modules instead of classpath jars.
func (t *Table) HasModuleSystem() bool { return t.hasModules }

// JavaMajorVersion returns the installation's major version parsed
// from its release file, or 0 when unknown.
func (t *Table) JavaMajorVersion() int { return t.majorVersion }

// LibOrExtJars returns the sorted canonical paths of the
// installation's lib and ext jars.
func (t *Table) LibOrExtJars() []string { return t.libOrExtJars }

// IsSystemJar reports whether a canonical path names one of the
// installation's own archives (rt.jar or a lib/ext jar).
func (t *Table) IsSystemJar(resolvedPath string) bool {
	if resolvedPath == "" {
		return false
	}
	if resolvedPath == t.rtJarPath && t.rtJarPath != "" {
		return true
	}
	return t.libOrExtSet[resolvedPath]
}

// readReleaseVersion parses the JAVA_VERSION line of an
// installation's release file into a major version number.
// "1.8.0_292" parses as 8, "17.0.1" as 17.
func readReleaseVersion(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		value, ok := strings.CutPrefix(line, "JAVA_VERSION=")
		if !ok {
			continue
		}
		return parseMajorVersion(strings.Trim(value, `"`))
	}
	return 0
}

// parseMajorVersion extracts the major version from a Java version
// string, honoring the legacy "1.x" scheme.
func parseMajorVersion(version string) int {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) == 0 || parts[0] == "" {
		return 0
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	if major == 1 && len(parts) > 1 {
		// "1.8.0_292" style: the second component is the version.
		if minor, err := strconv.Atoi(strings.SplitN(parts[1], "_", 2)[0]); err == nil {
			return minor
		}
		return 0
	}
	return major
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
