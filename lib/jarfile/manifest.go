// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package jarfile

import (
	"strings"
)

// manifestPath is the archive entry holding the jar manifest. Matched
// case-insensitively: the JAR File Specification mandates upper case
// but tooling in the wild disagrees.
const manifestPath = "META-INF/MANIFEST.MF"

// Manifest holds the main-section attributes the scanner consumes.
// Everything else in the manifest is ignored.
type Manifest struct {
	// ClassPath is the raw Class-Path value: a space-separated list
	// of additional search paths, relative to the jar's containing
	// directory (or containing archive, when nested).
	ClassPath string

	// BundleClassPath is the raw OSGi Bundle-ClassPath value: a
	// comma-separated list of paths relative to the jar's own root.
	BundleClassPath string

	// AutomaticModuleName is the Automatic-Module-Name value, used
	// as the module name for non-modular jars on the module path.
	AutomaticModuleName string

	// MultiRelease reports whether the jar declares
	// "Multi-Release: true", enabling META-INF/versions masking.
	MultiRelease bool

	// ImplementationTitle and SpecificationTitle identify JRE
	// runtime jars on legacy (pre-9) installations.
	ImplementationTitle string
	SpecificationTitle  string
}

// jreImplementationTitle and jreSpecificationTitle are the manifest
// values stamped into JRE runtime jars (rt.jar and friends).
const (
	jreImplementationTitle = "Java Runtime Environment"
	jreSpecificationTitle  = "Java Platform API Specification"
)

// jre reports whether the manifest identifies a JRE runtime jar.
func (m Manifest) jre() bool {
	return m.ImplementationTitle == jreImplementationTitle ||
		m.SpecificationTitle == jreSpecificationTitle
}

// parseManifest extracts the consumed attributes from raw manifest
// bytes. Manifest lines are wrapped at 72 bytes with a continuation
// marked by a single leading space; continuations are joined without
// a separator. Only the main section (up to the first blank line) is
// read, and unknown keys are skipped.
func parseManifest(data []byte) Manifest {
	var m Manifest

	var key, value strings.Builder
	flush := func() {
		if key.Len() > 0 {
			m.set(key.String(), value.String())
		}
		key.Reset()
		value.Reset()
	}

	rest := string(data)
	for len(rest) > 0 {
		var line string
		line, rest = cutLine(rest)
		switch {
		case line == "":
			// Blank line ends the main attributes section.
			flush()
			return m
		case line[0] == ' ':
			// Continuation of the previous value.
			value.WriteString(line[1:])
		default:
			flush()
			name, val, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			key.WriteString(name)
			value.WriteString(strings.TrimPrefix(val, " "))
		}
	}
	flush()
	return m
}

// set records a parsed attribute if it is one the scanner consumes.
// Attribute names are case-insensitive.
func (m *Manifest) set(key, value string) {
	value = strings.TrimRight(value, " ")
	switch {
	case strings.EqualFold(key, "Class-Path"):
		m.ClassPath = value
	case strings.EqualFold(key, "Bundle-ClassPath"):
		m.BundleClassPath = value
	case strings.EqualFold(key, "Automatic-Module-Name"):
		m.AutomaticModuleName = value
	case strings.EqualFold(key, "Multi-Release"):
		m.MultiRelease = strings.EqualFold(value, "true")
	case strings.EqualFold(key, "Implementation-Title"):
		m.ImplementationTitle = value
	case strings.EqualFold(key, "Specification-Title"):
		m.SpecificationTitle = value
	}
}

// cutLine splits off the first line, consuming CRLF, LF, or bare CR
// terminators.
func cutLine(s string) (line, rest string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			return s[:i], s[i+1:]
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				return s[:i], s[i+2:]
			}
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// splitClassPath splits a raw Class-Path value into entries, skipping
// empty tokens from repeated spaces.
func splitClassPath(value string) []string {
	if value == "" {
		return nil
	}
	var entries []string
	for _, token := range strings.Split(value, " ") {
		if token != "" {
			entries = append(entries, token)
		}
	}
	return entries
}

// splitBundleClassPath splits a raw Bundle-ClassPath value into
// entries. Leading slashes are stripped (bundle paths are relative to
// the jar root) and the "." self-reference is dropped: child entries
// are always scheduled after their parent, so its position carries no
// information.
func splitBundleClassPath(value string) []string {
	if value == "" {
		return nil
	}
	var entries []string
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		for strings.HasPrefix(token, "/") {
			token = token[1:]
		}
		if token != "" && token != "." {
			entries = append(entries, token)
		}
	}
	return entries
}
