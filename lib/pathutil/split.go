// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package pathutil

import (
	"os"
	"strings"
)

// knownSchemes are the URL schemes whose colons must survive a
// ':'-separated path-list split. "jar:file:/x" chains two of them.
var knownSchemes = map[string]bool{
	"jar":   true,
	"file":  true,
	"http":  true,
	"https": true,
}

// SplitPathList splits a classpath-style path list on the platform
// list separator, dropping empty entries. When the separator is ':'
// the split is aware of URL schemes and drive letters: the colons in
// "jar:file:/x.jar", "https://host/y.jar", and "C:/z" are part of
// their entries, not separators.
func SplitPathList(pathStr string) []string {
	return splitPathList(pathStr, byte(os.PathListSeparator))
}

func splitPathList(pathStr string, separator byte) []string {
	if pathStr == "" {
		return nil
	}
	if separator != ':' {
		return dropEmpty(strings.Split(pathStr, string(separator)))
	}
	var parts []string
	start := 0
	for i := 0; i < len(pathStr); i++ {
		if pathStr[i] != ':' {
			continue
		}
		if colonInsideEntry(pathStr, start, i) {
			continue
		}
		parts = append(parts, pathStr[start:i])
		start = i + 1
	}
	parts = append(parts, pathStr[start:])
	return dropEmpty(parts)
}

// colonInsideEntry reports whether the colon at index i belongs to the
// entry that started at segStart (a URL scheme or a drive letter)
// rather than acting as a list separator.
func colonInsideEntry(s string, segStart, i int) bool {
	// "scheme://" form: the colon introduces an authority.
	if i+2 < len(s) && s[i+1] == '/' && s[i+2] == '/' {
		return true
	}
	// Drive letter: a single letter opening the entry, followed by a
	// path separator ("C:/x" or "C:\x").
	if i == segStart+1 && isDriveLetter(s[segStart]) &&
		i+1 < len(s) && (s[i+1] == '/' || s[i+1] == '\\') {
		return true
	}
	// Known scheme at the start of the entry or chained after another
	// scheme's colon ("jar:file:/x" passes here twice).
	run := i
	for run > segStart && isAlpha(s[run-1]) {
		run--
	}
	if run == i {
		return false
	}
	if run != segStart && s[run-1] != ':' {
		return false
	}
	return knownSchemes[strings.ToLower(s[run:i])]
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func dropEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SplitNested splits a canonical path into its nesting chain:
// "outer.jar!/lib/inner.jar!/sub" becomes ["outer.jar",
// "lib/inner.jar", "sub"]. A path with no "!/" yields one segment.
func SplitNested(p string) []string {
	return strings.Split(p, "!/")
}

// JoinNested joins nesting-chain segments back into a canonical
// nested path, skipping empty segments.
func JoinNested(segments ...string) string {
	var b strings.Builder
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("!/")
		}
		b.WriteString(segment)
	}
	return b.String()
}
