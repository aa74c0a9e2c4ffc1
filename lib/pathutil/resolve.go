// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package pathutil

import (
	"path"
	"regexp"
	"strings"
)

// schemePattern matches URL scheme prefixes. The scheme must be at
// least two characters long: a single letter followed by a colon is a
// Windows drive letter, not a scheme.
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z+\-.]+:`)

// IsURL reports whether the string starts with a URL scheme prefix
// ("file:", "https:", "jar:file:"). Single-letter prefixes such as
// "C:" are treated as drive letters, not schemes.
func IsURL(s string) bool {
	return schemePattern.MatchString(s)
}

// URLScheme returns the lowercased scheme of a URL-like string,
// without the trailing colon, or "" when the string has no scheme.
func URLScheme(s string) string {
	m := schemePattern.FindString(s)
	if m == "" {
		return ""
	}
	return strings.ToLower(m[:len(m)-1])
}

// Resolve normalizes a raw search-path string into canonical form,
// resolving it against baseDir when it is relative. The canonical
// form uses forward slashes, has no trailing slash, separates nested
// archive levels with "!/", and has "file:" / "jar:file:" prefixes
// stripped (with %-escapes decoded). Remote URLs (any scheme other
// than "jar" and "file") keep their scheme and are only lightly
// normalized, since their path component belongs to the server.
//
// Windows drive-letter roots ("C:/x") and UNC prefixes ("//host/share")
// are preserved. An empty input resolves to "".
func Resolve(baseDir, relativePath string) string {
	if relativePath == "" {
		return ""
	}
	p := strings.ReplaceAll(relativePath, "\\", "/")

	if scheme := URLScheme(p); scheme != "" && scheme != "jar" && scheme != "file" {
		return resolveRemote(p)
	}
	// A relative path against a remote base stays remote. Joining by
	// hand keeps the base's "//" intact, which path.Clean would fold.
	if scheme := URLScheme(baseDir); scheme != "" && scheme != "jar" && scheme != "file" && !isAbsolute(p) {
		return resolveRemote(strings.TrimSuffix(baseDir, "/") + "/" + p)
	}

	// Strip local access schemes. "jar:file:/x!/y" needs two rounds.
	stripped := false
	for {
		if rest, ok := foldPrefix(p, "jar:"); ok {
			p, stripped = rest, true
			continue
		}
		if rest, ok := foldPrefix(p, "file:"); ok {
			// "file:///x" is an empty authority: collapse to "/x".
			// "file://host/x" keeps the host as a UNC-style prefix.
			if strings.HasPrefix(rest, "///") {
				rest = rest[2:]
			}
			p, stripped = rest, true
			continue
		}
		break
	}
	if stripped {
		p = strings.ReplaceAll(decodePercent(p), "\\", "/")
	}

	segments := strings.Split(p, "!")
	root := cleanRoot(segments[0])
	if !isAbsolute(root) && baseDir != "" {
		root = cleanRoot(strings.TrimSuffix(baseDir, "/") + "/" + root)
	}
	out := root
	for _, segment := range segments[1:] {
		if cleaned := cleanNested(segment); cleaned != "" {
			out += "!/" + cleaned
		}
	}
	return out
}

// resolveRemote normalizes a URL that keeps its scheme: backslashes
// are already converted by the caller, nested-archive separators are
// canonicalized, and a trailing slash is dropped. The URL's own path
// component is left encoded and un-collapsed.
func resolveRemote(p string) string {
	segments := strings.Split(p, "!")
	out := strings.TrimSuffix(segments[0], "/")
	for _, segment := range segments[1:] {
		if cleaned := cleanNested(segment); cleaned != "" {
			out += "!/" + cleaned
		}
	}
	return out
}

// cleanRoot canonicalizes the outermost path segment: collapses "."
// and ".." and duplicate slashes, preserves a "//host" UNC prefix,
// and strips the spurious leading slash that "file:///C:/x" leaves
// in front of a drive letter.
func cleanRoot(s string) string {
	if s == "" {
		return ""
	}
	unc := strings.HasPrefix(s, "//") && !strings.HasPrefix(s, "///")
	c := path.Clean(s)
	if c == "." {
		return ""
	}
	if unc && !strings.HasPrefix(c, "//") {
		c = "/" + c
	}
	if len(c) >= 3 && c[0] == '/' && isDriveLetter(c[1]) && c[2] == ':' {
		c = c[1:]
	}
	return c
}

// cleanNested canonicalizes an in-archive segment: no leading or
// trailing slash, "." and ".." collapsed. Empty segments (from "!!"
// or a trailing "!") dissolve.
func cleanNested(s string) string {
	s = strings.Trim(s, "/")
	if s == "" {
		return ""
	}
	c := path.Clean(s)
	if c == "." || c == "/" {
		return ""
	}
	return strings.TrimPrefix(c, "/")
}

// isAbsolute reports whether a cleaned root segment is already
// anchored: rooted at "/", at a drive letter, or at a UNC host.
func isAbsolute(s string) bool {
	if strings.HasPrefix(s, "/") {
		return true
	}
	return len(s) >= 2 && isDriveLetter(s[0]) && s[1] == ':'
}

func isDriveLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// foldPrefix strips an ASCII case-insensitive prefix, reporting
// whether it was present.
func foldPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) {
		return s, false
	}
	if !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// decodePercent decodes %XX escapes in place. Malformed escapes are
// passed through untouched rather than rejected: the string is a
// filesystem path by the time this runs, not a URL.
func decodePercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, lo := unhex(s[i+1]), unhex(s[i+2])
			if hi >= 0 && lo >= 0 {
				b.WriteByte(byte(hi<<4 | lo))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// ParentDir returns the path up to the final slash, or "" when the
// path has no parent. The parent of a root-level path is "/".
func ParentDir(p string) string {
	idx := strings.LastIndex(p, "/")
	switch {
	case idx < 0:
		return ""
	case idx == 0:
		return "/"
	}
	return strings.TrimSuffix(p[:idx], "!")
}

// SanitizeEntryPath normalizes a path read out of an archive's entry
// table: backslashes become slashes, "./" segments and duplicate
// slashes collapse, and the leading and final slash are optionally
// removed. Archive entry tables are attacker-controlled input, so
// ".." segments are collapsed too rather than allowed to escape the
// entry namespace.
func SanitizeEntryPath(p string, removeInitialSlash, removeFinalSlash bool) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	hadFinalSlash := strings.HasSuffix(p, "/")
	c := path.Clean(p)
	if c == "." || c == "/" {
		return ""
	}
	// Clean collapses rooted ".." escapes; strip any that survive in
	// relative form.
	for strings.HasPrefix(c, "../") {
		c = c[3:]
	}
	if c == ".." {
		return ""
	}
	if removeInitialSlash {
		c = strings.TrimPrefix(c, "/")
	}
	if !removeFinalSlash && hadFinalSlash {
		c += "/"
	}
	return c
}
