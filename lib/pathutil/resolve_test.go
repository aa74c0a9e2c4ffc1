// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package pathutil

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		baseDir string
		input   string
		want    string
	}{
		{"empty", "/base", "", ""},
		{"absolute unchanged", "/base", "/a/b.jar", "/a/b.jar"},
		{"relative against base", "/base", "lib/b.jar", "/base/lib/b.jar"},
		{"relative no base", "", "lib/b.jar", "lib/b.jar"},
		{"trailing slash stripped", "/base", "/a/b/", "/a/b"},
		{"backslashes", "/base", "\\a\\b.jar", "/a/b.jar"},
		{"duplicate slashes", "/base", "/a//b///c", "/a/b/c"},
		{"dot segments", "/base", "/a/./b/../c", "/a/c"},
		{"relative dot segments", "/base", "./x/../y", "/base/y"},
		{"file scheme", "/base", "file:/a/b.jar", "/a/b.jar"},
		{"file scheme uppercase", "/base", "FILE:/a/b.jar", "/a/b.jar"},
		{"file triple slash", "/base", "file:///a/b.jar", "/a/b.jar"},
		{"file authority preserved", "/base", "file://host/share/b.jar", "//host/share/b.jar"},
		{"jar file scheme", "/base", "jar:file:/a/b.jar!/c.jar", "/a/b.jar!/c.jar"},
		{"percent decoding", "/base", "file:/a/b%20c.jar", "/a/b c.jar"},
		{"percent left alone without scheme", "/base", "/a/b%20c.jar", "/a/b%20c.jar"},
		{"bang without slash", "/base", "/a/b.jar!c.jar", "/a/b.jar!/c.jar"},
		{"bang with extra slashes", "/base", "/a/b.jar!//c/", "/a/b.jar!/c"},
		{"double bang collapses", "/base", "/a/b.jar!!/c", "/a/b.jar!/c"},
		{"trailing bang dropped", "/base", "/a/b.jar!", "/a/b.jar"},
		{"nested chain", "/base", "/a.jar!/b.jar!/c/d", "/a.jar!/b.jar!/c/d"},
		{"drive letter", "/base", "C:\\x\\y.jar", "C:/x/y.jar"},
		{"drive after file scheme", "/base", "file:///C:/x/y.jar", "C:/x/y.jar"},
		{"unc path", "/base", "//host/share/x.jar", "//host/share/x.jar"},
		{"remote url kept", "/base", "https://host/a.jar", "https://host/a.jar"},
		{"remote url nested", "/base", "https://host/a.jar!/b.jar", "https://host/a.jar!/b.jar"},
		{"remote url not decoded", "/base", "https://host/a%20b.jar", "https://host/a%20b.jar"},
		{"relative against remote base", "https://host/libs", "x.jar", "https://host/libs/x.jar"},
		{"relative against remote base slash", "https://host/libs/", "sub/x.jar", "https://host/libs/sub/x.jar"},
		{"absolute ignores remote base", "https://host/libs", "/a/x.jar", "/a/x.jar"},
		{"base with trailing slash", "/base/", "x.jar", "/base/x.jar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.baseDir, tt.input)
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.baseDir, tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	inputs := []string{
		"/a/b.jar!/c.jar",
		"C:/x/y.jar",
		"//host/share/x.jar",
		"https://host/a.jar!/b.jar",
		"/base/lib/x.jar",
	}
	for _, input := range inputs {
		once := Resolve("/base", input)
		twice := Resolve("/base", once)
		if once != twice {
			t.Errorf("Resolve not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://host/x", true},
		{"file:/x", true},
		{"jar:file:/x", true},
		{"custom+scheme:/x", true},
		{"C:/x", false},
		{"c:\\x", false},
		{"/a/b", false},
		{"relative/path", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.input); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestURLScheme(t *testing.T) {
	if got := URLScheme("HTTPS://host/x"); got != "https" {
		t.Errorf("URLScheme = %q, want %q", got, "https")
	}
	if got := URLScheme("/a/b"); got != "" {
		t.Errorf("URLScheme of plain path = %q, want empty", got)
	}
	if got := URLScheme("C:/x"); got != "" {
		t.Errorf("URLScheme of drive path = %q, want empty", got)
	}
}

func TestParentDir(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a/b/c", "a/b"},
		{"a", ""},
		{"/a", "/"},
		{"a/b.jar!/c", "a/b.jar"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParentDir(tt.input); got != tt.want {
			t.Errorf("ParentDir(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeEntryPath(t *testing.T) {
	tests := []struct {
		input              string
		removeInitialSlash bool
		removeFinalSlash   bool
		want               string
	}{
		{"a/b/c", true, true, "a/b/c"},
		{"/a/b/c", true, true, "a/b/c"},
		{"/a/b/c", false, true, "/a/b/c"},
		{"./a/b", true, true, "a/b"},
		{"a//b", true, true, "a/b"},
		{"a/b/", true, false, "a/b/"},
		{"a/b/", true, true, "a/b"},
		{"a\\b", true, true, "a/b"},
		{"../a", true, true, "a"},
		{"..", true, true, ""},
		{"a/../../b", true, true, "b"},
		{"", true, true, ""},
		{"/", true, true, ""},
	}
	for _, tt := range tests {
		got := SanitizeEntryPath(tt.input, tt.removeInitialSlash, tt.removeFinalSlash)
		if got != tt.want {
			t.Errorf("SanitizeEntryPath(%q, %v, %v) = %q, want %q",
				tt.input, tt.removeInitialSlash, tt.removeFinalSlash, got, tt.want)
		}
	}
}
