// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package classpath

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zlataovce/classgraph/lib/jreinfo"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func resolvedPaths(o *Order) []string {
	paths := make([]string, 0, len(o.Entries()))
	for _, e := range o.Entries() {
		paths = append(paths, e.Resolved)
	}
	return paths
}

func TestAddFirstWins(t *testing.T) {
	dir := t.TempDir()
	o := NewOrder(Config{WorkDir: dir})

	if !o.Add("a.jar", "app") {
		t.Error("first Add = false, want true")
	}
	if o.Add(dir+"/a.jar", "other") {
		t.Error("duplicate Add = true, want false")
	}
	if o.Add("", "app") {
		t.Error("empty Add = true, want false")
	}

	entries := o.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if want := dir + "/a.jar"; entries[0].Resolved != want {
		t.Errorf("Resolved = %q, want %q", entries[0].Resolved, want)
	}
	if entries[0].Loader != "app" {
		t.Errorf("Loader = %q, want the first adder's tag", entries[0].Loader)
	}
	if !o.Contains(dir + "/a.jar") {
		t.Error("Contains = false for an added path")
	}
}

func TestAddStripsAutomaticPackageRootSuffix(t *testing.T) {
	dir := t.TempDir()
	o := NewOrder(Config{WorkDir: dir})

	if !o.Add("app.jar!/BOOT-INF/classes", "app") {
		t.Fatal("Add = false")
	}
	if o.Add("app.jar", "app") {
		t.Error("plain form added after suffixed form, want duplicate")
	}
	if !o.Add("war.war!/WEB-INF/classes", "app") {
		t.Error("WEB-INF form not added")
	}

	want := []string{dir + "/app.jar", dir + "/war.war"}
	if got := resolvedPaths(o); !equalStrings(got, want) {
		t.Errorf("resolved = %v, want %v", got, want)
	}
	if raw := o.Entries()[0].Raw; raw != "app.jar!/BOOT-INF/classes" {
		t.Errorf("Raw = %q, want the unstripped input", raw)
	}
}

func TestAddPathList(t *testing.T) {
	dir := t.TempDir()
	o := NewOrder(Config{WorkDir: dir})

	sep := string(os.PathListSeparator)
	if !o.AddPathList("a.jar"+sep+"b"+sep+"a.jar", "env") {
		t.Error("AddPathList = false, want true")
	}
	if o.AddPathList("", "env") {
		t.Error("AddPathList(empty) = true, want false")
	}

	want := []string{dir + "/a.jar", dir + "/b"}
	if got := resolvedPaths(o); !equalStrings(got, want) {
		t.Errorf("resolved = %v, want %v", got, want)
	}
}

func TestWildcardExpansion(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir+"/x.jar")
	touch(t, dir+"/b.JAR")
	touch(t, dir+"/sub.war")
	touch(t, dir+"/note.txt")
	if err := os.Mkdir(dir+"/subdir", 0o755); err != nil {
		t.Fatal(err)
	}

	o := NewOrder(Config{WorkDir: dir})
	if !o.Add(dir+"/*", "app") {
		t.Fatal("wildcard Add = false, want true")
	}

	want := []string{dir + "/b.JAR", dir + "/sub.war", dir + "/x.jar"}
	if got := resolvedPaths(o); !equalStrings(got, want) {
		t.Errorf("resolved = %v, want archive children in name order %v", got, want)
	}
}

func TestWildcardExpandsWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir+"/only.jar")

	o := NewOrder(Config{WorkDir: dir})
	if !o.Add("*", "env") {
		t.Fatal("Add(*) = false, want true")
	}
	if got := resolvedPaths(o); !equalStrings(got, []string{dir + "/only.jar"}) {
		t.Errorf("resolved = %v", got)
	}
}

func TestWildcardRejectedElsewhere(t *testing.T) {
	dir := t.TempDir()
	o := NewOrder(Config{WorkDir: dir})

	if o.Add("foo*bar.jar", "app") {
		t.Error("mid-path wildcard accepted")
	}
	if o.Add(dir+"/absent/*", "app") {
		t.Error("wildcard on a missing directory accepted")
	}
	if len(o.Entries()) != 0 {
		t.Errorf("entries = %v, want none", o.Entries())
	}
}

func TestElementFilter(t *testing.T) {
	dir := t.TempDir()
	o := NewOrder(Config{
		WorkDir: dir,
		Filter: func(resolved string) bool {
			return !strings.Contains(resolved, "drop")
		},
	})

	if o.Add("drop-me.jar", "app") {
		t.Error("filtered element added")
	}
	if !o.Add("keep.jar", "app") {
		t.Error("unfiltered element not added")
	}
	if got := resolvedPaths(o); !equalStrings(got, []string{dir + "/keep.jar"}) {
		t.Errorf("resolved = %v", got)
	}
}

func TestJRESystemJarsRejected(t *testing.T) {
	home := t.TempDir()
	touch(t, home+"/lib/rt.jar")
	touch(t, home+"/lib/ext/sunjce.jar")
	touch(t, filepath.Join(home, "release"))
	jre := jreinfo.Detect(home, nil)

	dir := t.TempDir()
	touch(t, dir+"/app.jar")

	o := NewOrder(Config{WorkDir: dir, JRE: jre})
	if o.Add(home+"/lib/rt.jar", "system") {
		t.Error("rt.jar added, want rejected as a system jar")
	}
	if o.Add(home+"/lib/ext/sunjce.jar", "system") {
		t.Error("ext jar added, want rejected as a system jar")
	}
	if !o.Add(dir+"/app.jar", "app") {
		t.Error("application jar rejected")
	}

	// An override classpath scans whatever it names, system or not.
	override := NewOrder(Config{WorkDir: dir, JRE: jre, Override: true})
	if !override.Add(home+"/lib/rt.jar", "override") {
		t.Error("override order rejected rt.jar")
	}
}

func TestAddRemoteURL(t *testing.T) {
	o := NewOrder(Config{WorkDir: t.TempDir()})

	const url = "https://example.com/lib/remote.jar"
	if !o.Add(url, "app") {
		t.Fatal("remote URL not added")
	}
	if o.Add(url, "app") {
		t.Error("duplicate remote URL added")
	}
	if got := o.Entries()[0].Resolved; got != url {
		t.Errorf("Resolved = %q, want the URL kept with its scheme", got)
	}
}

func TestIsArchiveName(t *testing.T) {
	tests := map[string]bool{
		"a.jar":   true,
		"a.JAR":   true,
		"a.war":   true,
		"a.Ear":   true,
		"a.zip":   true,
		"a.txt":   false,
		".jar":    false,
		"jar":     false,
		"a.jarry": false,
	}
	for name, want := range tests {
		if got := isArchiveName(name); got != want {
			t.Errorf("isArchiveName(%q) = %v, want %v", name, got, want)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
