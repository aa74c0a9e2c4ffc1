// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scanprofile

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zlataovce/classgraph/lib/scan"
)

func boolPtr(value bool) *bool {
	return &value
}

func TestParse(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		// Spring Boot fat jar layout.
		"classpath": ["app.jar"],
		"module_path": ["mods"],
		"accept": ["com/example"],
		"reject": ["com/example/internal"],
		"scan_dirs": false,
		"scan_nested_jars": true,
		/* pin the release directory */
		"java_version": 17, // trailing comma below is fine
	}`)

	profile, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got, want := profile.Classpath, []string{"app.jar"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Classpath = %v, want %v", got, want)
	}
	if got, want := profile.ModulePath, []string{"mods"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ModulePath = %v, want %v", got, want)
	}
	if got, want := profile.Accept, []string{"com/example"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Accept = %v, want %v", got, want)
	}
	if got, want := profile.Reject, []string{"com/example/internal"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reject = %v, want %v", got, want)
	}
	if profile.ScanDirs == nil || *profile.ScanDirs {
		t.Errorf("ScanDirs = %v, want false", profile.ScanDirs)
	}
	if profile.ScanNestedJars == nil || !*profile.ScanNestedJars {
		t.Errorf("ScanNestedJars = %v, want true", profile.ScanNestedJars)
	}
	if profile.ScanJars != nil {
		t.Errorf("ScanJars = %v, want nil (not stated)", *profile.ScanJars)
	}
	if got, want := profile.JavaVersion, 17; got != want {
		t.Errorf("JavaVersion = %d, want %d", got, want)
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"classpath": [`))
	if err == nil {
		t.Fatal("Parse accepted malformed input")
	}
	if !strings.Contains(err.Error(), "parsing profile") {
		t.Errorf("error = %q, want mention of parsing profile", err)
	}
}

func TestParseWrongType(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"classpath": "not-a-list"}`))
	if err == nil {
		t.Fatal("Parse accepted classpath of wrong type")
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scan.jsonc")
	content := []byte(`{
		// Only the public API packages.
		"accept": ["org/acme/api"],
		"scan_modules": false,
	}`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	profile, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got, want := profile.Accept, []string{"org/acme/api"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Accept = %v, want %v", got, want)
	}
	if profile.ScanModules == nil || *profile.ScanModules {
		t.Errorf("ScanModules = %v, want false", profile.ScanModules)
	}
}

func TestReadFileMissing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.jsonc")
	_, err := ReadFile(path)
	if err == nil {
		t.Fatal("ReadFile succeeded on a missing file")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error = %q, want the file path included", err)
	}
}

func TestReadFileMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.jsonc")
	if err := os.WriteFile(path, []byte(`{"accept": }`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadFile(path)
	if err == nil {
		t.Fatal("ReadFile accepted malformed input")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error = %q, want the file path included", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		profile        *Profile
		expectedIssues int
		wantSubstrings []string
	}{
		{
			name:           "empty profile",
			profile:        &Profile{},
			expectedIssues: 0,
		},
		{
			name: "valid full profile",
			profile: &Profile{
				Classpath:          []string{"app.jar", "libs"},
				ModulePath:         []string{"mods"},
				Accept:             []string{"com/example"},
				Reject:             []string{"com/example/internal"},
				ScanDirs:           boolPtr(false),
				EnableMultiRelease: boolPtr(true),
				JavaVersion:        21,
			},
			expectedIssues: 0,
		},
		{
			name: "override and classpath together",
			profile: &Profile{
				OverrideClasspath: []string{"a.jar"},
				Classpath:         []string{"b.jar"},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"mutually exclusive"},
		},
		{
			name: "empty classpath entry",
			profile: &Profile{
				Classpath: []string{"a.jar", "  "},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"classpath[1]"},
		},
		{
			name: "empty override entry",
			profile: &Profile{
				OverrideClasspath: []string{""},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"override_classpath[0]"},
		},
		{
			name: "empty module path entry",
			profile: &Profile{
				ModulePath: []string{"mods", ""},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"module_path[1]"},
		},
		{
			name: "empty accept pattern",
			profile: &Profile{
				Accept: []string{"/"},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"accept[0]", "empty"},
		},
		{
			name: "bang in reject pattern",
			profile: &Profile{
				Reject: []string{"app.jar!/com/example"},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"reject[0]", "must not contain"},
		},
		{
			name: "backslash in accept pattern",
			profile: &Profile{
				Accept: []string{`com\example`},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"forward slashes"},
		},
		{
			name: "negative java version",
			profile: &Profile{
				JavaVersion: -1,
			},
			expectedIssues: 1,
			wantSubstrings: []string{"java_version"},
		},
		{
			name: "multiple issues",
			profile: &Profile{
				OverrideClasspath: []string{"a.jar"},
				Classpath:         []string{""},
				Accept:            []string{"bad!pattern"},
				JavaVersion:       -5,
			},
			// mutually exclusive, empty classpath entry, bang pattern,
			// negative version
			expectedIssues: 4,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			issues := Validate(testCase.profile)
			if len(issues) != testCase.expectedIssues {
				t.Fatalf("got %d issues, want %d:\n%s", len(issues), testCase.expectedIssues, strings.Join(issues, "\n"))
			}

			for _, substring := range testCase.wantSubstrings {
				found := false
				for _, issue := range issues {
					if strings.Contains(issue, substring) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected issue containing %q, got:\n%s", substring, strings.Join(issues, "\n"))
				}
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	profile := &Profile{
		OverrideClasspath:  []string{"a.jar", "b.jar"},
		ModulePath:         []string{"mods"},
		Accept:             []string{"com/example"},
		Reject:             []string{"com/example/internal"},
		ScanDirs:           boolPtr(false),
		ScanJars:           boolPtr(true),
		ScanNestedJars:     boolPtr(false),
		EnableMultiRelease: boolPtr(false),
		JavaVersion:        11,
	}

	var opts scan.Options
	profile.Apply(&opts)

	if got, want := opts.OverrideClasspath, []string{"a.jar", "b.jar"}; !reflect.DeepEqual(got, want) {
		t.Errorf("OverrideClasspath = %v, want %v", got, want)
	}
	if got, want := opts.ModulePath, []string{"mods"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ModulePath = %v, want %v", got, want)
	}
	if got, want := opts.Accept, []string{"com/example"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Accept = %v, want %v", got, want)
	}
	if got, want := opts.Reject, []string{"com/example/internal"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reject = %v, want %v", got, want)
	}
	if !opts.SkipDirs {
		t.Error("SkipDirs = false, want true (scan_dirs: false)")
	}
	if opts.SkipJars {
		t.Error("SkipJars = true, want false (scan_jars: true)")
	}
	if opts.SkipModules {
		t.Error("SkipModules = true, want false (not stated)")
	}
	if !opts.SkipNestedJars {
		t.Error("SkipNestedJars = false, want true (scan_nested_jars: false)")
	}
	if !opts.DisableMultiRelease {
		t.Error("DisableMultiRelease = false, want true (enable_multi_release: false)")
	}
	if got, want := opts.JavaVersion, 11; got != want {
		t.Errorf("JavaVersion = %d, want %d", got, want)
	}
}

func TestApplyLeavesUnstatedFields(t *testing.T) {
	t.Parallel()

	opts := scan.Options{
		Classpath:   []string{"existing.jar"},
		Accept:      []string{"org/keep"},
		SkipModules: true,
		JavaVersion: 21,
	}

	(&Profile{Reject: []string{"org/keep/private"}}).Apply(&opts)

	if got, want := opts.Classpath, []string{"existing.jar"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Classpath = %v, want %v", got, want)
	}
	if got, want := opts.Accept, []string{"org/keep"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Accept = %v, want %v", got, want)
	}
	if got, want := opts.Reject, []string{"org/keep/private"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reject = %v, want %v", got, want)
	}
	if !opts.SkipModules {
		t.Error("SkipModules = false, want true (untouched)")
	}
	if got, want := opts.JavaVersion, 21; got != want {
		t.Errorf("JavaVersion = %d, want %d", got, want)
	}
}

func TestApplyCopiesSlices(t *testing.T) {
	t.Parallel()

	profile := &Profile{Accept: []string{"com/a"}}

	var opts scan.Options
	profile.Apply(&opts)

	profile.Accept[0] = "mutated"
	if got, want := opts.Accept[0], "com/a"; got != want {
		t.Errorf("Accept[0] = %q, want %q (Apply must copy)", got, want)
	}
}
