// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package scanprofile provides parsing and validation for scan
// profiles: files describing what a scan should cover, authored as
// JSONC (JSON extended with // line comments, /* block comments */,
// and trailing commas).
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Profile
//  2. Validate: structural checks (exclusive classpath modes, pattern
//     shape)
//  3. Apply: overlay the profile onto a scan.Options
//
// Profile booleans are stated positively (scan_jars: false) and
// flipped onto the scan options' skip flags, so an absent field
// changes nothing.
package scanprofile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/zlataovce/classgraph/lib/scan"
)

// Profile is a declarative description of a scan. Nil pointer fields
// mean "not stated": Apply leaves the corresponding option untouched.
type Profile struct {
	// OverrideClasspath replaces classpath discovery entirely.
	// Mutually exclusive with Classpath.
	OverrideClasspath []string `json:"override_classpath,omitempty"`
	// Classpath adds entries ahead of the CLASSPATH environment
	// variable.
	Classpath  []string `json:"classpath,omitempty"`
	ModulePath []string `json:"module_path,omitempty"`

	// Accept and Reject select which resource paths the scan reports.
	Accept []string `json:"accept,omitempty"`
	Reject []string `json:"reject,omitempty"`

	// Element kinds, stated positively. Absent means scanned.
	ScanDirs       *bool `json:"scan_dirs,omitempty"`
	ScanJars       *bool `json:"scan_jars,omitempty"`
	ScanModules    *bool `json:"scan_modules,omitempty"`
	ScanNestedJars *bool `json:"scan_nested_jars,omitempty"`

	// EnableMultiRelease, when false, ignores META-INF/versions
	// directories. Absent means enabled.
	EnableMultiRelease *bool `json:"enable_multi_release,omitempty"`
	// JavaVersion selects which multi-release version directories
	// apply. Zero means detect from the JRE.
	JavaVersion int `json:"java_version,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Profile.
func Parse(data []byte) (*Profile, error) {
	stripped := jsonc.ToJSON(data)

	var profile Profile
	if err := json.Unmarshal(stripped, &profile); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}

	return &profile, nil
}

// ReadFile reads a JSONC profile file from disk and parses it.
func ReadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	profile, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return profile, nil
}

// Validate checks a Profile for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the profile
// is valid.
//
// Structural checks include:
//   - override_classpath and classpath are mutually exclusive
//   - classpath and module path entries must be non-empty
//   - accept and reject patterns must be non-empty and must not
//     reach into nested archives ("!" is an element address, not a
//     path pattern)
//   - java_version must not be negative
func Validate(profile *Profile) []string {
	var issues []string

	if len(profile.OverrideClasspath) > 0 && len(profile.Classpath) > 0 {
		issues = append(issues, "override_classpath and classpath are mutually exclusive (set at most one)")
	}
	for index, entry := range profile.OverrideClasspath {
		if strings.TrimSpace(entry) == "" {
			issues = append(issues, fmt.Sprintf("override_classpath[%d]: entry is empty", index))
		}
	}
	for index, entry := range profile.Classpath {
		if strings.TrimSpace(entry) == "" {
			issues = append(issues, fmt.Sprintf("classpath[%d]: entry is empty", index))
		}
	}
	for index, entry := range profile.ModulePath {
		if strings.TrimSpace(entry) == "" {
			issues = append(issues, fmt.Sprintf("module_path[%d]: entry is empty", index))
		}
	}

	issues = append(issues, validatePatterns(profile.Accept, "accept")...)
	issues = append(issues, validatePatterns(profile.Reject, "reject")...)

	if profile.JavaVersion < 0 {
		issues = append(issues, fmt.Sprintf("java_version must not be negative, got %d", profile.JavaVersion))
	}

	return issues
}

// validatePatterns checks a list of accept or reject patterns. The
// field name identifies the list in error messages.
func validatePatterns(patterns []string, field string) []string {
	var issues []string
	for index, pattern := range patterns {
		prefix := fmt.Sprintf("%s[%d]", field, index)
		if strings.Trim(pattern, "/") == "" {
			issues = append(issues, fmt.Sprintf("%s: pattern is empty", prefix))
			continue
		}
		if strings.Contains(pattern, "!") {
			issues = append(issues, fmt.Sprintf("%s: pattern %q must not contain %q (patterns match paths within an element)", prefix, pattern, "!"))
		}
		if strings.Contains(pattern, "\\") {
			issues = append(issues, fmt.Sprintf("%s: pattern %q must use forward slashes", prefix, pattern))
		}
	}
	return issues
}

// Apply overlays the profile onto opts. Only fields the profile
// states are touched, so a profile can be layered over defaults or
// flag-derived options.
func (p *Profile) Apply(opts *scan.Options) {
	if len(p.OverrideClasspath) > 0 {
		opts.OverrideClasspath = append([]string(nil), p.OverrideClasspath...)
	}
	if len(p.Classpath) > 0 {
		opts.Classpath = append([]string(nil), p.Classpath...)
	}
	if len(p.ModulePath) > 0 {
		opts.ModulePath = append([]string(nil), p.ModulePath...)
	}
	if len(p.Accept) > 0 {
		opts.Accept = append([]string(nil), p.Accept...)
	}
	if len(p.Reject) > 0 {
		opts.Reject = append([]string(nil), p.Reject...)
	}
	if p.ScanDirs != nil {
		opts.SkipDirs = !*p.ScanDirs
	}
	if p.ScanJars != nil {
		opts.SkipJars = !*p.ScanJars
	}
	if p.ScanModules != nil {
		opts.SkipModules = !*p.ScanModules
	}
	if p.ScanNestedJars != nil {
		opts.SkipNestedJars = !*p.ScanNestedJars
	}
	if p.EnableMultiRelease != nil {
		opts.DisableMultiRelease = !*p.EnableMultiRelease
	}
	if p.JavaVersion > 0 {
		opts.JavaVersion = p.JavaVersion
	}
}
