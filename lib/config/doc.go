// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the
// classgraph CLI.
//
// Configuration is loaded from a single file specified by either the
// CLASSGRAPH_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// The config file carries settings that describe the machine the
// tool runs on (worker count, temp directory, JRE location) and
// output preferences. What to scan is never configured here: that
// comes from flags or a scan profile, so the same config file serves
// every scan on a host.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${JAVA_HOME}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- Workers, TempDir, JavaHome, LogLevel, Output
//   - [Default] -- returns a complete working configuration
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other classgraph packages.
package config
