// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package jarfile opens jar archives, including archives nested
// inside other archives, addressed by "!/"-separated paths like
// "spring-boot-app.jar!/BOOT-INF/lib/library.jar".
//
// # Nested resolution
//
// A Resolver walks a nested path level by level. Each level is opened
// exactly once per Resolver regardless of how many goroutines resolve
// paths through it, and a failed open is remembered the same way a
// successful one is. An archive stored uncompressed inside its parent
// is read in place as a sub-slice of the parent's bytes; a compressed
// one is extracted once, to memory below a size threshold and to the
// session temp store above it. When a path segment names a directory
// inside an archive rather than a deeper archive, resolution stops
// and reports the directory as the package root
// ("app.jar!/BOOT-INF/classes").
//
// # Logical entries
//
// A Jar presents logical entries rather than the raw zip directory:
// directory entries are dropped, duplicate names keep their first
// occurrence, and in multi-release jars the versioned entries under
// META-INF/versions/{v}/ that apply to the configured runtime version
// mask their base entries, highest applicable version winning.
//
// # Manifest
//
// The main manifest section is parsed for the handful of attributes
// scanning consumes: Class-Path and Bundle-ClassPath (additional
// search paths), Automatic-Module-Name, Multi-Release, and the title
// attributes that identify legacy JRE runtime jars.
package jarfile
