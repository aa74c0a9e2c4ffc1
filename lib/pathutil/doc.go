// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathutil normalizes search-path strings into the canonical
// form the rest of the engine keys on: forward slashes, no trailing
// slash, "file:" and "jar:file:" scheme prefixes stripped, %-escapes
// decoded for local URLs, and nested-archive boundaries written as
// "!/" (so "outer.jar!inner.jar" and "outer.jar!/inner.jar" resolve
// to the same string). Canonical paths are what the order list
// deduplicates on and what the nested-archive cache uses as keys, so
// every path entering the engine passes through Resolve first.
//
// The package also splits classpath-style path lists. On platforms
// where the list separator is ':' the split is scheme- and
// drive-letter-aware: the colons in "https://host/a.jar" or "C:/x"
// do not break the entry apart.
package pathutil
