// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for classgraph
// packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. Tests for
// concurrent machinery (work queues, once-maps, scans) use these to
// fail with a message instead of hanging when a goroutine never
// finishes.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no classgraph-internal dependencies.
package testutil
