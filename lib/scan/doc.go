// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package scan resolves a classpath and module path into classpath
// elements and walks them for resources.
//
// # Phases
//
// A scan runs in three phases. The open phase resolves every
// classpath entry to an element (a directory, an archive, or a
// module) and reads each element's metadata, which may declare
// further elements: jars in a Spring Boot lib directory, manifest
// Class-Path and Bundle-ClassPath references. Newly declared elements
// feed back into the same work queue, so the phase ends only when the
// queue drains with every worker idle. The order phase flattens the
// resulting element graph depth-first into classic classpath
// precedence, keeping the first occurrence of an element reached by
// more than one route. The scan phase then walks every open element's
// entries in parallel, applies the accept/reject filter, and
// publishes matching resources.
//
// Element-level failures skip the element and never fail the scan:
// an unreadable archive, a dangling classpath entry, or a filtered
// element simply drops out of the result. Cancelling the context
// aborts the whole scan and discards it.
//
// # Resources
//
// A Resource is a handle to one file inside an element. It is not
// open until Open or Read is called, and a handle serves one consumer
// at a time. Results keep their resources readable until the Result
// is closed, which releases every underlying archive and module
// reader.
package scan
