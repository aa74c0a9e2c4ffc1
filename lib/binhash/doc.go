// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides BLAKE3 content hashing for archive files.
//
// The scanning engine hashes content in two places. Remote
// search-path roots are downloaded into a session-local store under
// names derived from their content digest, so two URLs serving the
// same bytes share one stored copy and one open archive. Scan
// snapshots optionally record a digest per element, letting a later
// scan distinguish "same path, changed archive" from "unchanged"
// without trusting modification times.
//
// The API surface:
//
//   - [HashFile] -- streams a file through BLAKE3, returning a Digest
//     with constant memory usage regardless of file size
//   - [HashReader], [HashBytes] -- the same digest over a stream or
//     an in-memory buffer
//   - [FormatDigest] -- converts a Digest to its canonical
//     hex-encoded string representation
//   - [ParseDigest] -- parses a hex-encoded digest string back to a
//     Digest, validating length and encoding
//
// This package has no dependencies on other packages in this module.
package binhash
