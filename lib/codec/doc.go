// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the module's standard CBOR encoding
// configuration.
//
// Two serialization formats appear in this module, with a clear
// boundary:
//
//   - JSON for human-facing surfaces: scan profile files (JSONC) and
//     the CLI's --format=json listing output.
//   - CBOR for machine-facing artifacts: scan snapshots written for
//     change detection and the CLI's --format=cbor output.
//
// This package provides the shared CBOR encoding and decoding modes
// so every package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces
// identical bytes — which is what makes snapshot files comparable
// byte-for-byte across runs.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (snapshot files, pipes):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Snapshot types carry `json` struct tags only: fxamacker/cbor reads
// `json` tags as fallback when `cbor` tags are absent, so one tag
// controls field naming and omitempty for both formats.
package codec
