// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a BLAKE3-256 content digest.
type Digest [32]byte

// String returns the canonical hex encoding, satisfying fmt.Stringer.
func (d Digest) String() string { return FormatDigest(d) }

// HashFile computes the BLAKE3 digest of the file at path. The file
// is streamed through the hash function in chunks (via io.Copy) to
// keep memory usage constant regardless of file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	digest, err := HashReader(file)
	if err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return digest, nil
}

// HashReader computes the BLAKE3 digest of everything remaining in r.
func HashReader(r io.Reader) (Digest, error) {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return Digest{}, err
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// HashBytes computes the BLAKE3 digest of data.
func HashBytes(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// FormatDigest returns the hex-encoded string representation of a
// digest. This is the canonical format used for download store file
// names, snapshot fingerprints, and log output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a hex-encoded digest string into a Digest.
// Returns an error if the string is not a valid 64-character hex
// encoding of 32 bytes.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing hash digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("hash digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
