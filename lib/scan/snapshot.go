// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/zlataovce/classgraph/lib/binhash"
	"github.com/zlataovce/classgraph/lib/codec"
)

// Compression selects how a written snapshot is encoded on disk.
type Compression int

const (
	// CompressionNone writes plain CBOR.
	CompressionNone Compression = iota
	// CompressionZstd wraps the CBOR payload in a zstd frame.
	CompressionZstd
	// CompressionLZ4 wraps the CBOR payload in an lz4 frame.
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	}
	return "unknown"
}

// ParseCompression maps a name to a Compression. The empty string
// means no compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	}
	return CompressionNone, fmt.Errorf("scan: unknown compression %q", name)
}

// Snapshot is a point-in-time record of a scan: the elements on the
// classpath and the resource paths they exposed. Snapshots serialize
// to CBOR and diff against each other to detect classpath drift
// between runs.
type Snapshot struct {
	SessionID     string            `cbor:"session_id"`
	Created       time.Time         `cbor:"created"`
	JavaVersion   int               `cbor:"java_version"`
	Elements      []SnapshotElement `cbor:"elements"`
	ResourcePaths []string          `cbor:"resource_paths"`
}

// SnapshotElement records one classpath element of a snapshot.
type SnapshotElement struct {
	Location     string    `cbor:"location"`
	Module       string    `cbor:"module,omitempty"`
	Kind         string    `cbor:"kind"`
	Skipped      bool      `cbor:"skipped,omitempty"`
	LastModified time.Time `cbor:"last_modified"`
	Size         int64     `cbor:"size,omitempty"`
	Fingerprint  string    `cbor:"fingerprint,omitempty"`
}

// Snapshot records the scan's elements and resource paths. Content
// fingerprints are not computed here; see Fingerprint.
func (r *Result) Snapshot() *Snapshot {
	snap := &Snapshot{
		SessionID:     r.session.id.String(),
		Created:       r.session.started,
		JavaVersion:   r.session.javaVersion,
		ResourcePaths: append([]string(nil), r.paths...),
	}
	for _, el := range r.elements {
		b := el.base()
		snap.Elements = append(snap.Elements, SnapshotElement{
			Location:     b.location,
			Module:       b.moduleName,
			Kind:         b.kind.String(),
			Skipped:      b.skip.Load(),
			LastModified: b.modified,
			Size:         elementSize(el),
		})
	}
	return snap
}

// Fingerprint fills in content digests for the snapshot's archive and
// single-file module elements, reading each element's backing bytes.
// Directory and exploded-module elements are not fingerprinted. The
// snapshot must come from this result.
func (r *Result) Fingerprint(snap *Snapshot) error {
	if len(snap.Elements) != len(r.elements) {
		return errors.New("scan: snapshot does not match this result")
	}
	var errs []error
	for i, el := range r.elements {
		se := &snap.Elements[i]
		b := el.base()
		if se.Location != b.location {
			return errors.New("scan: snapshot does not match this result")
		}
		if b.skip.Load() {
			continue
		}
		digest, ok, err := elementFingerprint(el)
		if err != nil {
			errs = append(errs, fmt.Errorf("scan: fingerprinting %s: %w", b.location, err))
			continue
		}
		if ok {
			se.Fingerprint = digest.String()
		}
	}
	return errors.Join(errs...)
}

func elementSize(el element) int64 {
	switch e := el.(type) {
	case *jarElement:
		if e.jar != nil {
			return e.jar.Slice().Len()
		}
	case *moduleElement:
		return e.fileSize
	}
	return 0
}

func elementFingerprint(el element) (binhash.Digest, bool, error) {
	switch e := el.(type) {
	case *jarElement:
		if e.jar == nil {
			break
		}
		d, err := binhash.HashReader(e.jar.Slice().SectionReader())
		return d, err == nil, err
	case *moduleElement:
		if e.exploded {
			break
		}
		d, err := binhash.HashFile(filepath.FromSlash(e.location))
		return d, err == nil, err
	}
	return binhash.Digest{}, false, nil
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Write serializes the snapshot with the given compression. The
// compression is recoverable from the stream itself, so ReadSnapshot
// needs no hint.
func (s *Snapshot) Write(w io.Writer, c Compression) error {
	switch c {
	case CompressionNone:
		return codec.NewEncoder(w).Encode(s)
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("scan: writing snapshot: %w", err)
		}
		if err := codec.NewEncoder(zw).Encode(s); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		if err := codec.NewEncoder(lw).Encode(s); err != nil {
			lw.Close()
			return err
		}
		return lw.Close()
	}
	return fmt.Errorf("scan: unknown compression %d", c)
}

// ReadSnapshot reads a snapshot written by Write, sniffing the
// compression from the stream's magic bytes.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("scan: reading snapshot: %w", err)
	}
	var payload io.Reader = br
	switch {
	case bytes.Equal(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("scan: reading snapshot: %w", err)
		}
		defer zr.Close()
		payload = zr
	case bytes.Equal(magic, lz4Magic):
		payload = lz4.NewReader(br)
	}
	var snap Snapshot
	if err := codec.NewDecoder(payload).Decode(&snap); err != nil {
		return nil, fmt.Errorf("scan: decoding snapshot: %w", err)
	}
	return &snap, nil
}

// SnapshotDiff reports how a later snapshot differs from an earlier
// one. All slices are sorted.
type SnapshotDiff struct {
	// AddedElements and RemovedElements are element locations present
	// in only one of the snapshots.
	AddedElements   []string
	RemovedElements []string
	// ChangedElements are locations present in both whose timestamp,
	// size, skip state or fingerprint differs. Fingerprints only
	// count when both snapshots carry one.
	ChangedElements []string
	// AddedPaths and RemovedPaths are resource paths that appeared or
	// disappeared.
	AddedPaths   []string
	RemovedPaths []string
}

// Empty reports whether the two snapshots were identical.
func (d *SnapshotDiff) Empty() bool {
	return len(d.AddedElements) == 0 && len(d.RemovedElements) == 0 &&
		len(d.ChangedElements) == 0 &&
		len(d.AddedPaths) == 0 && len(d.RemovedPaths) == 0
}

// Diff compares this snapshot (the earlier one) against other (the
// later one).
func (s *Snapshot) Diff(other *Snapshot) *SnapshotDiff {
	d := &SnapshotDiff{}
	before := make(map[string]*SnapshotElement, len(s.Elements))
	for i := range s.Elements {
		before[s.Elements[i].Location] = &s.Elements[i]
	}
	after := make(map[string]*SnapshotElement, len(other.Elements))
	for i := range other.Elements {
		after[other.Elements[i].Location] = &other.Elements[i]
	}
	for loc, se := range after {
		prev, ok := before[loc]
		if !ok {
			d.AddedElements = append(d.AddedElements, loc)
			continue
		}
		if elementChanged(prev, se) {
			d.ChangedElements = append(d.ChangedElements, loc)
		}
	}
	for loc := range before {
		if _, ok := after[loc]; !ok {
			d.RemovedElements = append(d.RemovedElements, loc)
		}
	}

	beforePaths := make(map[string]bool, len(s.ResourcePaths))
	for _, p := range s.ResourcePaths {
		beforePaths[p] = true
	}
	afterPaths := make(map[string]bool, len(other.ResourcePaths))
	for _, p := range other.ResourcePaths {
		afterPaths[p] = true
	}
	for p := range afterPaths {
		if !beforePaths[p] {
			d.AddedPaths = append(d.AddedPaths, p)
		}
	}
	for p := range beforePaths {
		if !afterPaths[p] {
			d.RemovedPaths = append(d.RemovedPaths, p)
		}
	}

	sort.Strings(d.AddedElements)
	sort.Strings(d.RemovedElements)
	sort.Strings(d.ChangedElements)
	sort.Strings(d.AddedPaths)
	sort.Strings(d.RemovedPaths)
	return d
}

func elementChanged(before, after *SnapshotElement) bool {
	if !before.LastModified.Equal(after.LastModified) {
		return true
	}
	if before.Size != after.Size || before.Skipped != after.Skipped {
		return true
	}
	if before.Fingerprint != "" && after.Fingerprint != "" &&
		before.Fingerprint != after.Fingerprint {
		return true
	}
	return false
}
