// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/zlataovce/classgraph/lib/binhash"
)

func snapshotFixture(t *testing.T) (*Result, *Snapshot) {
	t.Helper()
	jar := buildJar(t, filepath.Join(t.TempDir(), "snap.jar"), [][2]string{
		{"com/snap/S.class", "s"},
	})
	dir := writeTree(t, t.TempDir(), map[string]string{"com/snap/D.class": "d"})
	res := mustScan(t, Options{
		OverrideClasspath: []string{jar, dir},
		Accept:            []string{"com/snap"},
	})
	return res, res.Snapshot()
}

func TestSnapshotFields(t *testing.T) {
	res, snap := snapshotFixture(t)
	if snap.SessionID == "" {
		t.Error("SessionID is empty")
	}
	if snap.Created.IsZero() {
		t.Error("Created is zero")
	}
	if snap.JavaVersion <= 0 {
		t.Errorf("JavaVersion = %d, want positive", snap.JavaVersion)
	}
	if len(snap.Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(snap.Elements))
	}
	if snap.Elements[0].Kind != "jar" || snap.Elements[1].Kind != "dir" {
		t.Errorf("element kinds = %q, %q, want jar, dir",
			snap.Elements[0].Kind, snap.Elements[1].Kind)
	}
	if snap.Elements[0].Size <= 0 {
		t.Error("jar element Size not recorded")
	}
	if !reflect.DeepEqual(snap.ResourcePaths, res.Paths()) {
		t.Errorf("ResourcePaths = %v, want %v", snap.ResourcePaths, res.Paths())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	_, snap := snapshotFixture(t)
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := snap.Write(&buf, c); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got, err := ReadSnapshot(&buf)
			if err != nil {
				t.Fatalf("ReadSnapshot: %v", err)
			}
			if got.SessionID != snap.SessionID {
				t.Errorf("SessionID = %q, want %q", got.SessionID, snap.SessionID)
			}
			if !reflect.DeepEqual(got.ResourcePaths, snap.ResourcePaths) {
				t.Errorf("ResourcePaths = %v, want %v", got.ResourcePaths, snap.ResourcePaths)
			}
			if len(got.Elements) != len(snap.Elements) {
				t.Fatalf("got %d elements, want %d", len(got.Elements), len(snap.Elements))
			}
			for i := range got.Elements {
				if got.Elements[i].Location != snap.Elements[i].Location {
					t.Errorf("element %d location = %q, want %q",
						i, got.Elements[i].Location, snap.Elements[i].Location)
				}
			}
		})
	}
}

func TestSnapshotCompressionMagic(t *testing.T) {
	_, snap := snapshotFixture(t)
	var zbuf, lbuf bytes.Buffer
	if err := snap.Write(&zbuf, CompressionZstd); err != nil {
		t.Fatal(err)
	}
	if err := snap.Write(&lbuf, CompressionLZ4); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(zbuf.Bytes(), zstdMagic) {
		t.Error("zstd output does not start with the zstd frame magic")
	}
	if !bytes.HasPrefix(lbuf.Bytes(), lz4Magic) {
		t.Error("lz4 output does not start with the lz4 frame magic")
	}
}

func TestSnapshotFingerprint(t *testing.T) {
	res, snap := snapshotFixture(t)
	if err := res.Fingerprint(snap); err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if snap.Elements[0].Fingerprint == "" {
		t.Fatal("jar element has no fingerprint")
	}
	if _, err := binhash.ParseDigest(snap.Elements[0].Fingerprint); err != nil {
		t.Errorf("jar fingerprint %q does not parse: %v",
			snap.Elements[0].Fingerprint, err)
	}
	if snap.Elements[1].Fingerprint != "" {
		t.Errorf("directory element fingerprint = %q, want none",
			snap.Elements[1].Fingerprint)
	}

	// Same backing bytes, same digest.
	again := res.Snapshot()
	if err := res.Fingerprint(again); err != nil {
		t.Fatal(err)
	}
	if again.Elements[0].Fingerprint != snap.Elements[0].Fingerprint {
		t.Error("fingerprint is not stable across snapshots")
	}
}

func TestSnapshotFingerprintMismatch(t *testing.T) {
	res, snap := snapshotFixture(t)
	snap.Elements = snap.Elements[:1]
	if err := res.Fingerprint(snap); err == nil {
		t.Error("Fingerprint of a truncated snapshot did not fail")
	}
}

func TestSnapshotDiff(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	before := &Snapshot{
		Elements: []SnapshotElement{
			{Location: "/cp/stable.jar", Kind: "jar", LastModified: base, Size: 100},
			{Location: "/cp/gone.jar", Kind: "jar", LastModified: base, Size: 50},
			{Location: "/cp/touched.jar", Kind: "jar", LastModified: base, Size: 70},
		},
		ResourcePaths: []string{"com/a/A.class", "com/b/B.class"},
	}
	after := &Snapshot{
		Elements: []SnapshotElement{
			{Location: "/cp/stable.jar", Kind: "jar", LastModified: base, Size: 100},
			{Location: "/cp/touched.jar", Kind: "jar", LastModified: base.Add(time.Hour), Size: 70},
			{Location: "/cp/new.jar", Kind: "jar", LastModified: base, Size: 10},
		},
		ResourcePaths: []string{"com/a/A.class", "com/c/C.class"},
	}

	d := before.Diff(after)
	if d.Empty() {
		t.Fatal("diff of different snapshots reported empty")
	}
	if want := []string{"/cp/new.jar"}; !reflect.DeepEqual(d.AddedElements, want) {
		t.Errorf("AddedElements = %v, want %v", d.AddedElements, want)
	}
	if want := []string{"/cp/gone.jar"}; !reflect.DeepEqual(d.RemovedElements, want) {
		t.Errorf("RemovedElements = %v, want %v", d.RemovedElements, want)
	}
	if want := []string{"/cp/touched.jar"}; !reflect.DeepEqual(d.ChangedElements, want) {
		t.Errorf("ChangedElements = %v, want %v", d.ChangedElements, want)
	}
	if want := []string{"com/c/C.class"}; !reflect.DeepEqual(d.AddedPaths, want) {
		t.Errorf("AddedPaths = %v, want %v", d.AddedPaths, want)
	}
	if want := []string{"com/b/B.class"}; !reflect.DeepEqual(d.RemovedPaths, want) {
		t.Errorf("RemovedPaths = %v, want %v", d.RemovedPaths, want)
	}
}

func TestSnapshotDiffFingerprintOnly(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	el := SnapshotElement{Location: "/cp/a.jar", Kind: "jar", LastModified: base, Size: 10}
	before := &Snapshot{Elements: []SnapshotElement{el}}
	after := &Snapshot{Elements: []SnapshotElement{el}}
	before.Elements[0].Fingerprint = "aa"
	after.Elements[0].Fingerprint = "bb"
	if d := before.Diff(after); len(d.ChangedElements) != 1 {
		t.Error("fingerprint change was not reported")
	}

	// A fingerprint on only one side is not a change.
	after.Elements[0].Fingerprint = ""
	if d := before.Diff(after); len(d.ChangedElements) != 0 {
		t.Error("one-sided fingerprint reported as change")
	}
}

func TestSnapshotDiffIdentical(t *testing.T) {
	_, snap := snapshotFixture(t)
	if d := snap.Diff(snap); !d.Empty() {
		t.Errorf("self-diff not empty: %+v", d)
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name    string
		want    Compression
		wantErr bool
	}{
		{"", CompressionNone, false},
		{"none", CompressionNone, false},
		{"zstd", CompressionZstd, false},
		{"lz4", CompressionLZ4, false},
		{"gzip", CompressionNone, true},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCompression(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseCompression(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
