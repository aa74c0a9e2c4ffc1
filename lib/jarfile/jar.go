// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package jarfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/zlataovce/classgraph/lib/fileslice"
	"github.com/zlataovce/classgraph/lib/recycler"
)

// ErrNotJar is returned when a search-path entry or nested entry is
// not a readable zip archive.
var ErrNotJar = errors.New("jarfile: not a zip archive")

// ErrNotFound is returned when a nested path names an entry that does
// not exist in its parent archive.
var ErrNotFound = errors.New("jarfile: entry not found")

// MultiReleasePrefix is the path prefix of versioned entry trees in
// multi-release jars.
const MultiReleasePrefix = "META-INF/versions/"

// AutomaticPackageRootPrefixes lists well-known wrapper layouts whose
// class trees live below a fixed prefix rather than at the archive
// root (Spring Boot executable jars, WAR files). Matching prefixes
// are stripped from resource paths during scanning and reported as
// implicit package roots. First match wins.
var AutomaticPackageRootPrefixes = []string{
	"BOOT-INF/classes/",
	"WEB-INF/classes/",
}

// AutomaticLibDirPrefixes lists directories that conventionally hold
// nested library jars added to the effective search path by the
// wrapping class loader. Jars found under these prefixes are
// scheduled as child entries during archive scanning.
var AutomaticLibDirPrefixes = []string{
	"lib/",
	"BOOT-INF/lib/",
	"BOOT-INF/lib-provided/",
	"WEB-INF/lib/",
	"WEB-INF/lib-provided/",
}

// moduleDescriptor is the compiled module declaration at an archive
// or module root.
const moduleDescriptor = "module-info.class"

// inflater is a reusable deflate decompressor. The concrete type from
// flate.NewReader satisfies both halves; the combined interface lets
// the recycler hand out handles that can be Reset onto a new raw
// range without reallocation.
type inflater interface {
	io.ReadCloser
	flate.Resetter
}

// newInflaterRecycler builds the shared decompressor pool used by
// every Jar opened under one Resolver.
func newInflaterRecycler() (*recycler.Recycler[inflater], error) {
	return recycler.New(recycler.Config[inflater]{
		New: func() (inflater, error) {
			return flate.NewReader(bytes.NewReader(nil)).(inflater), nil
		},
		Close: func(h inflater) error { return h.Close() },
	})
}

// jarConfig carries the open-time parameters shared by every level of
// a nested resolution.
type jarConfig struct {
	javaVersion  int
	maskVersions bool
	inflaters    *recycler.Recycler[inflater]
}

// Jar is one opened archive level: a root jar, or a jar nested inside
// another. A Jar is read-only once built and safe for concurrent use;
// entries may be opened from any number of goroutines.
type Jar struct {
	path             string
	slice            fileslice.Slice
	parent           fileslice.Slice
	pathWithinParent string
	modified         time.Time

	reader      *zip.Reader
	entries     []*Entry
	byName      map[string]*Entry
	sortedNames []string
	manifest    Manifest
	inflaters   *recycler.Recycler[inflater]

	// ownInflaters is set when the Jar was opened standalone and owns
	// its decompressor pool; Resolver-opened jars share the
	// Resolver's pool.
	ownInflaters *recycler.Recycler[inflater]

	closed atomic.Bool
}

// Open opens a standalone jar from the filesystem with version
// masking for the given runtime major version (<= 0 selects the
// default). It is a lighter alternative to a Resolver for callers
// that need exactly one archive level, such as module-path readers.
// The returned Jar owns its file handle and decompressor pool; Close
// releases both.
func Open(path string, javaVersion int) (*Jar, error) {
	if javaVersion <= 0 {
		javaVersion = DefaultJavaVersion
	}
	slice, err := fileslice.OpenFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		slice.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	inflaters, err := newInflaterRecycler()
	if err != nil {
		slice.Close()
		return nil, err
	}
	jar, err := openSlice(slice, path, nil, "", info.ModTime(), jarConfig{
		javaVersion:  javaVersion,
		maskVersions: true,
		inflaters:    inflaters,
	})
	if err != nil {
		slice.Close()
		inflaters.Close()
		return nil, err
	}
	jar.ownInflaters = inflaters
	return jar, nil
}

// openSlice parses slice as a zip archive. path is the canonical
// "!/"-joined address reported by Path. parent and pathWithinParent
// are zero for root archives.
func openSlice(slice fileslice.Slice, path string, parent fileslice.Slice, pathWithinParent string, modified time.Time, cfg jarConfig) (*Jar, error) {
	reader, err := zip.NewReader(slice.SectionReader(), slice.Len())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, errors.Join(ErrNotJar, err))
	}

	jar := &Jar{
		path:             path,
		slice:            slice,
		parent:           parent,
		pathWithinParent: pathWithinParent,
		modified:         modified,
		reader:           reader,
		inflaters:        cfg.inflaters,
	}
	jar.manifest = jar.readManifest()
	jar.buildEntries(cfg)
	return jar, nil
}

// readManifest locates and parses META-INF/MANIFEST.MF. A missing or
// unreadable manifest yields the zero Manifest: the jar is still
// scannable, it just declares nothing.
func (j *Jar) readManifest() Manifest {
	for _, zf := range j.reader.File {
		if !strings.EqualFold(zf.Name, manifestPath) {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return Manifest{}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return Manifest{}
		}
		return parseManifest(data)
	}
	return Manifest{}
}

// buildEntries converts the raw zip directory into the logical entry
// list. Directory entries are dropped (their names remain visible to
// HasDirPrefix through file paths). When version masking applies,
// entries under META-INF/versions/{v}/ with 9 <= v <= javaVersion
// replace the base entry of the same logical name, highest version
// winning; versioned trees too new for javaVersion are dropped.
// Duplicate logical names keep the first occurrence.
func (j *Jar) buildEntries(cfg jarConfig) {
	mask := cfg.maskVersions && cfg.javaVersion >= 9 && j.manifest.MultiRelease

	index := make(map[string]int, len(j.reader.File))
	for _, zf := range j.reader.File {
		if strings.HasSuffix(zf.Name, "/") {
			continue
		}
		logical := zf.Name
		version := 0
		if mask {
			if v, rest, ok := versionedEntryName(zf.Name); ok {
				if v > cfg.javaVersion {
					continue
				}
				logical, version = rest, v
			}
		}
		if i, exists := index[logical]; exists {
			if version > j.entries[i].version {
				// Higher version masks in place, keeping the base
				// entry's position in the stored order.
				j.entries[i] = j.newEntry(zf, logical, version)
			}
			continue
		}
		index[logical] = len(j.entries)
		j.entries = append(j.entries, j.newEntry(zf, logical, version))
	}

	j.byName = make(map[string]*Entry, len(j.entries))
	j.sortedNames = make([]string, len(j.entries))
	for i, e := range j.entries {
		j.byName[e.NameUnversioned] = e
		j.sortedNames[i] = e.NameUnversioned
	}
	sort.Strings(j.sortedNames)
}

func (j *Jar) newEntry(zf *zip.File, logical string, version int) *Entry {
	return &Entry{
		Name:             zf.Name,
		NameUnversioned:  logical,
		UncompressedSize: int64(zf.UncompressedSize64),
		CompressedSize:   int64(zf.CompressedSize64),
		Modified:         zf.Modified,
		Mode:             zf.Mode(),
		version:          version,
		method:           zf.Method,
		file:             zf,
		jar:              j,
	}
}

// versionedEntryName splits a raw name under META-INF/versions/ into
// its version number and the path below it. Versions below 9 do not
// exist in the multi-release scheme and are treated as ordinary
// paths.
func versionedEntryName(name string) (version int, rest string, ok bool) {
	sub, found := strings.CutPrefix(name, MultiReleasePrefix)
	if !found {
		return 0, "", false
	}
	slash := strings.IndexByte(sub, '/')
	if slash <= 0 || slash == len(sub)-1 {
		return 0, "", false
	}
	v, err := strconv.Atoi(sub[:slash])
	if err != nil || v < 9 {
		return 0, "", false
	}
	return v, sub[slash+1:], true
}

// Path returns the canonical address of this archive level,
// "!/"-joined when nested.
func (j *Jar) Path() string { return j.path }

// Slice returns the byte range this archive was parsed from.
func (j *Jar) Slice() fileslice.Slice { return j.slice }

// ParentSlice returns the containing archive's slice, or nil for a
// root archive.
func (j *Jar) ParentSlice() fileslice.Slice { return j.parent }

// PathWithinParent returns this archive's entry name inside its
// parent, or "" for a root archive.
func (j *Jar) PathWithinParent() string { return j.pathWithinParent }

// LastModified returns the root file's modification time, or the
// parent entry's recorded time for nested archives.
func (j *Jar) LastModified() time.Time { return j.modified }

// Entries returns the logical entry list in stored order. The caller
// must not modify it.
func (j *Jar) Entries() []*Entry { return j.entries }

// Entry returns the entry with the given logical name, or nil.
func (j *Jar) Entry(name string) *Entry { return j.byName[name] }

// HasDirPrefix reports whether any entry lives under name/, i.e.
// whether name addresses a directory inside the archive.
func (j *Jar) HasDirPrefix(name string) bool {
	if name == "" {
		return false
	}
	prefix := name + "/"
	i := sort.SearchStrings(j.sortedNames, prefix)
	return i < len(j.sortedNames) && strings.HasPrefix(j.sortedNames[i], prefix)
}

// Manifest returns the parsed manifest attributes.
func (j *Jar) Manifest() Manifest { return j.manifest }

// ClassPathEntries returns the Class-Path manifest value split into
// entries, nil when absent.
func (j *Jar) ClassPathEntries() []string { return splitClassPath(j.manifest.ClassPath) }

// BundleClassPathEntries returns the Bundle-ClassPath manifest value
// split into entries, nil when absent.
func (j *Jar) BundleClassPathEntries() []string {
	return splitBundleClassPath(j.manifest.BundleClassPath)
}

// AutomaticModuleName returns the Automatic-Module-Name manifest
// value, or "".
func (j *Jar) AutomaticModuleName() string { return j.manifest.AutomaticModuleName }

// MultiRelease reports whether the jar declares Multi-Release: true.
func (j *Jar) MultiRelease() bool { return j.manifest.MultiRelease }

// IsJREJar reports whether the manifest identifies this as a JRE
// runtime jar (legacy installations stamp rt.jar and friends with
// fixed title attributes).
func (j *Jar) IsJREJar() bool { return j.manifest.jre() }

// Modular reports whether the jar participates in the module system:
// it carries a compiled module declaration at its root or declares an
// automatic module name.
func (j *Jar) Modular() bool {
	return j.byName[moduleDescriptor] != nil || j.manifest.AutomaticModuleName != ""
}

// Close releases the archive's backing storage if it owns it. Nested
// archives sharing a parent's storage are no-ops. Idempotent.
func (j *Jar) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	err := j.slice.Close()
	if j.ownInflaters != nil {
		err = errors.Join(err, j.ownInflaters.Close())
	}
	return err
}

// Entry is one file in a Jar's logical entry list.
type Entry struct {
	// Name is the raw stored name, including any META-INF/versions
	// prefix.
	Name string

	// NameUnversioned is the logical name: for a masked versioned
	// entry, the path below the version directory; otherwise equal
	// to Name.
	NameUnversioned string

	// UncompressedSize is the declared size of the entry's content.
	UncompressedSize int64

	// CompressedSize is the stored byte count of the raw range.
	CompressedSize int64

	// Modified is the entry's recorded modification time.
	Modified time.Time

	// Mode is the entry's file mode as recorded in the archive.
	Mode fs.FileMode

	version int
	method  uint16
	file    *zip.File
	jar     *Jar
}

// rawSlice returns the entry's stored (possibly compressed) byte
// range as a sub-slice of the jar's backing storage.
func (e *Entry) rawSlice() (fileslice.Slice, error) {
	off, err := e.file.DataOffset()
	if err != nil {
		return nil, fmt.Errorf("locating data of %s in %s: %w", e.Name, e.jar.path, err)
	}
	return e.jar.slice.Slice(off, e.CompressedSize)
}

// Open returns a reader over the entry's uncompressed content. Stored
// entries stream straight from the backing slice; deflated entries
// run through a pooled decompressor that is returned to the pool on
// Close. Open may be called concurrently; each call gets independent
// readers.
func (e *Entry) Open() (io.ReadCloser, error) {
	switch e.method {
	case zip.Store:
		raw, err := e.rawSlice()
		if err != nil {
			return nil, err
		}
		return raw.Open()
	case zip.Deflate:
		raw, err := e.rawSlice()
		if err != nil {
			return nil, err
		}
		scoped, err := e.jar.inflaters.AcquireScoped()
		if err != nil {
			return nil, fmt.Errorf("acquiring inflater for %s: %w", e.Name, err)
		}
		dec := scoped.Handle()
		if err := dec.Reset(raw.SectionReader(), nil); err != nil {
			scoped.Close()
			return nil, fmt.Errorf("resetting inflater for %s: %w", e.Name, err)
		}
		return &inflateReader{dec: dec, scoped: scoped}, nil
	default:
		// Uncommon methods go through the zip library's codec
		// registry.
		return e.file.Open()
	}
}

// Load reads the entry's whole content.
func (e *Entry) Load() ([]byte, error) {
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", e.Name, e.jar.path, err)
	}
	return data, nil
}

// inflateReader streams a deflated entry and recycles its
// decompressor on Close instead of destroying it.
type inflateReader struct {
	dec    inflater
	scoped *recycler.Scoped[inflater]
}

func (r *inflateReader) Read(p []byte) (int, error) { return r.dec.Read(p) }

func (r *inflateReader) Close() error { return r.scoped.Close() }
