// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package jarfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/klauspost/compress/zip"

	"github.com/zlataovce/classgraph/lib/binhash"
	"github.com/zlataovce/classgraph/lib/fileslice"
	"github.com/zlataovce/classgraph/lib/netutil"
	"github.com/zlataovce/classgraph/lib/oncemap"
	"github.com/zlataovce/classgraph/lib/pathutil"
	"github.com/zlataovce/classgraph/lib/recycler"
)

// ErrClosed is returned by Resolve after the Resolver has been
// closed.
var ErrClosed = errors.New("jarfile: resolver closed")

// DefaultJavaVersion is assumed when Options does not name a runtime
// version for multi-release masking.
const DefaultJavaVersion = 17

// defaultMaxInMemory is the spill threshold for extracting compressed
// nested archives: below it extraction goes to memory, above it to a
// temp file.
const defaultMaxInMemory = 16 << 20

// Options configures a Resolver. The zero value is usable.
type Options struct {
	// TempDir is the parent directory for the session's temp store
	// (downloads, extracted nested archives). A fresh subdirectory
	// is created under it and removed by Close. Empty means the
	// system temp directory.
	TempDir string

	// Logger receives debug-level open, download, and extraction
	// events. If nil, a no-op logger is used.
	Logger *slog.Logger

	// HTTPClient downloads http(s) search-path roots. If nil,
	// netutil.DefaultClient is used.
	HTTPClient *http.Client

	// JavaVersion is the runtime major version used to select
	// multi-release entry versions. If zero, defaults to 17.
	JavaVersion int

	// DisableMultiRelease turns off version masking: versioned
	// entries keep their raw META-INF/versions paths.
	DisableMultiRelease bool

	// MaxInMemory is the extraction spill threshold in bytes. If
	// zero, defaults to 16 MiB.
	MaxInMemory int64
}

// Resolver opens archives addressed by nested "!/" paths, caching
// each level so that concurrent resolutions of overlapping paths
// share one open per level (including opens that failed: a corrupt
// archive is not re-read for every path under it).
//
// Roots may be filesystem paths or http(s) URLs; URLs are downloaded
// once into the session temp store under their content hash, so the
// same bytes fetched from two mirrors share one local file.
type Resolver struct {
	logger       *slog.Logger
	client       *http.Client
	javaVersion  int
	maskVersions bool
	maxInMemory  int64
	workDir      string
	tempDir      string

	jars      *oncemap.Map[string, *Jar]
	downloads *oncemap.Map[string, string]
	inflaters *recycler.Recycler[inflater]

	closed atomic.Bool
}

// NewResolver creates a Resolver with its own session temp store.
func NewResolver(opts Options) (*Resolver, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	client := opts.HTTPClient
	if client == nil {
		client = netutil.DefaultClient()
	}
	javaVersion := opts.JavaVersion
	if javaVersion == 0 {
		javaVersion = DefaultJavaVersion
	}
	maxInMemory := opts.MaxInMemory
	if maxInMemory == 0 {
		maxInMemory = defaultMaxInMemory
	}

	if opts.TempDir != "" {
		if err := os.MkdirAll(opts.TempDir, 0o700); err != nil {
			return nil, fmt.Errorf("jarfile: creating temp parent: %w", err)
		}
	}
	tempDir, err := os.MkdirTemp(opts.TempDir, "classgraph-*")
	if err != nil {
		return nil, fmt.Errorf("jarfile: creating temp store: %w", err)
	}

	inflaters, err := newInflaterRecycler()
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	workDir, err := os.Getwd()
	if err != nil {
		workDir = ""
	}

	return &Resolver{
		logger:       logger,
		client:       client,
		javaVersion:  javaVersion,
		maskVersions: !opts.DisableMultiRelease,
		maxInMemory:  maxInMemory,
		workDir:      workDir,
		tempDir:      tempDir,
		jars:         oncemap.New[string, *Jar](),
		downloads:    oncemap.New[string, string](),
		inflaters:    inflaters,
	}, nil
}

// Resolve opens the innermost archive addressed by nestedPath and
// returns it with the package-root suffix, which is non-empty when a
// trailing "!/" segment names a directory inside the returned archive
// rather than a further nested archive ("app.jar!/BOOT-INF/classes").
//
// Each "!/" level is opened at most once per Resolver, concurrent
// calls included. A segment that is neither an entry nor a directory
// of its parent fails with ErrNotFound; a level that is not a zip
// archive fails with ErrNotJar. Both outcomes are cached.
func (r *Resolver) Resolve(ctx context.Context, nestedPath string) (*Jar, string, error) {
	if r.closed.Load() {
		return nil, "", ErrClosed
	}

	canonical := pathutil.Resolve(r.workDir, nestedPath)
	segments := pathutil.SplitNested(canonical)

	jar, err := r.jars.Get(ctx, segments[0], func(ctx context.Context) (*Jar, error) {
		return r.openRoot(ctx, segments[0])
	})
	if err != nil {
		return nil, "", err
	}

	packageRoot := ""
	for _, segment := range segments[1:] {
		if segment == "" {
			continue
		}
		name := segment
		if packageRoot != "" {
			name = packageRoot + "/" + segment
		}
		parent := jar
		if e := parent.Entry(name); e != nil {
			key := parent.Path() + "!/" + name
			jar, err = r.jars.Get(ctx, key, func(ctx context.Context) (*Jar, error) {
				return r.openNested(parent, e, key)
			})
			if err != nil {
				return nil, "", err
			}
			packageRoot = ""
		} else if parent.HasDirPrefix(name) {
			// The segment names a directory: it becomes the package
			// root of the current level instead of a deeper archive.
			packageRoot = name
		} else {
			return nil, "", fmt.Errorf("no entry %q in %s: %w", name, parent.Path(), ErrNotFound)
		}
	}
	return jar, packageRoot, nil
}

// openRoot opens a level-0 archive from the filesystem, downloading
// remote roots into the temp store first.
func (r *Resolver) openRoot(ctx context.Context, root string) (*Jar, error) {
	local := root
	if pathutil.IsURL(root) {
		switch scheme := pathutil.URLScheme(root); scheme {
		case "http", "https":
			path, err := r.downloads.Get(ctx, root, func(ctx context.Context) (string, error) {
				return r.download(ctx, root)
			})
			if err != nil {
				return nil, err
			}
			local = path
		default:
			return nil, fmt.Errorf("unsupported scheme %q in %s", scheme, root)
		}
	}

	info, err := os.Stat(local)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", root, err)
	}
	slice, err := fileslice.OpenFile(local)
	if err != nil {
		return nil, err
	}
	jar, err := openSlice(slice, root, nil, "", info.ModTime(), r.jarConfig())
	if err != nil {
		slice.Close()
		return nil, err
	}
	r.logger.Debug("opened jar", "path", root, "entries", len(jar.entries))
	return jar, nil
}

// openNested opens the archive stored at entry e of parent. Stored
// entries become zero-copy sub-slices; compressed entries are
// extracted to memory or to the temp store depending on size.
func (r *Resolver) openNested(parent *Jar, e *Entry, key string) (*Jar, error) {
	var (
		slice fileslice.Slice
		err   error
	)
	if e.method == zip.Store {
		slice, err = e.rawSlice()
	} else {
		slice, err = r.extract(e, key)
	}
	if err != nil {
		return nil, err
	}

	jar, err := openSlice(slice, key, parent.slice, e.NameUnversioned, e.Modified, r.jarConfig())
	if err != nil {
		slice.Close()
		return nil, err
	}
	r.logger.Debug("opened nested jar",
		"path", key,
		"entries", len(jar.entries),
		"stored", e.method == zip.Store,
	)
	return jar, nil
}

// extract decompresses a nested archive entry so it can be read with
// positioned I/O. Entries up to MaxInMemory are held in memory;
// larger ones spill to the session temp store.
func (r *Resolver) extract(e *Entry, key string) (fileslice.Slice, error) {
	if e.UncompressedSize <= r.maxInMemory {
		data, err := e.Load()
		if err != nil {
			return nil, err
		}
		return fileslice.Bytes(data, key), nil
	}

	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(r.tempDir, "nested-*.jar")
	if err != nil {
		return nil, fmt.Errorf("creating extraction file for %s: %w", key, err)
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("extracting %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("extracting %s: %w", key, err)
	}
	r.logger.Debug("extracted nested jar to temp store",
		"path", key,
		"bytes", e.UncompressedSize,
	)
	return fileslice.OpenFile(tmp.Name())
}

// download fetches url into the session temp store, naming the file
// by its content hash so identical bytes from different URLs share
// one file.
func (r *Resolver) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: HTTP %d: %s", url, resp.StatusCode, netutil.ErrorBody(resp.Body))
	}

	tmp, err := os.CreateTemp(r.tempDir, "download-*")
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	digest, err := binhash.HashReader(io.TeeReader(resp.Body, tmp))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}

	final := filepath.Join(r.tempDir, digest.String()+".jar")
	if _, statErr := os.Stat(final); statErr == nil {
		// Same content already downloaded from another URL.
		os.Remove(tmp.Name())
		r.logger.Debug("download coalesced", "url", url, "digest", digest)
		return final, nil
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	r.logger.Debug("downloaded archive", "url", url, "digest", digest)
	return final, nil
}

func (r *Resolver) jarConfig() jarConfig {
	return jarConfig{
		javaVersion:  r.javaVersion,
		maskVersions: r.maskVersions,
		inflaters:    r.inflaters,
	}
}

// TempDir returns the session temp store directory. It exists until
// Close.
func (r *Resolver) TempDir() string { return r.tempDir }

// Paths returns the canonical paths of all archive levels resolved so
// far, in no particular order.
func (r *Resolver) Paths() []string {
	paths := make([]string, 0, r.jars.Len())
	for _, jar := range r.jars.Values() {
		paths = append(paths, jar.Path())
	}
	return paths
}

// Close releases every cached archive, shuts down the decompressor
// pool, and removes the session temp store. Resolve fails with
// ErrClosed afterwards. Idempotent.
func (r *Resolver) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	var errs []error
	jars := r.jars.Values()
	for _, jar := range jars {
		if err := jar.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.inflaters.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := os.RemoveAll(r.tempDir); err != nil {
		errs = append(errs, err)
	}
	r.jars.Clear()
	r.logger.Debug("resolver closed", "jars", len(jars))
	return errors.Join(errs...)
}
