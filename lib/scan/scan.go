// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zlataovce/classgraph/lib/acceptreject"
	"github.com/zlataovce/classgraph/lib/classpath"
	"github.com/zlataovce/classgraph/lib/jarfile"
	"github.com/zlataovce/classgraph/lib/jreinfo"
	"github.com/zlataovce/classgraph/lib/modref"
	"github.com/zlataovce/classgraph/lib/oncemap"
	"github.com/zlataovce/classgraph/lib/pathutil"
	"github.com/zlataovce/classgraph/lib/workqueue"
)

// Loader tags recorded on classpath entries, by origin.
const (
	loaderOverride   = "override"
	loaderApp        = "app"
	loaderEnv        = "env"
	loaderModulePath = "module-path"
)

// envClasspath is the environment variable consulted when Options
// names no classpath at all.
const envClasspath = "CLASSPATH"

// session owns everything a scan opens: the jar resolver, the module
// reader pools, and the element table. It stays alive inside the
// Result so resources remain readable, and is torn down by
// Result.Close.
type session struct {
	opts        Options
	logger      *slog.Logger
	filter      *acceptreject.Filter
	resolver    *jarfile.Resolver
	jre         *jreinfo.Table
	id          uuid.UUID
	started     time.Time
	javaVersion int

	elements *oncemap.Map[string, element]
	toplevel []element

	closed atomic.Bool
}

// Scan resolves the configured classpath and module path, opens every
// element, and walks them for resources. The context cancels the
// whole scan; element-level failures only skip the affected element.
func Scan(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	jre := jreinfo.Detect(opts.JavaHome, logger)
	javaVersion := opts.JavaVersion
	if javaVersion <= 0 {
		javaVersion = jre.JavaMajorVersion()
	}
	if javaVersion <= 0 {
		javaVersion = jarfile.DefaultJavaVersion
	}
	resolver, err := jarfile.NewResolver(jarfile.Options{
		TempDir:             opts.TempDir,
		Logger:              logger,
		HTTPClient:          opts.HTTPClient,
		JavaVersion:         javaVersion,
		DisableMultiRelease: opts.DisableMultiRelease,
		MaxInMemory:         opts.MaxInMemory,
	})
	if err != nil {
		return nil, err
	}

	s := &session{
		opts:        opts,
		logger:      logger,
		filter:      acceptreject.New(opts.Accept, opts.Reject),
		resolver:    resolver,
		jre:         jre,
		id:          uuid.New(),
		started:     time.Now(),
		javaVersion: javaVersion,
		elements:    oncemap.New[string, element](),
	}

	order := classpath.NewOrder(classpath.Config{
		Filter:   opts.ElementFilter,
		JRE:      jre,
		Override: len(opts.OverrideClasspath) > 0,
		WorkDir:  opts.WorkDir,
		Logger:   logger,
	})
	if len(opts.OverrideClasspath) > 0 {
		for _, entry := range opts.OverrideClasspath {
			order.Add(entry, loaderOverride)
		}
	} else {
		for _, entry := range opts.Classpath {
			order.Add(entry, loaderApp)
		}
		order.AddPathList(os.Getenv(envClasspath), loaderEnv)
	}
	modules := modref.FindModules(opts.ModulePath, javaVersion, logger)
	entries := order.Entries()
	logger.Debug("classpath resolved",
		"elements", len(entries), "modules", len(modules))

	s.toplevel = make([]element, len(modules)+len(entries))
	units := make([]workUnit, 0, len(s.toplevel))
	for i := range modules {
		units = append(units, workUnit{
			module: &modules[i],
			loader: loaderModulePath,
			order:  i,
		})
	}
	for i, entry := range entries {
		units = append(units, workUnit{
			path:   entry.Resolved,
			loader: entry.Loader,
			order:  len(modules) + i,
		})
	}

	workers := opts.workers()
	q, err := workqueue.New(workqueue.Config[workUnit]{
		Workers: workers,
		Process: s.process,
		Logger:  logger,
	})
	if err != nil {
		s.close()
		return nil, err
	}
	q.Add(units...)
	if err := q.Run(ctx); err != nil {
		s.close()
		return nil, err
	}

	ordered := s.orderElements()
	s.computeNestedRoots(ordered)

	scannable := make([]element, 0, len(ordered))
	for _, el := range ordered {
		if !el.base().skip.Load() {
			scannable = append(scannable, el)
		}
	}
	sq, err := workqueue.New(workqueue.Config[element]{
		Workers: workers,
		Process: func(ctx context.Context, el element, _ *workqueue.Queue[element]) error {
			return el.scanPaths(ctx)
		},
		Logger: logger,
	})
	if err != nil {
		s.close()
		return nil, err
	}
	sq.Add(scannable...)
	if err := sq.Run(ctx); err != nil {
		s.close()
		return nil, err
	}

	return newResult(s, ordered), nil
}

// process materializes and opens the unit's element, then links it to
// its parent. Elements are deduplicated by key: the same path
// scheduled from two places opens once and is linked in both.
func (s *session) process(ctx context.Context, unit workUnit, q *workqueue.Queue[workUnit]) error {
	el, err := s.elements.Get(ctx, unit.key(), func(ctx context.Context) (element, error) {
		el := s.materialize(unit)
		el.open(ctx, q)
		return el, nil
	})
	if err != nil {
		return err
	}
	if unit.parent != nil {
		unit.parent.base().addChild(unit.order, el)
		return nil
	}
	s.toplevel[unit.order] = el
	return nil
}

func (s *session) materialize(unit workUnit) element {
	if unit.module != nil {
		return &moduleElement{
			elementBase: elementBase{
				session:    s,
				location:   unit.module.Location,
				moduleName: unit.module.Name,
				kind:       KindModule,
				loader:     unit.loader,
			},
			ref: *unit.module,
		}
	}
	if !strings.Contains(unit.path, "!") && !pathutil.IsURL(unit.path) {
		if info, err := os.Stat(filepath.FromSlash(unit.path)); err == nil && info.IsDir() {
			return &dirElement{elementBase: elementBase{
				session:  s,
				location: unit.path,
				kind:     KindDir,
				loader:   unit.loader,
			}}
		}
	}
	return &jarElement{elementBase: elementBase{
		session:  s,
		location: unit.path,
		kind:     KindJar,
		loader:   unit.loader,
	}}
}

// orderElements flattens the element graph depth-first into classpath
// order, keeping the first occurrence of each element.
func (s *session) orderElements() []element {
	var ordered []element
	visited := make(map[*elementBase]bool)
	var visit func(el element)
	visit = func(el element) {
		b := el.base()
		if visited[b] {
			return
		}
		visited[b] = true
		ordered = append(ordered, el)
		for _, child := range b.sortedChildren() {
			visit(child)
		}
	}
	for _, el := range s.toplevel {
		if el != nil {
			visit(el)
		}
	}
	return ordered
}

// computeNestedRoots marks, on each element, the entry prefixes that
// other elements cover, so nothing is scanned twice when a package
// root inside an archive (or a subdirectory of a directory element)
// is also on the classpath in its own right.
func (s *session) computeNestedRoots(ordered []element) {
	for _, outer := range ordered {
		ob := outer.base()
		if ob.skip.Load() {
			continue
		}
		var sep string
		switch ob.kind {
		case KindJar:
			sep = "!/"
		case KindDir:
			sep = "/"
		default:
			continue
		}
		for _, inner := range ordered {
			ib := inner.base()
			if ib == ob || ib.skip.Load() {
				continue
			}
			rest, ok := strings.CutPrefix(ib.location, ob.location+sep)
			if !ok || rest == "" || strings.Contains(rest, "!") {
				continue
			}
			ob.nestedRoots = append(ob.nestedRoots, rest+"/")
			s.logger.Debug("nested classpath root",
				"path", ob.location, "root", rest)
		}
	}
}

// close releases every handle the scan opened. Safe to call more
// than once.
func (s *session) close() error {
	if s.closed.Swap(true) {
		return nil
	}
	var errs []error
	for _, el := range s.elements.Values() {
		if err := el.close(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, s.resolver.Close())
	return errors.Join(errs...)
}
