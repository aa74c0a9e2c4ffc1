// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package workqueue runs a dynamically growing batch of work units on
// a fixed pool of workers. Units may enqueue further units while they
// execute — that is how one archive's manifest schedules the next
// archive — and the queue terminates on quiescence: no unit queued
// and no unit in flight. A unit's failure is logged and skipped, not
// propagated, so one unreadable archive never takes down a scan.
package workqueue

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Config holds the parameters for a Queue. Process is required.
type Config[T any] struct {
	// Workers is the number of concurrent workers. If zero or
	// negative, defaults to runtime.NumCPU().
	Workers int

	// Process handles one work unit. It may call q.Add to schedule
	// follow-up units. A returned error marks the unit failed: the
	// queue logs it and moves on. Process must honor ctx for long
	// operations; the queue itself only checks ctx between units.
	Process func(ctx context.Context, unit T, q *Queue[T]) error

	// Logger receives per-unit failure and drain diagnostics. If
	// nil, a no-op logger is used.
	Logger *slog.Logger
}

// Queue is a FIFO of work units drained by a fixed worker pool.
// Add may be called before Run to seed the queue and from inside
// Process to grow it; growth during execution is the normal case.
type Queue[T any] struct {
	workers int
	process func(context.Context, T, *Queue[T]) error
	logger  *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	items    []T
	inFlight int
	started  bool

	processed int
	failed    int
}

// New creates a Queue from cfg.
func New[T any](cfg Config[T]) (*Queue[T], error) {
	if cfg.Process == nil {
		return nil, errors.New("workqueue: Process is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	q := &Queue[T]{
		workers: workers,
		process: cfg.Process,
		logger:  logger,
	}
	q.cond = sync.NewCond(&q.mu)
	return q, nil
}

// Add appends units to the queue and wakes idle workers. Safe to call
// concurrently and from inside Process.
func (q *Queue[T]) Add(units ...T) {
	if len(units) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, units...)
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Run drains the queue with the configured worker pool and returns
// once every unit has been processed, including units added during
// execution. On cancellation, workers finish their in-flight unit and
// stop without draining the backlog; Run then returns ctx.Err().
// Run may be called once per Queue.
func (q *Queue[T]) Run(ctx context.Context) error {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return errors.New("workqueue: Run called twice")
	}
	q.started = true
	q.mu.Unlock()

	// Workers block in cond.Wait while idle; a context watcher turns
	// cancellation into a broadcast so they re-check and exit.
	stop := context.AfterFunc(ctx, q.cond.Broadcast)
	defer stop()

	workers := pool.New().WithMaxGoroutines(q.workers)
	for range q.workers {
		workers.Go(func() { q.work(ctx) })
	}
	workers.Wait()

	q.mu.Lock()
	processed, failed, backlog := q.processed, q.failed, len(q.items)
	q.mu.Unlock()
	q.logger.Debug("work queue drained",
		"processed", processed,
		"failed", failed,
		"backlog", backlog,
	)
	return ctx.Err()
}

// work is one worker's drain loop.
func (q *Queue[T]) work(ctx context.Context) {
	for {
		unit, ok := q.next(ctx)
		if !ok {
			return
		}
		err := q.process(ctx, unit, q)
		q.finish(err)
		if err != nil {
			q.logger.Warn("work unit failed", "error", err)
		}
	}
}

// next blocks until a unit is available, the queue is quiescent, or
// ctx is cancelled. It reports false when the worker should exit.
func (q *Queue[T]) next(ctx context.Context) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if ctx.Err() != nil {
			var zero T
			return zero, false
		}
		if len(q.items) > 0 {
			unit := q.items[0]
			q.items = q.items[1:]
			q.inFlight++
			return unit, true
		}
		if q.inFlight == 0 {
			// Quiescent: nothing queued, nothing running anywhere
			// that could queue more. Release the other idlers too.
			q.cond.Broadcast()
			var zero T
			return zero, false
		}
		q.cond.Wait()
	}
}

// finish retires an in-flight unit and wakes idle workers, either to
// take up units the finished one added or to observe quiescence.
func (q *Queue[T]) finish(err error) {
	q.mu.Lock()
	q.inFlight--
	q.processed++
	if err != nil {
		q.failed++
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Stats returns the number of units processed so far and how many of
// them failed.
func (q *Queue[T]) Stats() (processed, failed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processed, q.failed
}
