// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package oncemap provides a concurrency-safe map that computes the
// value for each key exactly once. Both the computed value and a
// computation failure are cached permanently, which is what lets the
// nested-archive layer promise "each archive is opened at most once
// per session" even when many workers race to resolve paths through
// the same archive — including archives that turn out to be
// unopenable.
package oncemap

import (
	"context"
	"errors"
	"sync"
)

// ErrComputeFailed marks a value whose computation failed. The failure
// is cached: every Get for that key, now and later, returns the same
// error with the original cause still reachable through errors.Is and
// errors.As.
var ErrComputeFailed = errors.New("oncemap: computation failed")

// entry holds one key's computation outcome. done is closed when the
// outcome (value or err) is final.
type entry[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Map memoizes a computation per key. The first Get for a key runs
// compute; concurrent Gets for the same key block until that first
// computation finishes and then share its outcome. Outcomes are
// permanent for the Map's lifetime: successes and failures are both
// cached, and compute runs at most once per key no matter how many
// callers race or how the first attempt ended.
//
// Computations for distinct keys never serialize on each other; the
// Map's lock covers only the entry table.
type Map[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
}

// New returns an empty Map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{entries: make(map[K]*entry[V])}
}

// Get returns the memoized value for key, running compute if this is
// the first Get for it. Waiting callers respect ctx: a cancelled
// waiter returns ctx.Err() without disturbing the computation, which
// completes for the benefit of the other callers. The computing
// caller's ctx is the one passed to compute.
//
// A failed compute is cached and replayed to all callers as an error
// matching both ErrComputeFailed and the original cause.
func (m *Map[K, V]) Get(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, error) {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		select {
		case <-e.done:
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
		return e.value, e.err
	}
	e := &entry[V]{done: make(chan struct{})}
	// The outcome is finalized below; until then a waiter that
	// observes done (only possible if compute unwound without
	// completing) sees this error rather than a zero-value success.
	e.err = ErrComputeFailed
	m.entries[key] = e
	m.mu.Unlock()

	defer close(e.done)
	value, err := compute(ctx)
	if err != nil {
		e.err = errors.Join(ErrComputeFailed, err)
		var zero V
		return zero, e.err
	}
	e.value, e.err = value, nil
	return value, nil
}

// Lookup returns the cached outcome for key without computing
// anything. ok is false when the key was never requested or its
// computation has not finished yet.
func (m *Map[K, V]) Lookup(key K) (value V, err error, ok bool) {
	m.mu.Lock()
	e, present := m.entries[key]
	m.mu.Unlock()
	if !present {
		var zero V
		return zero, nil, false
	}
	select {
	case <-e.done:
		return e.value, e.err, true
	default:
		var zero V
		return zero, nil, false
	}
}

// Keys returns a snapshot of every key ever requested, including keys
// whose computation failed or is still in flight.
func (m *Map[K, V]) Keys() []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]K, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// Values returns a snapshot of every successfully computed value.
func (m *Map[K, V]) Values() []V {
	m.mu.Lock()
	entries := make([]*entry[V], 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	values := make([]V, 0, len(entries))
	for _, e := range entries {
		select {
		case <-e.done:
			if e.err == nil {
				values = append(values, e.value)
			}
		default:
		}
	}
	return values
}

// Len returns the number of keys ever requested.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Clear drops every cached outcome. Computations already in flight
// complete against their old entries; a subsequent Get for the same
// key recomputes.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[K]*entry[V])
}
