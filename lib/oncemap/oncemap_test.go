// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package oncemap

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zlataovce/classgraph/lib/testutil"
)

func TestGetComputesOnce(t *testing.T) {
	m := New[string, int]()
	var calls atomic.Int32

	const goroutines = 32
	var wg sync.WaitGroup
	results := make([]int, goroutines)
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get(context.Background(), "k", func(context.Context) (int, error) {
				calls.Add(1)
				time.Sleep(10 * time.Millisecond)
				return 42, nil
			})
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			results[i] = v
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("compute ran %d times, want 1", got)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("goroutine %d got %d, want 42", i, v)
		}
	}
}

func TestGetCachesFailure(t *testing.T) {
	m := New[string, int]()
	var calls atomic.Int32
	cause := errors.New("no such archive")

	compute := func(context.Context) (int, error) {
		calls.Add(1)
		return 0, cause
	}

	_, err1 := m.Get(context.Background(), "bad", compute)
	_, err2 := m.Get(context.Background(), "bad", compute)

	if calls.Load() != 1 {
		t.Errorf("compute ran %d times, want 1", calls.Load())
	}
	for i, err := range []error{err1, err2} {
		if !errors.Is(err, ErrComputeFailed) {
			t.Errorf("call %d: error %v does not match ErrComputeFailed", i+1, err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("call %d: error %v does not match the original cause", i+1, err)
		}
	}
}

func TestGetDistinctKeysDoNotSerialize(t *testing.T) {
	m := New[int, int]()
	release := make(chan struct{})

	// First key blocks until released.
	go func() {
		m.Get(context.Background(), 1, func(context.Context) (int, error) {
			<-release
			return 1, nil
		})
	}()

	// Second key must complete while the first is still computing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if v, err := m.Get(context.Background(), 2, func(context.Context) (int, error) {
			return 2, nil
		}); err != nil || v != 2 {
			t.Errorf("Get(2) = %d, %v, want 2, nil", v, err)
		}
	}()

	testutil.RequireClosed(t, done, 2*time.Second,
		"Get for a distinct key blocked behind an unrelated computation")
	close(release)
}

func TestGetWaiterCancellation(t *testing.T) {
	m := New[string, int]()
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		m.Get(context.Background(), "slow", func(context.Context) (int, error) {
			close(started)
			<-release
			return 7, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Get(ctx, "slow", func(context.Context) (int, error) {
		t.Error("compute ran for an already-computing key")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled waiter got %v, want context.Canceled", err)
	}

	// The computation itself is unaffected by the waiter's cancellation.
	close(release)
	v, err := m.Get(context.Background(), "slow", func(context.Context) (int, error) {
		return 0, errors.New("unexpected recompute")
	})
	if err != nil || v != 7 {
		t.Errorf("Get after release = %d, %v, want 7, nil", v, err)
	}
}

func TestLookup(t *testing.T) {
	m := New[string, string]()
	if _, _, ok := m.Lookup("absent"); ok {
		t.Error("Lookup of absent key reported ok")
	}
	m.Get(context.Background(), "k", func(context.Context) (string, error) {
		return "v", nil
	})
	v, err, ok := m.Lookup("k")
	if !ok || err != nil || v != "v" {
		t.Errorf("Lookup = %q, %v, %v, want \"v\", nil, true", v, err, ok)
	}
}

func TestKeysValuesLen(t *testing.T) {
	m := New[int, string]()
	for i := range 3 {
		m.Get(context.Background(), i, func(context.Context) (string, error) {
			return fmt.Sprintf("v%d", i), nil
		})
	}
	m.Get(context.Background(), 99, func(context.Context) (string, error) {
		return "", errors.New("boom")
	})

	if got := m.Len(); got != 4 {
		t.Errorf("Len = %d, want 4", got)
	}
	keys := m.Keys()
	sort.Ints(keys)
	if len(keys) != 4 || keys[3] != 99 {
		t.Errorf("Keys = %v, want the four requested keys", keys)
	}
	values := m.Values()
	if len(values) != 3 {
		t.Errorf("Values has %d entries, want 3 (failures excluded)", len(values))
	}
}

func TestClear(t *testing.T) {
	m := New[string, int]()
	var calls atomic.Int32
	compute := func(context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	}
	m.Get(context.Background(), "k", compute)
	m.Clear()
	if m.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", m.Len())
	}
	m.Get(context.Background(), "k", compute)
	if calls.Load() != 2 {
		t.Errorf("compute ran %d times across Clear, want 2", calls.Load())
	}
}
