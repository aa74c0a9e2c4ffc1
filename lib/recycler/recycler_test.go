// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package recycler_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/zlataovce/classgraph/lib/recycler"
)

// countingHandle tracks close calls so tests can verify the Recycler's
// ownership guarantees.
type countingHandle struct {
	id     int
	closed atomic.Bool
}

func newCounting() (func() (*countingHandle, error), *atomic.Int32) {
	var created atomic.Int32
	return func() (*countingHandle, error) {
		return &countingHandle{id: int(created.Add(1))}, nil
	}, &created
}

func closeCounting(h *countingHandle) error {
	if h.closed.Swap(true) {
		return errors.New("double close")
	}
	return nil
}

func TestAcquireReusesIdleHandles(t *testing.T) {
	newFn, created := newCounting()
	r, err := recycler.New(recycler.Config[*countingHandle]{New: newFn, Close: closeCounting})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	h1, err := r.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	r.Recycle(h1)

	h2, err := r.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if h2 != h1 {
		t.Errorf("second Acquire returned handle %d, want recycled handle %d", h2.id, h1.id)
	}
	if created.Load() != 1 {
		t.Errorf("created %d handles, want 1", created.Load())
	}
}

func TestAcquireGrowsWhenNoneIdle(t *testing.T) {
	newFn, created := newCounting()
	r, err := recycler.New(recycler.Config[*countingHandle]{New: newFn, Close: closeCounting})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	h1, _ := r.Acquire()
	h2, _ := r.Acquire()
	if h1 == h2 {
		t.Error("concurrent checkouts received the same handle")
	}
	if created.Load() != 2 {
		t.Errorf("created %d handles, want 2", created.Load())
	}
	r.Recycle(h1)
	r.Recycle(h2)
}

func TestCloseClosesCheckedOutHandles(t *testing.T) {
	newFn, _ := newCounting()
	r, err := recycler.New(recycler.Config[*countingHandle]{New: newFn, Close: closeCounting})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	idle, _ := r.Acquire()
	r.Recycle(idle)
	checkedOut, err := r.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	extra, err := r.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Both the idle handle (== checkedOut, it was recycled and
	// re-acquired) and the extra checked-out handle are closed.
	if !checkedOut.closed.Load() {
		t.Error("checked-out handle not closed by Close")
	}
	if !extra.closed.Load() {
		t.Error("second checked-out handle not closed by Close")
	}

	if _, err := r.Acquire(); !errors.Is(err, recycler.ErrClosed) {
		t.Errorf("Acquire after Close = %v, want ErrClosed", err)
	}
}

func TestCloseIdempotentAndRecycleAfterClose(t *testing.T) {
	newFn, _ := newCounting()
	r, err := recycler.New(recycler.Config[*countingHandle]{New: newFn, Close: closeCounting})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h, _ := r.Acquire()
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// The handle was closed by Close; a late Recycle must not revive it
	// and a second Close must not close it again.
	r.Recycle(h)
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestAcquireScoped(t *testing.T) {
	newFn, created := newCounting()
	r, err := recycler.New(recycler.Config[*countingHandle]{New: newFn, Close: closeCounting})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	scoped, err := r.AcquireScoped()
	if err != nil {
		t.Fatalf("AcquireScoped: %v", err)
	}
	h := scoped.Handle()
	if err := scoped.Close(); err != nil {
		t.Errorf("Scoped.Close: %v", err)
	}
	if err := scoped.Close(); err != nil {
		t.Errorf("second Scoped.Close: %v", err)
	}

	// The handle went back to the idle set exactly once.
	again, _ := r.Acquire()
	if again != h {
		t.Error("scoped close did not recycle the handle")
	}
	if other, _ := r.Acquire(); other == h {
		t.Error("double scoped close put the handle in the idle set twice")
	}
	if created.Load() != 2 {
		t.Errorf("created %d handles, want 2", created.Load())
	}
}

func TestConcurrentAcquireRecycle(t *testing.T) {
	newFn, created := newCounting()
	r, err := recycler.New(recycler.Config[*countingHandle]{New: newFn, Close: closeCounting})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h, err := r.Acquire()
				if err != nil {
					t.Errorf("Acquire: %v", err)
					return
				}
				r.Recycle(h)
			}
		}()
	}
	wg.Wait()

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Growth is bounded by peak concurrency, not by operation count.
	if created.Load() > 8 {
		t.Errorf("created %d handles with 8 workers, want at most 8", created.Load())
	}
}

func TestNewValidatesConfig(t *testing.T) {
	newFn, _ := newCounting()
	if _, err := recycler.New(recycler.Config[*countingHandle]{Close: closeCounting}); err == nil {
		t.Error("New without a factory succeeded")
	}
	if _, err := recycler.New(recycler.Config[*countingHandle]{New: newFn}); err == nil {
		t.Error("New without a close function succeeded")
	}
}
