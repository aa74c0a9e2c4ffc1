// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestDefaultClient(t *testing.T) {
	client := DefaultClient()
	if client.Timeout != DownloadTimeout {
		t.Fatalf("timeout: got %v, want %v", client.Timeout, DownloadTimeout)
	}
}

func TestErrorBody(t *testing.T) {
	t.Run("returns body as string", func(t *testing.T) {
		got := ErrorBody(bytes.NewReader([]byte("404 not found: no such artifact")))
		if got != "404 not found: no such artifact" {
			t.Fatalf("got %q, want %q", got, "404 not found: no such artifact")
		}
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		got := ErrorBody(bytes.NewReader([]byte("\n  denied  \n")))
		if got != "denied" {
			t.Fatalf("got %q, want %q", got, "denied")
		}
	})

	t.Run("bounds the read", func(t *testing.T) {
		huge := strings.Repeat("x", int(MaxErrorBody)+1024)
		got := ErrorBody(strings.NewReader(huge))
		if int64(len(got)) != MaxErrorBody {
			t.Fatalf("read %d bytes, want the %d-byte bound", len(got), MaxErrorBody)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		if got := ErrorBody(bytes.NewReader(nil)); got != "" {
			t.Fatalf("expected empty, got %q", got)
		}
	})

	t.Run("read error returns empty", func(t *testing.T) {
		if got := ErrorBody(&failReader{}); got != "" {
			t.Fatalf("expected empty from failing reader, got %q", got)
		}
	})
}

// failReader always returns an error on Read.
type failReader struct{}

func (*failReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated read failure")
}
