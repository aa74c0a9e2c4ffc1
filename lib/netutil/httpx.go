// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP helpers for remote search-path roots.
//
// Remote jars are large binary downloads and are streamed with
// io.Copy by their callers; this package only supplies the client
// those downloads run on and a bounded reader for turning error
// responses into diagnostic messages.
package netutil

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// DownloadTimeout bounds a whole remote-root fetch, connection
// through body. Scans also pass a context, which can end the fetch
// sooner.
const DownloadTimeout = 5 * time.Minute

// MaxErrorBody is the bound on error response body reads: 64 KB. An
// error page is diagnostic text for a log line; anything longer is
// noise.
const MaxErrorBody int64 = 64 << 10

// DefaultClient returns the http.Client used to fetch remote
// search-path roots when the caller does not supply one.
func DefaultClient() *http.Client {
	return &http.Client{Timeout: DownloadTimeout}
}

// ErrorBody reads an HTTP error response body (up to MaxErrorBody
// bytes) and returns it as a string for diagnostic error messages.
// Read errors are silently ignored — a partial or empty body is still
// useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxErrorBody))
	return strings.TrimSpace(string(data))
}
