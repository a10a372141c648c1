package model

import (
	"net/http"
	"strings"
	"time"
)

// FetchResult holds the outcome of a single HTTP fetch.
// It is produced by one Fetcher call, consumed by the caller, and discarded.
//
// Design decision: We keep the raw body bytes rather than a reader because:
//  1. Pages and assets are small relative to total memory
//  2. The body is inspected multiple times (parsing, hashing, writing)
//  3. The Fetcher already enforces a body size limit
type FetchResult struct {
	// URL is the URL that was fetched, after any client-side normalization.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Body contains the response body bytes, capped at the Fetcher's
	// configured maximum body size.
	Body []byte `json:"-"`

	// ContentType is the value of the Content-Type response header.
	ContentType string `json:"content_type"`

	// Headers contains all HTTP response headers.
	Headers http.Header `json:"headers,omitempty"`

	// Elapsed is the wall-clock duration of the request, from the moment
	// the request was sent (after the pacing gate released it) until the
	// body was fully read.
	Elapsed time.Duration `json:"elapsed"`
}

// IsHTML reports whether the response content type indicates an HTML page.
func (f *FetchResult) IsHTML() bool {
	return strings.HasPrefix(f.ContentType, "text/html") ||
		strings.HasPrefix(f.ContentType, "application/xhtml+xml")
}

// IsSuccess reports whether the response carries a 2xx status code.
func (f *FetchResult) IsSuccess() bool {
	return f.StatusCode >= 200 && f.StatusCode < 300
}
