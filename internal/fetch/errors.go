package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification. Callers use errors.Is to
// distinguish connection failures from timeouts without string matching.
var (
	// ErrConnection indicates a DNS or TCP level failure: the request
	// never produced an HTTP response.
	ErrConnection = errors.New("connection failed")

	// ErrTimeout indicates the configured request timeout elapsed before
	// the response was fully read.
	ErrTimeout = errors.New("request timed out")
)

// HTTPError reports a non-2xx HTTP response. Unlike connection errors,
// an HTTPError is returned together with a populated FetchResult so the
// caller can inspect the error page body.
type HTTPError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// URL is the requested URL.
	URL string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d fetching %s", e.StatusCode, e.URL)
}

// IsHTTPError reports whether err is an HTTPError and returns it if so.
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
