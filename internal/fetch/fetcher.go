package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ramaerik/webscout/internal/model"
)

// Default settings for a Fetcher. These mirror the CLI defaults so a
// zero-option Fetcher behaves like the documented tool.
const (
	// DefaultTimeout bounds each request including body read.
	DefaultTimeout = 30 * time.Second

	// DefaultDelay is the minimum interval between consecutive requests.
	// One second is conservative enough to avoid tripping rate limits on
	// most sites while keeping small mirror runs fast.
	DefaultDelay = 1 * time.Second

	// DefaultUserAgent is a realistic browser identification string.
	// Some sites reject obviously non-browser agents outright, so the
	// default must look like a real browser. Callers may override it.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultMaxBodySize caps response bodies at 10MB to prevent memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 10 * 1024 * 1024
)

// Fetcher performs paced HTTP retrieval.
//
// Design decision: The pacing state (the next allowed send time) is an
// explicit field owned by the instance and guarded by a mutex, never
// package-level state. Constructing a new Fetcher resets pacing; sharing
// one instance shares its gate.
type Fetcher struct {
	// client performs the actual HTTP requests.
	client *http.Client

	// timeout bounds each request.
	timeout time.Duration

	// delay is the minimum interval between consecutive request starts.
	delay time.Duration

	// userAgent is sent as the User-Agent header on every request.
	userAgent string

	// cookie, if set, is sent as the Cookie header on every request.
	cookie string

	// headers are extra headers applied to every request.
	headers map[string]string

	// maxBodySize limits how many response bytes are read.
	maxBodySize int64

	// logger for structured logging.
	logger *slog.Logger

	// mu guards next. next is the earliest time the following request
	// may start; requests reserve their start slot under the lock so the
	// minimum-interval invariant holds even with concurrent callers.
	mu   sync.Mutex
	next time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithDelay sets the minimum interval between consecutive requests.
// Zero disables pacing.
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.delay = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithCookie sets a Cookie header sent on every request.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithHeaders sets extra headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithHTTPClient replaces the underlying HTTP client.
// Used by tests to inject httptest clients.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with the given options applied over the defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		delay:       DefaultDelay,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// Fetch retrieves the given URL and returns the result.
//
// On a non-2xx response, Fetch returns both a populated FetchResult (with
// the error page body) and an *HTTPError. On connection failures and
// timeouts the result is nil and the error wraps ErrConnection or
// ErrTimeout respectively.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error) {
	if err := f.waitTurn(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request for %s: %v", ErrConnection, rawURL, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.classify(rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, f.classify(rawURL, err)
	}

	result := &model.FetchResult{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Headers:     resp.Header,
		Elapsed:     time.Since(start),
	}

	f.logger.Debug("fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", result.Elapsed,
	)

	if !result.IsSuccess() {
		return result, &HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	return result, nil
}

// waitTurn blocks until this request's reserved start slot arrives.
//
// The slot is reserved under the mutex: each caller takes the later of
// now and the stored next-start time, then advances next-start by the
// configured delay. Sleeping happens outside the lock, so concurrent
// callers queue up behind each other with the correct spacing instead of
// serializing on the mutex for the full delay.
func (f *Fetcher) waitTurn(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}

	f.mu.Lock()
	start := time.Now()
	if start.Before(f.next) {
		start = f.next
	}
	f.next = start.Add(f.delay)
	f.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// classify maps a transport-level error to the fetch error taxonomy.
func (f *Fetcher) classify(rawURL string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, rawURL, f.timeout)
	}
	return fmt.Errorf("%w: %s: %v", ErrConnection, rawURL, err)
}
