package render

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ramaerik/webscout/internal/model"
)

// Default renderer settings.
const (
	// DefaultTimeout bounds one full page render, including browser
	// startup on the first call.
	DefaultTimeout = 60 * time.Second

	// DefaultSettleWait is how long to let scripts run after navigation
	// before capturing the DOM.
	DefaultSettleWait = 5 * time.Second
)

// Renderer fetches pages through a headless Chrome instance so that
// script-built markup is visible to the parser. It implements the same
// Fetch signature as fetch.Fetcher and can substitute for it wherever
// a page (not an asset) is being retrieved.
//
// Design decision: We capture the DOM after a fixed settle wait rather
// than listening for network-idle events because:
//  1. Single-page apps keep polling endpoints open, so "idle" may
//     never arrive
//  2. A fixed wait is predictable and good enough for metadata and
//     CSS extraction
//  3. It keeps the renderer a drop-in Fetcher with no extra protocol
type Renderer struct {
	// timeout bounds one full render.
	timeout time.Duration

	// settleWait is the post-navigation script execution window.
	settleWait time.Duration

	// userAgent is sent by the browser.
	userAgent string

	// logger is used for render progress logging.
	logger *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTimeout sets the per-render timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Renderer) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithSettleWait sets the post-navigation wait before DOM capture.
func WithSettleWait(wait time.Duration) Option {
	return func(r *Renderer) {
		if wait > 0 {
			r.settleWait = wait
		}
	}
}

// WithUserAgent sets the browser's User-Agent string.
func WithUserAgent(ua string) Option {
	return func(r *Renderer) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// New creates a Renderer with default settings.
// A local Chrome or Chromium installation is required at Fetch time.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		timeout:    DefaultTimeout,
		settleWait: DefaultSettleWait,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Fetch navigates to the URL in a headless browser, waits for scripts
// to settle, and returns the rendered DOM as the response body.
// The status code is always 200 on success: the DevTools protocol does
// not surface the document response status through this capture path.
func (r *Renderer) Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error) {
	r.logger.Info("rendering page", "url", rawURL)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	if r.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(r.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var renderedHTML string
	err := chromedp.Run(taskCtx,
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(rawURL),
		chromedp.Sleep(r.settleWait),
		chromedp.OuterHTML("html", &renderedHTML),
	)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	r.logger.Debug("render complete",
		"url", rawURL,
		"elapsed", time.Since(start),
		"size", len(renderedHTML),
	)

	return &model.FetchResult{
		URL:         rawURL,
		StatusCode:  http.StatusOK,
		Body:        []byte(renderedHTML),
		ContentType: "text/html",
		Headers:     http.Header{},
		Elapsed:     time.Since(start),
	}, nil
}
