package techdetect

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ramaerik/webscout/internal/fetch"
	"github.com/ramaerik/webscout/internal/model"
)

// Fetcher retrieves a URL and returns the response.
// Satisfied by fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error)
}

// Analyzer fingerprints the technologies behind a website from one
// response: server headers, markup signatures, and referenced
// script/stylesheet URLs.
//
// Design decision: We use goquery for content analysis because
// signature checks are selector-shaped (meta[name=generator],
// script[src], link[href]) and goquery expresses them directly instead
// of hand-walking the node tree.
type Analyzer struct {
	// fetcher performs the single page fetch.
	fetcher Fetcher

	// logger is used for analysis progress logging.
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New creates an Analyzer that fetches through the given Fetcher.
func New(fetcher Fetcher, opts ...Option) *Analyzer {
	a := &Analyzer{fetcher: fetcher}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// Analyze fetches the page once and runs all signature checks against
// the response. A non-2xx status fails the analysis; everything the
// fingerprint needs comes from a successful page load.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*model.TechReport, error) {
	target := normalizeURL(rawURL)

	a.logger.Info("analyzing technologies", "url", target)

	res, err := a.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	techReport := &model.TechReport{
		URL:        target,
		StatusCode: res.StatusCode,
		AnalyzedAt: time.Now(),
	}

	a.analyzeHeaders(res, techReport)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		// Headers alone still make a useful report.
		a.logger.Warn("content analysis skipped", "url", target, "error", err)
		return techReport, nil
	}

	a.analyzeDocument(doc, techReport)
	a.analyzeBody(res.Body, techReport)

	a.logger.Info("analysis complete",
		"url", target,
		"detections", len(techReport.Detections),
	)

	return techReport, nil
}

// normalizeURL prepends https:// when the target has no scheme.
func normalizeURL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "https://" + trimmed
	}
	return trimmed
}

// compile-time check that fetch.Fetcher satisfies the Fetcher interface.
var _ Fetcher = (*fetch.Fetcher)(nil)
