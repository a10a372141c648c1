package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ramaerik/webscout/internal/crawler"
	"github.com/ramaerik/webscout/internal/fetch"
	"github.com/ramaerik/webscout/internal/model"
	"github.com/ramaerik/webscout/internal/report"
)

// Fetcher retrieves a URL and returns the response. It is satisfied by
// fetch.Fetcher and by the headless renderer, letting the scraper work
// identically over plain HTTP fetches and browser-rendered pages.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error)
}

// unsafeFilenameChars matches characters that must not appear in a
// report filename.
var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Scraper orchestrates a single page analysis: fetch, parse, collect
// external CSS through the same pacing gate, and write a report file.
//
// Design decision: The scraper owns its Fetcher for the duration of a
// run because the pacing gate is per-fetcher state. Sharing one fetcher
// between the page fetch and the stylesheet fetches is what makes the
// minimum-interval guarantee hold across the whole run.
type Scraper struct {
	// fetcher performs all HTTP requests for this scraper.
	fetcher Fetcher

	// outputDir is where report files are written.
	outputDir string

	// jsonOutput switches the report format from Markdown to JSON.
	jsonOutput bool

	// logger is used for scrape progress logging.
	logger *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		s.logger = logger
	}
}

// WithJSONOutput switches report files from Markdown to JSON.
func WithJSONOutput(enabled bool) Option {
	return func(s *Scraper) {
		s.jsonOutput = enabled
	}
}

// New creates a Scraper that fetches through the given Fetcher and
// writes reports into outputDir.
func New(fetcher Fetcher, outputDir string, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:   fetcher,
		outputDir: outputDir,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Scrape analyzes a single page and writes its report file.
// A failed run returns a nil result and an error; no partial report
// file is left behind.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*model.ScrapeResult, error) {
	target := NormalizeURL(rawURL)

	s.logger.Info("scraping page", "url", target)

	res, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	parser, err := crawler.NewParser(res.URL)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	doc, err := parser.Parse(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	doc.ComputeHash()

	scrapeReport := s.buildReport(ctx, res, doc)

	filePath, err := s.writeReportFile(target, scrapeReport)
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	s.logger.Info("scrape complete",
		"url", target,
		"report", filePath,
		"css_count", scrapeReport.CSSCount(),
	)

	return &model.ScrapeResult{
		URL:        target,
		FilePath:   filePath,
		HTMLLength: len(res.Body),
		CSSCount:   scrapeReport.CSSCount(),
		Metadata:   doc.Metadata,
		ScrapedAt:  scrapeReport.ScrapedAt,
	}, nil
}

// buildReport assembles the full report, fetching each external
// stylesheet through the scraper's fetcher. Stylesheet fetch failures
// are recorded in the report rather than failing the run.
func (s *Scraper) buildReport(ctx context.Context, res *model.FetchResult, doc *model.PageDocument) *model.ScrapeReport {
	sr := &model.ScrapeReport{
		URL:        doc.URL,
		ScrapedAt:  time.Now(),
		StatusCode: res.StatusCode,
		Metadata:   doc.Metadata,
		HTML:       string(res.Body),
	}

	for _, block := range doc.CSSBlocks {
		switch block.Origin {
		case model.CSSOriginInline:
			sr.InlineCSS = append(sr.InlineCSS, block.Text)
		case model.CSSOriginExternal:
			ext := model.ExternalCSS{URL: block.SourceURL}
			cssRes, err := s.fetcher.Fetch(ctx, block.SourceURL)
			if err != nil {
				s.logger.Warn("external stylesheet fetch failed",
					"url", block.SourceURL,
					"error", err,
				)
				ext.FetchError = err.Error()
			} else {
				ext.Content = string(cssRes.Body)
			}
			sr.ExternalCSS = append(sr.ExternalCSS, ext)
		}
	}

	return sr
}

// writeReportFile writes the report to outputDir and returns its path.
func (s *Scraper) writeReportFile(target string, sr *model.ScrapeReport) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filePath := filepath.Join(s.outputDir, reportFileName(target, sr.ScrapedAt, s.jsonOutput))

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Path is derived from sanitized host
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // Write errors are surfaced below

	var w report.Writer
	if s.jsonOutput {
		w = report.NewJSONWriter(f, report.WithPrettyPrint())
	} else {
		w = report.NewMarkdownWriter(f)
	}

	if _, err := w.WriteScrape(sr); err != nil {
		return "", err
	}

	return filePath, nil
}

// reportFileName builds "<sanitized-host>_<timestamp>.md" (or .json).
func reportFileName(target string, at time.Time, jsonOutput bool) string {
	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	}
	host = unsafeFilenameChars.ReplaceAllString(host, "_")

	ext := ".md"
	if jsonOutput {
		ext = ".json"
	}

	return host + "_" + at.Format("20060102_150405") + ext
}

// NormalizeURL prepends https:// when the target has no scheme, so
// bare domains work as CLI arguments.
func NormalizeURL(rawURL string) string {
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
