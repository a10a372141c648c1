package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ramaerik/webscout/internal/crawler"
	"github.com/ramaerik/webscout/internal/fetch"
	"github.com/ramaerik/webscout/internal/model"
	"github.com/ramaerik/webscout/internal/report"
)

// InfoFileName is the manifest report written next to the mirrored site.
const InfoFileName = "clone_info.md"

// unsafeDirChars matches characters that must not appear in the
// per-site directory name.
var unsafeDirChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Cloner orchestrates a full mirror run: fetch the page, discover its
// assets, mirror everything under a per-site directory, and write the
// manifest report.
type Cloner struct {
	// fetcher performs all HTTP requests for this run.
	fetcher *fetch.Fetcher

	// baseDir is the directory mirrors are created under. Each site
	// gets its own subdirectory named after its host.
	baseDir string

	// retries is the per-asset retry bound passed to the Writer.
	retries int

	// logger is used for clone progress logging.
	logger *slog.Logger
}

// ClonerOption configures a Cloner.
type ClonerOption func(*Cloner)

// WithClonerRetries sets the per-asset retry bound.
func WithClonerRetries(n int) ClonerOption {
	return func(c *Cloner) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithClonerLogger sets a custom logger.
func WithClonerLogger(logger *slog.Logger) ClonerOption {
	return func(c *Cloner) {
		c.logger = logger
	}
}

// NewCloner creates a Cloner that fetches through the given Fetcher
// and writes mirrors under baseDir.
func NewCloner(fetcher *fetch.Fetcher, baseDir string, opts ...ClonerOption) *Cloner {
	c := &Cloner{
		fetcher: fetcher,
		baseDir: baseDir,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Clone mirrors the page at rawURL into baseDir/<sanitized-host>/.
// Asset failures never abort the run; the returned manifest records
// every outcome. The error return covers the page itself: fetch or
// parse failures, and an unwritable entry file.
func (c *Cloner) Clone(ctx context.Context, rawURL string) (*model.CloneResult, *model.Manifest, error) {
	target := normalizeTarget(rawURL)

	c.logger.Info("cloning site", "url", target)

	res, err := c.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch page: %w", err)
	}

	parser, err := crawler.NewParser(res.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse page: %w", err)
	}
	doc, err := parser.Parse(res.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse page: %w", err)
	}
	doc.ComputeHash()

	resolver, err := crawler.NewResolver(res.URL, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve assets: %w", err)
	}
	refs := resolver.Resolve(doc)

	siteDir := filepath.Join(c.baseDir, siteDirName(target))

	writer := NewWriter(c.fetcher, resolver, siteDir,
		WithRetries(c.retries),
		WithWriterLogger(c.logger),
	)

	manifest, err := writer.Mirror(ctx, doc, refs)
	if err != nil {
		return nil, manifest, err
	}

	reportPath, err := c.writeInfoFile(siteDir, manifest)
	if err != nil {
		// The mirror itself is intact; report the path problem but
		// don't discard the run.
		c.logger.Warn("manifest report not written", "error", err)
	}

	c.logger.Info("clone complete",
		"url", target,
		"dir", siteDir,
		"assets", manifest.AssetCount(),
		"succeeded", manifest.Succeeded(),
		"failed", manifest.Failed(),
	)

	result := &model.CloneResult{
		URL:        target,
		OutputDir:  siteDir,
		EntryFile:  filepath.Join(siteDir, manifest.EntryFile),
		ReportPath: reportPath,
		AssetCount: manifest.AssetCount(),
		Succeeded:  manifest.Succeeded(),
		Failed:     manifest.Failed(),
		ClonedAt:   manifest.ClonedAt,
	}
	return result, manifest, nil
}

// writeInfoFile writes clone_info.md into the site directory.
func (c *Cloner) writeInfoFile(siteDir string, manifest *model.Manifest) (string, error) {
	infoPath := filepath.Join(siteDir, InfoFileName)

	f, err := os.OpenFile(infoPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Path is derived from sanitized host
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // Write errors are surfaced below

	if _, err := report.NewMarkdownWriter(f).WriteClone(manifest); err != nil {
		return "", err
	}

	return infoPath, nil
}

// siteDirName derives the per-site directory name from the target URL.
func siteDirName(target string) string {
	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	}
	name := unsafeDirChars.ReplaceAllString(host, "_")
	if name == "" {
		name = "site"
	}
	return name
}

// normalizeTarget prepends https:// when the target has no scheme.
func normalizeTarget(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "https://" + trimmed
	}
	return trimmed
}
