package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ramaerik/webscout/internal/crawler"
	"github.com/ramaerik/webscout/internal/fetch"
	"github.com/ramaerik/webscout/internal/model"
)

// retryWait is the pause before re-fetching a failed asset when retries
// are configured. Matches the pacing default so retry traffic stays
// polite.
const retryWait = 1 * time.Second

// EntryFileName is the name of the rewritten HTML entry file.
const EntryFileName = "index.html"

// Writer orchestrates a mirror run: it drives every asset through the
// PENDING -> FETCHING -> {STORED | FAILED} state machine, stores the
// bytes, and finally rewrites the page.
type Writer struct {
	// fetcher performs all downloads, sharing its pacing gate with the
	// initial page fetch.
	fetcher *fetch.Fetcher

	// resolver supplies nested url() extraction for fetched stylesheets.
	// It carries the run's dedup state, so nested references that were
	// already discovered in the page are not fetched twice.
	resolver *crawler.Resolver

	// mapper assigns local paths.
	mapper *PathMapper

	// outputDir is the run's output directory.
	outputDir string

	// retries is the number of additional fetch attempts per asset
	// after the first failure. Zero means no retry.
	retries int

	// logger for structured logging.
	logger *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithRetries sets the per-asset retry bound. The default is zero:
// an asset that fails once is recorded as failed. A bounded retry is
// the caller's decision, never automatic.
func WithRetries(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.retries = n
		}
	}
}

// WithWriterLogger sets a custom logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer that stores assets under outputDir.
// The resolver must be the same instance that produced the run's asset
// references so deduplication spans the whole run.
func NewWriter(fetcher *fetch.Fetcher, resolver *crawler.Resolver, outputDir string, opts ...WriterOption) *Writer {
	w := &Writer{
		fetcher:   fetcher,
		resolver:  resolver,
		mapper:    NewPathMapper(),
		outputDir: outputDir,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.Default()
	}

	return w
}

// Mirror processes every asset reference sequentially, writes the
// rewritten page, and returns the run manifest.
//
// The manifest is returned even when assets fail; callers must inspect
// per-asset outcomes. The returned error is non-nil only when the
// rewritten entry page cannot be written — the one filesystem failure
// that makes the whole mirror unusable.
func (w *Writer) Mirror(ctx context.Context, doc *model.PageDocument, refs []model.AssetReference) (*model.Manifest, error) {
	manifest := &model.Manifest{
		URL:       doc.URL,
		EntryFile: EntryFileName,
		OutputDir: w.outputDir,
		ClonedAt:  time.Now(),
	}

	// stored maps absolute URLs to local relative paths for rewriting.
	stored := make(map[string]string)

	// Stylesheets can reference further assets; process as a queue so
	// nested discoveries join the same run under the same pacing gate.
	queue := make([]model.AssetReference, len(refs))
	copy(queue, refs)

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]

		mapped := w.mapper.Map(ref.AbsoluteURL)
		outcome := w.processAsset(ctx, ref, mapped, stored, &queue)
		manifest.Outcomes = append(manifest.Outcomes, outcome)
	}

	// All assets are terminal. Stylesheets are rewritten only now, when
	// the fate of every nested asset is known, so no stored file ever
	// points at a local path that does not exist.
	w.rewriteStoredStylesheets(manifest, stored)

	rewriteDocument(doc, stored)
	if err := w.writeEntryFile(doc); err != nil {
		return manifest, err
	}

	w.logger.Info("mirror complete",
		"url", doc.URL,
		"assets", manifest.AssetCount(),
		"stored", manifest.Succeeded(),
		"failed", manifest.Failed(),
	)

	return manifest, nil
}

// processAsset drives one asset to a terminal state.
func (w *Writer) processAsset(ctx context.Context, ref model.AssetReference, mapped model.MappedPath, stored map[string]string, queue *[]model.AssetReference) model.AssetOutcome {
	outcome := model.AssetOutcome{
		Ref:   ref,
		Path:  mapped,
		State: model.StatePending,
	}

	var lastErr error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				outcome.State = model.StateFailed
				outcome.Reason = ctx.Err().Error()
				return outcome
			case <-time.After(retryWait):
			}
		}

		outcome.State = model.StateFetching
		outcome.Attempts = attempt + 1

		result, err := w.fetcher.Fetch(ctx, ref.AbsoluteURL)
		if err != nil {
			lastErr = err
			w.logger.Debug("asset fetch failed",
				"url", ref.AbsoluteURL,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if err := w.storeAsset(ref, mapped, result.Body, queue); err != nil {
			lastErr = err
			continue
		}

		outcome.State = model.StateStored
		stored[ref.AbsoluteURL] = mapped.LocalRelativePath
		return outcome
	}

	outcome.State = model.StateFailed
	if lastErr != nil {
		outcome.Reason = lastErr.Error()
	}
	return outcome
}

// storeAsset writes asset bytes to the mapped path, creating parent
// directories as needed. Stylesheets additionally get their url()
// references extracted onto the queue; the CSS text itself is rewritten
// later, once every nested asset has reached a terminal state.
func (w *Writer) storeAsset(ref model.AssetReference, mapped model.MappedPath, body []byte, queue *[]model.AssetReference) error {
	if ref.Kind == model.AssetStylesheet {
		nested := w.resolver.ResolveCSS(string(body), ref.AbsoluteURL)
		if len(nested) > 0 {
			w.logger.Debug("stylesheet references nested assets",
				"stylesheet", ref.AbsoluteURL,
				"count", len(nested),
			)
			*queue = append(*queue, nested...)
		}
	}

	target := filepath.Join(w.outputDir, filepath.FromSlash(mapped.LocalRelativePath))
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}
	if err := os.WriteFile(target, body, 0600); err != nil {
		return fmt.Errorf("write asset: %w", err)
	}
	return nil
}

// rewriteStoredStylesheets rewrites url() references inside every stored
// stylesheet to local relative paths. References to assets that failed
// keep their original URL, the same fallback the HTML rewrite uses.
func (w *Writer) rewriteStoredStylesheets(manifest *model.Manifest, stored map[string]string) {
	for _, outcome := range manifest.Outcomes {
		if outcome.State != model.StateStored || outcome.Ref.Kind != model.AssetStylesheet {
			continue
		}

		target := filepath.Join(w.outputDir, filepath.FromSlash(outcome.Path.LocalRelativePath))
		body, err := os.ReadFile(target)
		if err != nil {
			w.logger.Warn("cannot reread stylesheet for rewriting", "path", target, "error", err)
			continue
		}

		rewritten := rewriteCSS(string(body), outcome.Ref.AbsoluteURL, outcome.Path.LocalRelativePath, stored)
		if rewritten == string(body) {
			continue
		}
		if err := os.WriteFile(target, []byte(rewritten), 0600); err != nil {
			w.logger.Warn("cannot rewrite stylesheet", "path", target, "error", err)
		}
	}
}

// writeEntryFile renders the rewritten document to the output directory.
func (w *Writer) writeEntryFile(doc *model.PageDocument) error {
	if err := os.MkdirAll(w.outputDir, 0750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	target := filepath.Join(w.outputDir, EntryFileName)
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create entry file: %w", err)
	}
	defer f.Close()

	if err := renderDocument(f, doc); err != nil {
		return fmt.Errorf("render entry file: %w", err)
	}
	return nil
}
