package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ramaerik/webscout/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of scraping one URL in a batch run.
// Err is set when the scrape failed; Result is nil in that case.
type BatchResult struct {
	URL    string
	Result *model.ScrapeResult
	Err    error
}

// BatchProcessor handles concurrent scraping of multiple URLs.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Scraper because:
// 1. It keeps the Scraper focused on single-page runs
// 2. Each worker needs its own Scraper (the pacing gate is per-fetcher,
//    so sharing one would serialize the whole batch)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// scraperFactory creates a fresh Scraper for each URL.
	// A factory ensures each scrape gets its own pacing gate.
	scraperFactory func() *Scraper

	// concurrency is the maximum number of concurrent scrapes.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed scrape outcomes.
	// Access is synchronized via mutex.
	results []BatchResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scrapes.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The scraperFactory function is called for each URL to create a fresh
// Scraper instance. This ensures pacing state doesn't leak between
// scrapes and allows per-scrape customization if needed.
func NewBatchProcessor(scraperFactory func() *Scraper, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		scraperFactory: scraperFactory,
		concurrency:    4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch scrapes multiple URLs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each URL gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all results in input order, including failed scrapes.
// The error return indicates whether the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]BatchResult, error) {
	bp.logger.Info("starting batch scrape",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]BatchResult, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range urls {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("scraping",
				"url", target,
				"index", i+1,
				"total", len(urls),
			)

			s := bp.scraperFactory()
			result, err := s.Scrape(ctx, target)

			// Store the outcome regardless of error so partial batch
			// failures never discard the successful scrapes.
			bp.mu.Lock()
			bp.results[i] = BatchResult{URL: target, Result: result, Err: err}
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("scrape failed",
					"url", target,
					"error", err,
				)
				// Don't return the error to errgroup - other scrapes
				// should continue.
				return nil
			}

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch scrape complete",
		"total_urls", len(urls),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}
