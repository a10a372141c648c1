package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ramaerik/webscout/internal/config"
	"github.com/ramaerik/webscout/internal/database"
	"github.com/ramaerik/webscout/internal/model"
	"github.com/ramaerik/webscout/internal/render"
	"github.com/ramaerik/webscout/internal/scraper"
	"github.com/spf13/cobra"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url]...",
		Short: "Scrape pages into Markdown analysis reports",
		Long: `Scrape fetches each page, extracts its HTML, CSS, and metadata, and
writes one Markdown report per page.

The report contains the page metadata (title, description, keywords,
author, language, charset, canonical URL, Open Graph tags), every
inline CSS block, the content of each external stylesheet, and the raw
HTML. External stylesheets are fetched through the same pacing gate as
the page itself.

Examples:
  # Scrape a single page
  webscout scrape https://example.com

  # Scrape multiple pages concurrently
  webscout scrape --batch 4 example.com example.org example.net

  # Render script-built markup through headless Chrome first
  webscout scrape --render https://spa.example.com

  # Write JSON instead of Markdown
  webscout scrape --json https://example.com

Configuration file (.webscout) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      delay: 2s`,
		Args: cobra.ArbitraryArgs,
		RunE: runScrapeCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Minimum interval between consecutive requests")
	cmd.Flags().StringP("output", "o", config.DefaultScrapeDir,
		"Output directory for report files")
	cmd.Flags().StringP("user-agent", "u", "",
		"Override the User-Agent header")
	cmd.Flags().IntP("batch", "b", 1,
		"Number of concurrent scrapes")
	cmd.Flags().BoolP("render", "r", false,
		"Fetch pages through headless Chrome (requires local Chrome/Chromium)")
	cmd.Flags().BoolP("json", "j", false,
		"Write JSON reports instead of Markdown")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webscout in current or home directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, args []string) error {
	cfg, batch, err := buildScrapeConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(getVerboseFlag(cmd))

	ctx, cancel := setupContext(logger)
	defer cancel()

	db := openHistory(cfg, logger)
	if db != nil {
		defer db.Close() //nolint:errcheck // Nothing to do on close failure
	}

	if len(cfg.Targets) > 1 && batch > 1 {
		return runBatchScrape(ctx, cfg, batch, db, logger)
	}
	return runSequentialScrape(ctx, cfg, db, logger)
}

// buildScrapeConfig creates a Config from cobra command flags.
func buildScrapeConfig(cmd *cobra.Command, args []string) (*config.Config, int, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, 0, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, 0, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, 0, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, 0, err
	}

	cfg.Render, err = cmd.Flags().GetBool("render")
	if err != nil {
		return nil, 0, err
	}

	cfg.JSONOutput, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, 0, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, 0, err
	}

	cfg.NoHistory, err = cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, 0, err
	}

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, 0, err
	}

	if err := loadSiteConfigs(cfg); err != nil {
		return nil, 0, err
	}

	cfg.Targets = args

	return cfg, batch, nil
}

// newScraperForTarget builds a Scraper whose fetcher honors the
// target's site-specific config. In render mode the headless browser
// fetches the page and its stylesheets instead.
func newScraperForTarget(cfg *config.Config, target string, logger *slog.Logger) *scraper.Scraper {
	var fetcher scraper.Fetcher
	if cfg.Render {
		fetcher = render.New(
			render.WithUserAgent(cfg.UserAgent),
			render.WithLogger(logger),
		)
	} else {
		fetcher = newFetcherForTarget(cfg, target, logger)
	}

	return scraper.New(fetcher, cfg.OutputDir,
		scraper.WithLogger(logger),
		scraper.WithJSONOutput(cfg.JSONOutput),
	)
}

// runSequentialScrape scrapes targets one at a time.
func runSequentialScrape(ctx context.Context, cfg *config.Config, db *database.HistoryDB, logger *slog.Logger) error {
	var firstErr error
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Scraping %s...\n", target)
		startTime := time.Now()

		s := newScraperForTarget(cfg, target, logger)
		result, err := s.Scrape(ctx, target)
		if err != nil {
			logger.Error("scrape failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scrape error for %s: %v\n", target, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		fmt.Printf("Report written to %s (%s)\n\n", result.FilePath,
			time.Since(startTime).Round(time.Millisecond))

		saveRun(ctx, db, scrapeRunRecord(result), logger)
	}

	return firstErr
}

// runBatchScrape scrapes multiple targets concurrently.
func runBatchScrape(ctx context.Context, cfg *config.Config, batch int, db *database.HistoryDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch scrape of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), batch)

	// Each scraper in the batch gets its own pacing gate; per-site
	// overrides still apply because the factory result depends only on
	// global config, and site options are resolved per fetch target.
	bp := scraper.NewBatchProcessor(
		func() *scraper.Scraper {
			return newScraperForTarget(cfg, "", logger)
		},
		scraper.WithConcurrency(batch),
		scraper.WithBatchLogger(logger),
	)

	results, err := bp.ProcessBatch(ctx, cfg.Targets)
	if err != nil {
		return err
	}

	var failures int
	for i, r := range results {
		if r.Err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "[%d/%d] %s: %v\n", i+1, len(results), r.URL, r.Err)
			continue
		}
		fmt.Printf("[%d/%d] %s -> %s\n", i+1, len(results), r.URL, r.Result.FilePath)
		saveRun(ctx, db, scrapeRunRecord(r.Result), logger)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d scrapes failed", failures, len(results))
	}
	return nil
}

// scrapeRunRecord builds the history record for a completed scrape.
func scrapeRunRecord(result *model.ScrapeResult) *database.RunRecord {
	return &database.RunRecord{
		Mode:       database.ModeScrape,
		Target:     result.URL,
		OutputPath: result.FilePath,
		Detail: map[string]any{
			"html_length": result.HTMLLength,
			"css_count":   result.CSSCount,
			"title":       result.Metadata.Title,
		},
	}
}
