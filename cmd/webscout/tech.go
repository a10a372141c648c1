package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ramaerik/webscout/internal/config"
	"github.com/ramaerik/webscout/internal/database"
	"github.com/ramaerik/webscout/internal/report"
	"github.com/ramaerik/webscout/internal/techdetect"
	"github.com/spf13/cobra"
)

// NewTechCmd creates the tech command.
func NewTechCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tech [url]...",
		Short: "Fingerprint the technologies behind a website",
		Long: `Tech fetches each page once and identifies the technologies behind it
from server headers, session cookies, the meta generator tag,
referenced script and stylesheet URLs, and markup patterns.

Detections are grouped by category (server, language, CMS, framework,
JavaScript, analytics, CDN) and printed to stdout in Markdown (or JSON
with --json).

Examples:
  # Fingerprint a site
  webscout tech https://example.com

  # JSON output for tooling
  webscout tech --json example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runTechCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Minimum interval between consecutive requests")
	cmd.Flags().StringP("user-agent", "u", "",
		"Override the User-Agent header")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON instead of Markdown")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webscout in current or home directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")

	return cmd
}

// runTechCmd executes the tech command.
func runTechCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return err
	}
	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return err
	}
	cfg.JSONOutput, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg.NoHistory, err = cmd.Flags().GetBool("no-history")
	if err != nil {
		return err
	}
	cfg.Targets = args

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := loadSiteConfigs(cfg); err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))

	ctx, cancel := setupContext(logger)
	defer cancel()

	db := openHistory(cfg, logger)
	if db != nil {
		defer db.Close() //nolint:errcheck // Nothing to do on close failure
	}

	return runTechAnalyses(ctx, cfg, db, logger)
}

// runTechAnalyses fingerprints each target and prints its report.
func runTechAnalyses(ctx context.Context, cfg *config.Config, db *database.HistoryDB, logger *slog.Logger) error {
	var w report.Writer
	if cfg.JSONOutput {
		w = report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
	} else {
		w = report.NewMarkdownWriter(os.Stdout)
	}

	var firstErr error
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fetcher := newFetcherForTarget(cfg, target, logger)
		analyzer := techdetect.New(fetcher, techdetect.WithLogger(logger))

		techReport, err := analyzer.Analyze(ctx, target)
		if err != nil {
			logger.Error("tech analysis failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Analysis error for %s: %v\n", target, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if _, err := w.WriteTech(techReport); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		saveRun(ctx, db, &database.RunRecord{
			Mode:       database.ModeTech,
			Target:     techReport.URL,
			StatusCode: techReport.StatusCode,
			Detail: map[string]any{
				"detections": len(techReport.Detections),
			},
		}, logger)
	}

	return firstErr
}
