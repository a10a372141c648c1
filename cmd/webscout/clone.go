package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ramaerik/webscout/internal/config"
	"github.com/ramaerik/webscout/internal/database"
	"github.com/ramaerik/webscout/internal/mirror"
	"github.com/ramaerik/webscout/internal/model"
	"github.com/spf13/cobra"
)

// NewCloneCmd creates the clone command.
func NewCloneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone [url]...",
		Short: "Mirror a site's static assets for offline viewing",
		Long: `Clone downloads a page and every static asset it references
(stylesheets, scripts, images, fonts) into a local directory, rewriting
references so the mirror is viewable offline.

Each site is mirrored into <output>/<host>/ with an index.html entry
file and a clone_info.md manifest. Assets that fail to download keep
their original remote URLs in the rewritten markup; a partial mirror
is still written and reported.

Examples:
  # Mirror a site into mirrors/example.com/
  webscout clone https://example.com

  # Retry failed assets twice before giving up
  webscout clone --retries 2 https://example.com

  # Slow down for a rate-limited site
  webscout clone --delay 3s https://example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runCloneCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Minimum interval between consecutive requests")
	cmd.Flags().StringP("output", "o", config.DefaultCloneDir,
		"Base directory for mirrored sites")
	cmd.Flags().StringP("user-agent", "u", "",
		"Override the User-Agent header")
	cmd.Flags().IntP("retries", "R", config.DefaultRetries,
		"Retry attempts per failed asset")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webscout in current or home directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")

	return cmd
}

// runCloneCmd executes the clone command.
func runCloneCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCloneConfig(cmd, args)
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

	return runClones(ctx, cfg, db, logger)
}

// buildCloneConfig creates a Config from cobra command flags.
func buildCloneConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.Retries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.NoHistory, err = cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}

	if err := loadSiteConfigs(cfg); err != nil {
		return nil, err
	}

	cfg.Targets = args

	return cfg, nil
}

// runClones mirrors targets one at a time. Mirroring is sequential by
// design: the pacing gate makes parallel asset fetches against the
// same site pointless, and distinct sites rarely share a run.
func runClones(ctx context.Context, cfg *config.Config, db *database.HistoryDB, logger *slog.Logger) error {
	var firstErr error
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Cloning %s...\n", target)
		startTime := time.Now()

		fetcher := newFetcherForTarget(cfg, target, logger)
		cloner := mirror.NewCloner(fetcher, cfg.OutputDir,
			mirror.WithClonerRetries(cfg.Retries),
			mirror.WithClonerLogger(logger),
		)

		result, manifest, err := cloner.Clone(ctx, target)
		if err != nil {
			logger.Error("clone failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Clone error for %s: %v\n", target, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		fmt.Printf("Mirrored %d/%d assets into %s (%s)\n",
			result.Succeeded, result.AssetCount, result.OutputDir,
			time.Since(startTime).Round(time.Millisecond))
		if result.Failed > 0 {
			fmt.Printf("%d assets failed; see %s\n", result.Failed, result.ReportPath)
		}
		fmt.Println()

		saveRun(ctx, db, cloneRunRecord(result, manifest), logger)
	}

	return firstErr
}

// cloneRunRecord builds the history record for a completed clone.
func cloneRunRecord(result *model.CloneResult, manifest *model.Manifest) *database.RunRecord {
	record := &database.RunRecord{
		Mode:       database.ModeClone,
		Target:     result.URL,
		OutputPath: result.OutputDir,
		AssetCount: result.AssetCount,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
	}
	if manifest != nil {
		record.Detail = map[string]any{
			"entry_file": manifest.EntryFile,
		}
	}
	return record
}
