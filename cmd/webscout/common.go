package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/ramaerik/webscout/internal/config"
	"github.com/ramaerik/webscout/internal/database"
	"github.com/ramaerik/webscout/internal/fetch"
	"github.com/ramaerik/webscout/internal/log"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the sanitizing structured logger and installs it
// as the default.
func setupLogger(verbose bool) *slog.Logger {
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// setupContext returns a context cancelled on SIGINT/SIGTERM.
func setupContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// loadSiteConfigs loads the .webscout file per the config-path flag.
// An explicit path that doesn't exist is an error; otherwise a missing
// file just yields an empty config.
func loadSiteConfigs(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		sites, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Sites = sites
		return nil
	}

	if explicit {
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.Sites = &config.File{Sites: make(map[string]config.SiteConfig)}
	return nil
}

// newFetcherForTarget builds a Fetcher with the global settings plus
// any site-specific overrides for the target's host.
func newFetcherForTarget(cfg *config.Config, target string, logger *slog.Logger) *fetch.Fetcher {
	opts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithDelay(cfg.Delay),
		fetch.WithLogger(logger),
	}

	if cfg.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(cfg.UserAgent))
	}

	if cfg.Sites != nil {
		site := cfg.Sites.GetSiteConfig(hostOf(target))
		if site.Cookie != "" {
			opts = append(opts, fetch.WithCookie(site.Cookie))
		}
		if len(site.Headers) > 0 {
			opts = append(opts, fetch.WithHeaders(site.Headers))
		}
		if site.UserAgent != "" {
			opts = append(opts, fetch.WithUserAgent(site.UserAgent))
		}
		if site.Delay > 0 {
			opts = append(opts, fetch.WithDelay(site.Delay))
		}
	}

	return fetch.New(opts...)
}

// hostOf extracts the bare hostname from a URL or host string.
func hostOf(target string) string {
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return target
}

// openHistory opens the run-history database under the XDG data
// directory. History is best-effort: failures log a warning and the
// run continues without it.
func openHistory(cfg *config.Config, logger *slog.Logger) *database.HistoryDB {
	if cfg.NoHistory {
		return nil
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		return nil
	}
	return db
}

// saveRun records a run in history when the database is available.
func saveRun(ctx context.Context, db *database.HistoryDB, record *database.RunRecord, logger *slog.Logger) {
	if db == nil {
		return
	}
	if _, err := db.SaveRun(ctx, record); err != nil {
		logger.Warn("failed to save run history", "error", err)
	}
}
