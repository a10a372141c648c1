package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ramaerik/webscout/internal/config"
	"github.com/ramaerik/webscout/internal/database"
	"github.com/ramaerik/webscout/internal/dnscheck"
	"github.com/ramaerik/webscout/internal/report"
	"github.com/spf13/cobra"
)

// NewDNSCmd creates the dns command.
func NewDNSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dns [domain]...",
		Short: "Inspect a domain's DNS records and reachability",
		Long: `DNS looks up the common record types (A, AAAA, CNAME, MX, NS, TXT)
for each domain, performs reverse DNS on the resolved addresses, and
probes HTTP and HTTPS reachability.

The report is printed to stdout in Markdown (or JSON with --json).

Examples:
  # Inspect a domain
  webscout dns example.com

  # Accepts full URLs too; the domain is extracted
  webscout dns https://example.com/some/page

  # JSON output for tooling
  webscout dns --json example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runDNSCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultDNSTimeout,
		"Timeout for each DNS lookup and HTTP probe")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON instead of Markdown")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")

	return cmd
}

// runDNSCmd executes the dns command.
func runDNSCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return config.ErrNoTarget
	}

	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))

	ctx, cancel := setupContext(logger)
	defer cancel()

	cfg := config.NewConfig()
	cfg.NoHistory = noHistory
	db := openHistory(cfg, logger)
	if db != nil {
		defer db.Close() //nolint:errcheck // Nothing to do on close failure
	}

	checker := dnscheck.New(
		dnscheck.WithTimeout(timeout),
		dnscheck.WithLogger(logger),
	)

	return runDNSChecks(ctx, checker, args, jsonOutput, db, logger)
}

// runDNSChecks inspects each domain and prints its report.
func runDNSChecks(ctx context.Context, checker *dnscheck.Checker, targets []string, jsonOutput bool, db *database.HistoryDB, logger *slog.Logger) error {
	var w report.Writer
	if jsonOutput {
		w = report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
	} else {
		w = report.NewMarkdownWriter(os.Stdout)
	}

	var firstErr error
	for _, target := range targets {
		dnsReport, err := checker.Check(ctx, target)
		if err != nil {
			logger.Error("dns check failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "DNS check error for %s: %v\n", target, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if _, err := w.WriteDNS(dnsReport); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		saveRun(ctx, db, &database.RunRecord{
			Mode:   database.ModeDNS,
			Target: dnsReport.Domain,
			Detail: map[string]any{
				"resolved_ips": dnsReport.ResolvedIPs(),
			},
		}, logger)
	}

	return firstErr
}
