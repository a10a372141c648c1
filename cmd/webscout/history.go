package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ramaerik/webscout/internal/config"
	"github.com/ramaerik/webscout/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past webscout runs",
		Long: `History lists past scrape, clone, dns, and tech runs recorded in the
local history database.

Examples:
  # List the last 20 runs
  webscout history

  # Only clone runs
  webscout history --mode clone

  # Runs for one target
  webscout history --target https://example.com`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("mode", "m", "",
		"Filter by run mode (scrape, clone, dns, tech)")
	cmd.Flags().StringP("target", "T", "",
		"Filter by target URL or domain")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 for all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	mode, err := cmd.Flags().GetString("mode")
	if err != nil {
		return err
	}
	target, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	setupLogger(getVerboseFlag(cmd))

	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no run history yet: %w", err)
	}
	defer db.Close() //nolint:errcheck // Nothing to do on close failure

	runs, err := db.ListRuns(cmd.Context(), mode, target, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching runs.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tMODE\tTARGET\tOUTPUT\tASSETS")
	for _, run := range runs {
		assets := "-"
		if run.Mode == database.ModeClone {
			assets = fmt.Sprintf("%d/%d", run.Succeeded, run.AssetCount)
		}
		output := run.OutputPath
		if output == "" {
			output = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04"),
			run.Mode,
			run.Target,
			output,
			assets,
		)
	}
	return w.Flush()
}
