// Package main provides the entry point for the webscout CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webscout.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webscout",
		Short: "Website analysis toolkit",
		Long: `webscout is a website analysis toolkit.

It scrapes pages into Markdown reports (HTML, CSS, metadata), mirrors
a site's static assets for offline viewing with rewritten references,
inspects DNS records, and fingerprints the technologies behind a site.

All HTTP requests within one run are paced with a minimum interval to
stay polite to the target site.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewCloneCmd())
	cmd.AddCommand(NewDNSCmd())
	cmd.AddCommand(NewTechCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
