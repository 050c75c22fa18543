// Observability dashboard helper for Elastic APM deployments
// Discovers business-signal fields in trace indices and prints example
// ESQL snippets ready to paste into a dashboard
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "o11ybot",
		Short:        "Discover dashboard-worthy signals in Elastic APM indices",
		SilenceUsage: true,
	}

	root.AddCommand(analyzeCmd())
	root.AddCommand(pingCmd())
	root.AddCommand(versionCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "o11ybot %s (commit: %s, built: %s)\n", version, commit, buildTime)
		},
	}
}
