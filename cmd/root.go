// Package cmd implements the command-line interface for the aggregator.
package cmd

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/aggregator/cmd/common"
	"github.com/jonesrussell/north-cloud/aggregator/cmd/crawl"
	"github.com/jonesrussell/north-cloud/aggregator/cmd/migrate"
	"github.com/jonesrussell/north-cloud/aggregator/cmd/schedule"
	"github.com/jonesrussell/north-cloud/aggregator/cmd/serve"
)

var rootCmd = &cobra.Command{
	Use:   "aggregator",
	Short: "Smart content aggregator",
	Long: `Crawls configured sources, tells article pages from listings, extracts and
deduplicates articles, and enriches them with LLM summaries.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String(common.FlagConfig, "",
		"config file (default is ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().Bool(common.FlagDebug, false, "enable debug logging")

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(serve.Command())
	rootCmd.AddCommand(schedule.Command())
	rootCmd.AddCommand(migrate.Command())
}
