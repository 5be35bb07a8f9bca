// Package cmd implements the capitolwatch command tree.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capitolwatch/capitolwatch/pkg/logging"
)

// Version information set by main.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var (
	flagCongress int
	flagLogLevel string
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "capitolwatch",
	Short: "Congressional data ingestion pipeline",
	Long: `Capitolwatch synchronizes congressional data into a local document
store: current members of Congress, legislation, House roll call votes with
individual ballots, and itemized campaign contributions, plus semantic
embeddings over bill text.

Every write is an idempotent upsert keyed on stable identifiers, so runs
can be repeated and interrupted safely.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagLogLevel != "" {
			logging.SetLevel(flagLogLevel)
		}
	},
}

// Execute runs the command tree. Errors are printed here once; callers
// only decide the exit code.
func Execute(ctx context.Context, version, commit, date string) error {
	Version = version
	Commit = commit
	Date = date
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logging.Err(err).Msg("command failed")
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagCongress, "congress", 0,
		"congress number to sync (default from CONGRESS or built-in)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"log level: trace, debug, info, warn, error")
}
