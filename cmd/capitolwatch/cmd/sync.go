package cmd

import (
	"github.com/spf13/cobra"

	"github.com/capitolwatch/capitolwatch/internal/orchestrate"
)

var (
	flagOnly     []string
	flagSkip     []string
	flagSkipSlow bool
	flagDryRun   bool
	flagState    string
	flagLimit    int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the full ingestion pipeline",
	Long: `Sync runs all ingestion jobs in dependency order:

  members        current members of Congress (Congress.gov)
  bills          legislation with status and summaries (Congress.gov)
  votes          House roll calls with individual ballots (Congress.gov + House Clerk)
  contributions  itemized campaign donations (FEC)
  embeddings     semantic vectors over bill text (Gemini)

A failed job skips its dependents; independent jobs keep running. The exit
code is non-zero when any job failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newSyncApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close(ctx)

		opts := orchestrate.Options{
			Only:     flagOnly,
			Skip:     flagSkip,
			SkipSlow: flagSkipSlow,
		}
		return app.runJobs(ctx, app.runContext(flagState, flagLimit), opts, flagDryRun)
	},
}

func init() {
	syncCmd.Flags().StringSliceVar(&flagOnly, "only", nil,
		"run only these jobs (dependencies are pulled in automatically)")
	syncCmd.Flags().StringSliceVar(&flagSkip, "skip", nil,
		"skip these jobs")
	syncCmd.Flags().BoolVar(&flagSkipSlow, "skip-slow", false,
		"skip jobs marked slow (bills, votes, contributions, embeddings)")
	syncCmd.Flags().BoolVar(&flagDryRun, "dry-run", false,
		"print the execution plan without running anything")
	syncCmd.Flags().StringVar(&flagState, "state", "",
		"restrict member ingestion to one two-letter state code")
	syncCmd.Flags().IntVar(&flagLimit, "limit", 0,
		"cap records processed per job (0 = no cap)")

	rootCmd.AddCommand(syncCmd)
}
