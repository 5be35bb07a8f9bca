package cmd

import (
	"github.com/spf13/cobra"

	"github.com/capitolwatch/capitolwatch/internal/orchestrate"
)

// singleJobCommand builds a subcommand that runs one job (with its
// dependencies assumed already synced, matching a targeted re-run).
func singleJobCommand(job, short string) *cobra.Command {
	var state string
	var limit int

	c := &cobra.Command{
		Use:   job,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newSyncApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			// Only the named job: its upstream data is taken as
			// already present in the store.
			opts := orchestrate.Options{Only: []string{job}}
			for _, dep := range dependenciesOf(job) {
				opts.Skip = append(opts.Skip, dep)
			}
			return app.runJobs(ctx, app.runContext(state, limit), opts, false)
		},
	}
	c.Flags().IntVar(&limit, "limit", 0, "cap records processed (0 = no cap)")
	if job == "members" || job == "contributions" {
		c.Flags().StringVar(&state, "state", "", "restrict to one two-letter state code")
	}
	return c
}

// dependenciesOf mirrors the static job graph for targeted re-runs.
func dependenciesOf(job string) []string {
	switch job {
	case "bills", "contributions":
		return []string{"members"}
	case "votes":
		return []string{"members", "bills"}
	case "embeddings":
		return []string{"members", "bills"}
	default:
		return nil
	}
}

func init() {
	rootCmd.AddCommand(
		singleJobCommand("members", "Sync current members of Congress"),
		singleJobCommand("bills", "Sync legislation for the configured congress"),
		singleJobCommand("votes", "Sync House roll call votes and ballots"),
		singleJobCommand("contributions", "Sync itemized campaign contributions"),
		singleJobCommand("embeddings", "Compute embeddings for bill text"),
	)
}
