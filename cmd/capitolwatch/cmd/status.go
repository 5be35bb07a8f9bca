package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capitolwatch/capitolwatch/internal/config"
	"github.com/capitolwatch/capitolwatch/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record counts per collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		st, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close(ctx) }()

		colls := []string{
			store.CollPoliticians,
			store.CollBills,
			store.CollVotes,
			store.CollPoliticianVotes,
			store.CollContributions,
		}
		for _, coll := range colls {
			n, err := st.CountDocuments(ctx, coll)
			if err != nil {
				return err
			}
			fmt.Printf("  %-18s %d\n", coll, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
