package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/capitolwatch/capitolwatch/internal/config"
	"github.com/capitolwatch/capitolwatch/internal/embeddings"
	"github.com/capitolwatch/capitolwatch/internal/fetch"
	"github.com/capitolwatch/capitolwatch/internal/ingest"
	"github.com/capitolwatch/capitolwatch/internal/orchestrate"
	"github.com/capitolwatch/capitolwatch/internal/store"
	"github.com/capitolwatch/capitolwatch/pkg/constants"
	"github.com/capitolwatch/capitolwatch/pkg/logging"
)

// syncApp holds everything a sync run needs.
type syncApp struct {
	cfg   *config.Config
	store *store.Store
	orch  *orchestrate.Orchestrator
}

// newSyncApp loads configuration, connects the store, and assembles the
// job graph. Close must be called when done.
func newSyncApp(ctx context.Context) (*syncApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	st, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = st.Close(ctx)
		return nil, err
	}

	congressClient := fetch.NewCongressClient(cfg.CongressAPIKey)
	fecClient := fetch.NewFECClient(cfg.FECAPIKey)
	embedder := embeddings.NewDeferredGeminiEmbedder(cfg.GeminiAPIKey)

	orch, err := orchestrate.New(
		ingest.NewMembers(congressClient, st),
		ingest.NewBills(congressClient, st),
		ingest.NewVotes(congressClient, st),
		ingest.NewContributions(fecClient, st),
		embeddings.NewIndexer(embedder, st),
	)
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}

	return &syncApp{cfg: cfg, store: st, orch: orch}, nil
}

// Close releases the store connection.
func (a *syncApp) Close(ctx context.Context) {
	if err := a.store.Close(ctx); err != nil {
		logging.Warn().Err(err).Msg("closing store")
	}
}

// runContext builds the RunContext from config and flags. The --congress
// flag wins over the environment.
func (a *syncApp) runContext(state string, limit int) ingest.RunContext {
	congress := a.cfg.Congress
	if flagCongress > 0 {
		congress = flagCongress
	}
	return ingest.RunContext{Congress: congress, State: state, Limit: limit}
}

// checkKeys verifies that every planned job has the API key it needs, so a
// misconfigured run fails before any work starts.
func (a *syncApp) checkKeys(plan []string) error {
	for _, id := range plan {
		var err error
		switch id {
		case "members", "bills", "votes":
			_, err = a.cfg.RequireCongressKey()
		case "contributions":
			_, err = a.cfg.RequireFECKey()
		case "embeddings":
			_, err = a.cfg.RequireGeminiKey()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// runJobs plans, validates, and executes, printing the report. Returns an
// error when any job failed so the process exits non-zero.
func (a *syncApp) runJobs(ctx context.Context, rc ingest.RunContext, opts orchestrate.Options, dryRun bool) error {
	plan, err := a.orch.Plan(opts)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		return fmt.Errorf("nothing to run: every job was excluded")
	}

	if dryRun {
		fmt.Println("Would run, in order:")
		for _, id := range plan {
			fmt.Printf("  %s\n", id)
		}
		return nil
	}

	if err := a.checkKeys(plan); err != nil {
		return err
	}

	ctx = logging.WithRunID(ctx, uuid.NewString())
	ctx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
	defer cancel()

	report, err := a.orch.Run(ctx, rc, opts)
	if err != nil {
		return err
	}

	fmt.Print(report.String())
	if report.Failed() {
		return fmt.Errorf("one or more jobs failed")
	}
	return nil
}
