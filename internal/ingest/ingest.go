// Package ingest implements the ETL jobs that pull legislators, bills,
// votes, and contributions from their sources into the store. Every job
// follows the same contract: fetch raw records, transform each into a
// canonical entity, and load it with an idempotent upsert. A malformed
// record is counted and skipped; only a source-level failure aborts a job.
package ingest

import (
	"context"
	"time"

	"github.com/capitolwatch/capitolwatch/internal/store"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
	"github.com/capitolwatch/capitolwatch/pkg/logging"
)

// Ingester is one ingestion job. The orchestrator schedules jobs by ID and
// skips a job when any of its dependencies failed.
type Ingester interface {
	// ID is the job name used in dependency declarations and CLI flags.
	ID() string

	// Dependencies lists the job IDs that must succeed first.
	Dependencies() []string

	// Slow reports whether the job is expensive enough that --skip-slow
	// excludes it.
	Slow() bool

	// Run executes the job. A returned error means the job as a whole
	// failed; per-record problems land in RunStats instead.
	Run(ctx context.Context, rc RunContext) (*RunStats, error)
}

// RunContext carries the scope of a sync run into each job.
type RunContext struct {
	// Congress is the congress number to sync, e.g. 119.
	Congress int

	// State restricts member ingestion to one two-letter state code.
	// Empty means all states.
	State string

	// Limit caps how many records a job processes. Zero means no cap.
	Limit int
}

// Full reports whether the run covers the whole population, which is the
// precondition for destructive-ish cleanup like the departed-member sweep.
func (rc RunContext) Full() bool {
	return rc.State == "" && rc.Limit == 0
}

// Failure records one skipped record.
type Failure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// RunStats accumulates what a job did.
type RunStats struct {
	Job       string    `json:"job"`
	Processed int       `json:"processed"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewRunStats starts the clock for a job.
func NewRunStats(job string) *RunStats {
	return &RunStats{Job: job, StartedAt: time.Now().UTC()}
}

// Finish stamps the end time and returns the stats for convenience.
func (s *RunStats) Finish() *RunStats {
	s.FinishedAt = time.Now().UTC()
	return s
}

// Duration is the job's wall-clock time.
func (s *RunStats) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Record tallies one successful load.
func (s *RunStats) Record(outcome store.Outcome) {
	s.Processed++
	switch outcome {
	case store.OutcomeCreated:
		s.Created++
	case store.OutcomeUpdated:
		s.Updated++
	default:
		s.Unchanged++
	}
}

// Fail tallies one skipped record. The failure list is capped so a
// systematically broken source cannot balloon the report.
func (s *RunStats) Fail(key string, err error) {
	s.Processed++
	s.Failed++
	if len(s.Failures) < maxRecordedFailures {
		s.Failures = append(s.Failures, Failure{Key: key, Reason: err.Error()})
	}
}

const maxRecordedFailures = 50

// errLimitReached stops a fetch loop once the run's record cap is hit.
// Internal control flow, never returned to callers.
var errLimitReached = errors.New("record limit reached")

// pipeline wires a job's fetch, transform, and load stages.
// R is the raw source record, C the canonical entity.
type pipeline[R any, C any] struct {
	job string

	// key names a raw record for failure reporting.
	key func(R) string

	// fetch streams raw records through emit. Returning an error aborts
	// the job; errors from emit must be propagated unchanged.
	fetch func(ctx context.Context, rc RunContext, emit func(R) error) error

	// transform converts one raw record, fetching enrichment data where
	// the source splits an entity across endpoints. A ValidationError
	// skips the record; any other error aborts the job.
	transform func(ctx context.Context, rc RunContext, raw R) (C, error)

	// load writes one canonical entity to the store.
	load func(ctx context.Context, rc RunContext, entity C) (store.Outcome, error)
}

// run drives the pipeline and produces stats. Fetch failures become
// IngestErrors so the orchestrator can tell a dead source from a job that
// merely skipped some records.
func (p pipeline[R, C]) run(ctx context.Context, rc RunContext) (*RunStats, error) {
	stats := NewRunStats(p.job)
	log := logging.Ctx(ctx).With().Str("job", p.job).Logger()

	err := p.fetch(ctx, rc, func(raw R) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rc.Limit > 0 && stats.Processed >= rc.Limit {
			return errLimitReached
		}

		key := p.key(raw)
		entity, err := p.transform(ctx, rc, raw)
		if err != nil {
			if errors.IsValidation(err) {
				log.Warn().Str("record", key).Err(err).Msg("skipping malformed record")
				stats.Fail(key, err)
				return nil
			}
			return err
		}

		outcome, err := p.load(ctx, rc, entity)
		if err != nil {
			if errors.IsValidation(err) || errors.IsNotFound(err) {
				log.Warn().Str("record", key).Err(err).Msg("skipping unloadable record")
				stats.Fail(key, err)
				return nil
			}
			return err
		}
		stats.Record(outcome)
		return nil
	})

	stats.Finish()
	if err != nil && !errors.Is(err, errLimitReached) {
		return stats, errors.NewIngestError(p.job, "", err)
	}

	log.Info().
		Int("processed", stats.Processed).
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("unchanged", stats.Unchanged).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration()).
		Msg("job finished")
	return stats, nil
}
