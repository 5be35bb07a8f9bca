// Package orchestrate runs ingestion jobs in dependency order. The graph
// is static and validated up front; execution is strictly sequential, and a
// failed job skips its transitive dependents while unrelated branches keep
// running.
package orchestrate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/capitolwatch/capitolwatch/internal/ingest"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
	"github.com/capitolwatch/capitolwatch/pkg/logging"
)

// Orchestrator owns the registered jobs and their execution order.
type Orchestrator struct {
	jobs  map[string]ingest.Ingester
	order []string // topological, deterministic
}

// Options selects which jobs a run includes.
type Options struct {
	// Only restricts the run to these jobs plus their transitive
	// dependencies. Empty means all jobs.
	Only []string

	// Skip excludes jobs by ID. A skipped job's dependents still run;
	// their dependency data is assumed to be in the store already.
	Skip []string

	// SkipSlow excludes jobs marked slow.
	SkipSlow bool
}

// New registers jobs and validates the graph: every declared dependency
// must exist and the graph must be acyclic.
func New(jobs ...ingest.Ingester) (*Orchestrator, error) {
	o := &Orchestrator{jobs: make(map[string]ingest.Ingester, len(jobs))}
	for _, j := range jobs {
		if _, dup := o.jobs[j.ID()]; dup {
			return nil, errors.NewConfigError("orchestrator", fmt.Sprintf("duplicate job %q", j.ID()), nil)
		}
		o.jobs[j.ID()] = j
	}
	for _, j := range jobs {
		for _, dep := range j.Dependencies() {
			if _, ok := o.jobs[dep]; !ok {
				return nil, errors.NewConfigError("orchestrator",
					fmt.Sprintf("job %q depends on unknown job %q", j.ID(), dep), nil)
			}
		}
	}

	order, err := topoSort(o.jobs)
	if err != nil {
		return nil, err
	}
	o.order = order
	return o, nil
}

// topoSort orders jobs so dependencies come first. Ready jobs are taken in
// lexical order, so the result is deterministic for a given graph.
func topoSort(jobs map[string]ingest.Ingester) ([]string, error) {
	indegree := make(map[string]int, len(jobs))
	dependents := make(map[string][]string, len(jobs))
	for id, j := range jobs {
		indegree[id] += 0
		for _, dep := range j.Dependencies() {
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []string
	for id, n := range indegree {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(jobs))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var unlocked []string
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				unlocked = append(unlocked, dep)
			}
		}
		sort.Strings(unlocked)
		ready = mergeSorted(ready, unlocked)
	}

	if len(order) != len(jobs) {
		return nil, errors.NewConfigError("orchestrator", "dependency cycle between jobs", nil)
	}
	return order, nil
}

func mergeSorted(a, b []string) []string {
	out := append(a, b...)
	sort.Strings(out)
	return out
}

// Plan resolves the options into the ordered list of jobs a run will
// execute.
func (o *Orchestrator) Plan(opts Options) ([]string, error) {
	selected := make(map[string]bool, len(o.jobs))

	if len(opts.Only) == 0 {
		for id := range o.jobs {
			selected[id] = true
		}
	} else {
		// Only pulls in transitive dependencies so a requested job can
		// actually run.
		var include func(id string) error
		include = func(id string) error {
			j, ok := o.jobs[id]
			if !ok {
				return errors.NewConfigError("orchestrator", fmt.Sprintf("unknown job %q", id), nil)
			}
			if selected[id] {
				return nil
			}
			selected[id] = true
			for _, dep := range j.Dependencies() {
				if err := include(dep); err != nil {
					return err
				}
			}
			return nil
		}
		for _, id := range opts.Only {
			if err := include(id); err != nil {
				return nil, err
			}
		}
	}

	for _, id := range opts.Skip {
		if _, ok := o.jobs[id]; !ok {
			return nil, errors.NewConfigError("orchestrator", fmt.Sprintf("unknown job %q", id), nil)
		}
		delete(selected, id)
	}
	if opts.SkipSlow {
		for id, j := range o.jobs {
			if j.Slow() {
				delete(selected, id)
			}
		}
	}

	plan := make([]string, 0, len(selected))
	for _, id := range o.order {
		if selected[id] {
			plan = append(plan, id)
		}
	}
	return plan, nil
}

// Run executes the planned jobs sequentially. A job whose dependency
// failed or was itself skipped due to failure is marked skipped; jobs
// excluded from the plan are treated as already satisfied.
func (o *Orchestrator) Run(ctx context.Context, rc ingest.RunContext, opts Options) (*Report, error) {
	plan, err := o.Plan(opts)
	if err != nil {
		return nil, err
	}

	report := &Report{StartedAt: time.Now().UTC()}
	unrunnable := map[string]string{} // job -> upstream job that failed

	log := logging.Ctx(ctx)
	for _, id := range plan {
		job := o.jobs[id]

		if upstream, blocked := o.blockedBy(job, unrunnable); blocked {
			reason := fmt.Sprintf("upstream job %q failed", upstream)
			log.Warn().Str("job", id).Str("reason", reason).Msg("skipping job")
			report.Jobs = append(report.Jobs, JobReport{
				ID: id, Status: StatusSkipped, Reason: reason,
			})
			unrunnable[id] = upstream
			continue
		}

		log.Info().Str("job", id).Msg("starting job")
		stats, err := job.Run(ctx, rc)
		jr := JobReport{ID: id, Stats: stats}
		if err != nil {
			jr.Status = StatusFailed
			jr.Err = err
			unrunnable[id] = id
			log.Error().Str("job", id).Err(err).Msg("job failed")
		} else {
			jr.Status = StatusSucceeded
		}
		report.Jobs = append(report.Jobs, jr)

		if ctx.Err() != nil {
			break
		}
	}

	report.FinishedAt = time.Now().UTC()
	return report, nil
}

// blockedBy reports whether any of the job's dependencies (direct, with
// failures propagated transitively through unrunnable) cannot provide data.
func (o *Orchestrator) blockedBy(job ingest.Ingester, unrunnable map[string]string) (string, bool) {
	for _, dep := range job.Dependencies() {
		if root, ok := unrunnable[dep]; ok {
			return root, true
		}
	}
	return "", false
}
