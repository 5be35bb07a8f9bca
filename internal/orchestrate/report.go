package orchestrate

import (
	"fmt"
	"strings"
	"time"

	"github.com/capitolwatch/capitolwatch/internal/ingest"
)

// JobStatus is the terminal state of one job in a run.
type JobStatus string

// JobStatus values.
const (
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusSkipped   JobStatus = "skipped"
)

// JobReport is one job's outcome within a run.
type JobReport struct {
	ID     string            `json:"id"`
	Status JobStatus         `json:"status"`
	Stats  *ingest.RunStats  `json:"stats,omitempty"`
	Err    error             `json:"-"`
	Reason string            `json:"reason,omitempty"` // why a job was skipped
}

// Report is the outcome of a whole sync run, jobs in execution order.
type Report struct {
	Jobs       []JobReport `json:"jobs"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Failed reports whether any job failed.
func (r *Report) Failed() bool {
	for _, j := range r.Jobs {
		if j.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Duration is the run's wall-clock time.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// String renders the human summary the CLI prints after a run.
func (r *Report) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sync finished in %s\n", r.Duration().Round(time.Millisecond)))
	for _, j := range r.Jobs {
		switch j.Status {
		case StatusSucceeded:
			s := j.Stats
			sb.WriteString(fmt.Sprintf("  %-14s ok      %d processed (%d created, %d updated, %d unchanged, %d failed) in %s\n",
				j.ID, s.Processed, s.Created, s.Updated, s.Unchanged, s.Failed,
				s.Duration().Round(time.Millisecond)))
		case StatusFailed:
			sb.WriteString(fmt.Sprintf("  %-14s FAILED  %v\n", j.ID, j.Err))
		case StatusSkipped:
			sb.WriteString(fmt.Sprintf("  %-14s skipped %s\n", j.ID, j.Reason))
		}
	}
	return sb.String()
}
