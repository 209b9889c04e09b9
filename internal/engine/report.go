package engine

import (
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/artuross/workflow-engine/internal/workflow"
)

// Status is the lifecycle state of a job or step during one run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"

	// StatusSkipped is reachable only by steps, when an earlier step in the
	// same job failed or the job's environment could not be provisioned.
	StatusSkipped Status = "skipped"
)

// StepResult is the recorded outcome of one step.
type StepResult struct {
	Name     string
	Status   Status
	Duration time.Duration
	Output   []byte
	Err      error
}

// JobResult is the recorded outcome of one job, with its steps in
// declaration order.
type JobResult struct {
	Name     string
	Status   Status
	Duration time.Duration
	Steps    []StepResult
	Err      error
}

// Report is the aggregate outcome of a single run. It is a snapshot; the
// engine keeps no state between runs.
type Report struct {
	RunID string
	Event workflow.Event
	Jobs  []JobResult
}

// Success reports the run verdict: true iff every triggered job succeeded.
// A run that triggered no jobs succeeds vacuously.
func (r *Report) Success() bool {
	for _, job := range r.Jobs {
		if job.Status != StatusSucceeded {
			return false
		}
	}

	return true
}

// Err aggregates the errors of all failed jobs. Nil for a successful run.
func (r *Report) Err() error {
	var merr *multierror.Error

	for _, job := range r.Jobs {
		if job.Status == StatusFailed && job.Err != nil {
			merr = multierror.Append(merr, job.Err)
		}
	}

	return merr.ErrorOrNil()
}
