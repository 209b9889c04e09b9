package semconv

// Run
const (
	// Unique ID of a single run. Regenerated for every triggering event.
	RunID = "run_id"

	// Event tag that triggered the run.
	Event = "event"
)

// Job & Step
const (
	// Name of the job as declared in the workflow file.
	Job = "job"

	// Zero-based position of the step within its job. Stable across runs of
	// the same definition since step order is declaration order.
	StepIndex = "step_index"

	// Display name of the step.
	Step = "step"
)
