// Package engine executes workflows: it selects jobs for a triggering event,
// runs each triggered job on its own environment in parallel, runs the job's
// steps strictly in order with fail-fast, and aggregates a run report.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/artuross/workflow-engine/internal/actions"
	"github.com/artuross/workflow-engine/internal/defaults"
	"github.com/artuross/workflow-engine/internal/environment"
	"github.com/artuross/workflow-engine/internal/log/semconv"
	"github.com/artuross/workflow-engine/internal/util/timeutil"
	"github.com/artuross/workflow-engine/internal/workflow"
)

const (
	// TODO: may want to do it via debug.ReadBuildInfo
	tracerName = "github.com/artuross/workflow-engine/internal/engine"

	defaultHeartbeatInterval = 30 * time.Second
)

type Runner struct {
	provisioner       environment.Provisioner
	registry          *actions.Registry
	tracer            trace.Tracer
	stepTimeout       time.Duration
	jobTimeout        time.Duration
	heartbeatInterval time.Duration
	newTicker         timeutil.NewTickerFunc
}

func New(
	provisioner environment.Provisioner,
	registry *actions.Registry,
	options ...func(*Runner),
) *Runner {
	runner := Runner{
		provisioner:       provisioner,
		registry:          registry,
		tracer:            defaults.TraceProvider.Tracer(tracerName),
		heartbeatInterval: defaultHeartbeatInterval,
		newTicker:         defaults.NewTicker,
	}

	for _, apply := range options {
		apply(&runner)
	}

	return &runner
}

func WithTracerProvider(tp trace.TracerProvider) func(*Runner) {
	return func(r *Runner) {
		r.tracer = tp.Tracer(tracerName)
	}
}

// WithStepTimeout bounds every step; expiry is reported as a step failure.
// Zero means no bound.
func WithStepTimeout(d time.Duration) func(*Runner) {
	return func(r *Runner) {
		r.stepTimeout = d
	}
}

// WithJobTimeout bounds every job that does not declare its own timeout.
// Zero means no bound.
func WithJobTimeout(d time.Duration) func(*Runner) {
	return func(r *Runner) {
		r.jobTimeout = d
	}
}

func WithHeartbeatInterval(d time.Duration) func(*Runner) {
	return func(r *Runner) {
		r.heartbeatInterval = d
	}
}

func WithTickerFactory(f timeutil.NewTickerFunc) func(*Runner) {
	return func(r *Runner) {
		r.newTicker = f
	}
}

// Run executes all jobs of the workflow triggered by event and returns the
// per-job breakdown. Job failures are recorded in the report, never returned
// as an error; the returned error is reserved for the engine itself being
// unable to run.
func (r *Runner) Run(ctx context.Context, wf *workflow.Workflow, event workflow.Event) (*Report, error) {
	ctx, span := r.tracer.Start(ctx, "run workflow")
	defer span.End()

	runID := uuid.NewString()

	logger := zerolog.Ctx(ctx).With().
		Str(semconv.RunID, runID).
		Str(semconv.Event, string(event)).
		Logger()
	ctx = logger.WithContext(ctx)

	triggered := wf.Triggered(event)

	report := Report{
		RunID: runID,
		Event: event,
		Jobs:  make([]JobResult, len(triggered)),
	}

	logger.Info().Int("jobs", len(triggered)).Msg("starting run")

	// one goroutine per job; a job failure is data in the report, so every
	// goroutine returns nil and no job can cancel its siblings
	group := errgroup.Group{}

	for index, job := range triggered {
		index, job := index, job
		group.Go(func() error {
			report.Jobs[index] = r.runJob(ctx, job)
			return nil
		})
	}

	_ = group.Wait()

	logger.Info().Bool("success", report.Success()).Msg("run finished")

	return &report, nil
}

func (r *Runner) runJob(ctx context.Context, job workflow.Job) JobResult {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("run job %s", job.Name))
	defer span.End()

	logger := zerolog.Ctx(ctx).With().Str(semconv.Job, job.Name).Logger()
	ctx = logger.WithContext(ctx)

	started := time.Now()

	result := JobResult{
		Name:   job.Name,
		Status: StatusRunning,
		Steps:  make([]StepResult, len(job.Steps)),
	}

	for index, step := range job.Steps {
		result.Steps[index] = StepResult{
			Name:   step.DisplayName(),
			Status: StatusPending,
		}
	}

	if timeout := r.jobDeadline(job); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	env, err := r.provisioner.Provision(ctx, job.Name, job.RunsOn)
	if err != nil {
		logger.Error().Err(err).Msg("provision environment")

		for index := range result.Steps {
			result.Steps[index].Status = StatusSkipped
		}

		result.Status = StatusFailed
		result.Err = fmt.Errorf("job %s: provision environment: %w", job.Name, err)
		result.Duration = time.Since(started)

		return result
	}

	defer func() {
		// teardown still runs after cancellation
		ctx := context.WithoutCancel(ctx)

		if err := env.Teardown(ctx); err != nil {
			logger.Error().Err(err).Msg("teardown environment")
		}
	}()

	failed := false

	for index, step := range job.Steps {
		if failed {
			result.Steps[index].Status = StatusSkipped
			continue
		}

		stepResult := r.runStep(ctx, env, index, step)
		result.Steps[index] = stepResult

		if stepResult.Status == StatusFailed {
			failed = true
			result.Err = fmt.Errorf("job %s: step %q: %w", job.Name, stepResult.Name, stepResult.Err)
		}
	}

	result.Duration = time.Since(started)
	result.Status = StatusSucceeded

	if failed {
		result.Status = StatusFailed
	}

	logger.Info().
		Str("status", string(result.Status)).
		Dur("duration", result.Duration).
		Msg("job finished")

	return result
}

func (r *Runner) jobDeadline(job workflow.Job) time.Duration {
	if job.Timeout > 0 {
		return job.Timeout
	}

	return r.jobTimeout
}

func (r *Runner) runStep(ctx context.Context, env environment.Environment, index int, step workflow.Step) StepResult {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("run step %s", step.DisplayName()))
	defer span.End()

	logger := zerolog.Ctx(ctx).With().
		Int(semconv.StepIndex, index).
		Str(semconv.Step, step.DisplayName()).
		Logger()
	ctx = logger.WithContext(ctx)

	if r.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stepTimeout)
		defer cancel()
	}

	logger.Debug().Msg("running step")

	stopHeartbeat := r.startHeartbeat(ctx)
	defer stopHeartbeat()

	started := time.Now()

	result := StepResult{
		Name:   step.DisplayName(),
		Status: StatusRunning,
	}

	if step.Uses != nil {
		result = r.runActionStep(ctx, env, step, result)
	} else {
		result = r.runCommandStep(ctx, env, step, result)
	}

	result.Duration = time.Since(started)

	logger.Debug().
		Str("status", string(result.Status)).
		Dur("duration", result.Duration).
		Msg("step finished")

	return result
}

func (r *Runner) runActionStep(ctx context.Context, env environment.Environment, step workflow.Step, result StepResult) StepResult {
	action, err := r.registry.Resolve(step.Uses.Name, step.Uses.Version)
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("resolve action: %w", err)

		return result
	}

	var log bytes.Buffer

	err = action.Execute(ctx, actions.Invocation{
		Inputs: step.With,
		Dir:    env.Dir(),
		Env:    env.Environ(),
		Log:    &log,
	})

	result.Output = log.Bytes()
	result.Status = StatusSucceeded

	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("action %s: %w", step.Uses, err)
	}

	return result
}

func (r *Runner) runCommandStep(ctx context.Context, env environment.Environment, step workflow.Step, result StepResult) StepResult {
	execResult, err := env.Exec(ctx, environment.ExecSpec{
		Command: step.Run,
		Shell:   step.Shell,
		Env:     step.Env,
	})

	result.Output = execResult.Output

	if err != nil {
		result.Status = StatusFailed
		result.Err = err

		return result
	}

	if execResult.ExitCode != 0 {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("command exited with code %d", execResult.ExitCode)

		return result
	}

	result.Status = StatusSucceeded

	return result
}

// startHeartbeat logs a line on an interval while a step is running, so long
// steps are visibly alive. The returned func stops the heartbeat. A zero
// interval disables the heartbeat.
func (r *Runner) startHeartbeat(ctx context.Context) func() {
	if r.heartbeatInterval <= 0 {
		return func() {}
	}

	ticker := r.newTicker(r.heartbeatInterval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		started := time.Now()

		for {
			select {
			case <-done:
				return

			case <-ctx.Done():
				return

			case <-ticker.Chan():
				zerolog.Ctx(ctx).Debug().
					Dur("elapsed", time.Since(started)).
					Msg("step still running")
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
		<-stopped
	}
}
