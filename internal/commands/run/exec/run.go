package exec

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/artuross/workflow-engine/internal/defaults"
	"github.com/artuross/workflow-engine/internal/engine"
	"github.com/artuross/workflow-engine/internal/workflow"
)

const (
	// TODO: may want to do it via debug.ReadBuildInfo
	tracerName = "github.com/artuross/workflow-engine/internal/commands/run/exec"
)

type Reporter interface {
	Print(report *engine.Report)
}

type Executor struct {
	runner   *engine.Runner
	reporter Reporter
	tracer   trace.Tracer
}

func NewExecutor(
	runner *engine.Runner,
	reporter Reporter,
	options ...func(*Executor),
) *Executor {
	executor := Executor{
		runner:   runner,
		reporter: reporter,
		tracer:   defaults.TraceProvider.Tracer(tracerName),
	}

	for _, apply := range options {
		apply(&executor)
	}

	return &executor
}

func WithTracerProvider(tp trace.TracerProvider) func(*Executor) {
	return func(e *Executor) {
		e.tracer = tp.Tracer(tracerName)
	}
}

// Run executes the workflow for the event and prints the report. The bool is
// the run verdict; the error is reserved for the engine being unable to run.
func (e *Executor) Run(ctx context.Context, wf *workflow.Workflow, event workflow.Event) (bool, error) {
	ctx, span := e.tracer.Start(ctx, "run")
	defer span.End()

	logger := zerolog.Ctx(ctx)

	logger.Info().
		Str("workflow", wf.Name).
		Str("event", string(event)).
		Msg("executing workflow")

	report, err := e.runner.Run(ctx, wf, event)
	if err != nil {
		return false, fmt.Errorf("run workflow: %w", err)
	}

	e.reporter.Print(report)

	return report.Success(), nil
}
