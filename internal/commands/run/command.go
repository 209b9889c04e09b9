package run

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	cli "github.com/urfave/cli/v2"

	"github.com/artuross/workflow-engine/internal/actions"
	"github.com/artuross/workflow-engine/internal/commandinit"
	"github.com/artuross/workflow-engine/internal/commands/run/exec"
	"github.com/artuross/workflow-engine/internal/commands/run/printer"
	"github.com/artuross/workflow-engine/internal/engine"
	"github.com/artuross/workflow-engine/internal/environment/local"
	"github.com/artuross/workflow-engine/internal/runnerconfig"
	"github.com/artuross/workflow-engine/internal/workflow"
)

var (
	ErrCommandFailed = errors.New("command failed")

	// ErrRunFailed means at least one triggered job failed; the process must
	// exit non-zero.
	ErrRunFailed = errors.New("run failed")
)

func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Executes the jobs of a workflow file triggered by an event.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Path to the workflow definition file.",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "event",
				Usage:    "Triggering event (push, pull_request, workflow_dispatch).",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the engine configuration file.",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disables colored report output.",
			},
		},
		Action: run,
	}
}

func run(cliCtx *cli.Context) error {
	ctx := cliCtx.Context

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().With().Str("command", "run").Logger()

	if cliCtx.Bool("no-color") {
		color.NoColor = true
	}

	config, err := runnerconfig.Load(ctx, cliCtx.String("config"))
	if err != nil {
		logger.Error().Err(err).Msg("load engine config")
		return ErrCommandFailed
	}

	event, err := workflow.ParseEvent(cliCtx.String("event"))
	if err != nil {
		logger.Error().Err(err).Msg("parse event")
		return ErrCommandFailed
	}

	definition, err := os.ReadFile(cliCtx.String("file"))
	if err != nil {
		logger.Error().Err(err).Msg("read workflow file")
		return ErrCommandFailed
	}

	wf, err := workflow.Parse(definition)
	if err != nil {
		logger.Error().Err(err).Msg("parse workflow file")
		return ErrCommandFailed
	}

	traceProvider, tpShutdown, err := commandinit.NewOpenTelemetry(ctx, "workflow-engine")
	if err != nil {
		logger.Error().Err(err).Msg("init OTEL provider")
		return ErrCommandFailed
	}
	defer tpShutdown(ctx)

	ctx, cancel := context.WithCancelCause(ctx)
	stopChan := make(chan os.Signal, 1)

	errInterrupted := errors.New("interrupted")

	go func() {
		signal.Notify(stopChan, os.Interrupt, syscall.SIGINT)

		<-stopChan
		logger.Info().Msg("received cancel signal")

		cancel(errInterrupted)
	}()

	ctx = logger.WithContext(ctx)

	runner := engine.New(
		local.NewProvisioner(config.WorkDir, config.Shell),
		actions.NewRegistry(),
		engine.WithStepTimeout(time.Duration(config.StepTimeout)),
		engine.WithJobTimeout(time.Duration(config.JobTimeout)),
		engine.WithHeartbeatInterval(time.Duration(config.HeartbeatInterval)),
		engine.WithTracerProvider(traceProvider),
	)

	reportPrinter := printer.New(colorable.NewColorableStdout())

	executor := exec.NewExecutor(runner, reportPrinter, exec.WithTracerProvider(traceProvider))

	success, err := executor.Run(ctx, wf, event)
	if err != nil {
		logger.Error().Err(err).Msg("run workflow")
		return ErrCommandFailed
	}

	if !success {
		return ErrRunFailed
	}

	return nil
}
