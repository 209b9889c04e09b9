// Package environment defines the boundary between the engine and whatever
// provisions per-job execution environments. Each job runs on its own
// instance; instances are never shared or reused.
package environment

import (
	"context"
	"io"
)

// ExecSpec describes one inline command to run inside an environment.
type ExecSpec struct {
	// Command is the literal command string from the step definition.
	Command string

	// Shell overrides the environment's default shell command line.
	Shell string

	// Env holds additional variables for this command only.
	Env map[string]string

	// Log, when set, receives the command's combined output as it is
	// produced, in addition to the captured copy in ExecResult.
	Log io.Writer
}

// ExecResult is the outcome of a completed command.
type ExecResult struct {
	ExitCode int
	Output   []byte
}

// Environment is a provisioned, isolated place to run a job's commands.
type Environment interface {
	// Dir is the workspace directory of the environment.
	Dir() string

	// Exec runs a command to completion. A non-zero exit code is reported
	// through ExecResult, not as an error; an error means the command could
	// not run at all or was interrupted.
	Exec(ctx context.Context, spec ExecSpec) (ExecResult, error)

	// Environ returns the base process environment as "KEY=value" pairs.
	Environ() []string

	// Teardown releases the environment. The instance must not be used after.
	Teardown(ctx context.Context) error
}

// Provisioner creates one Environment per job.
type Provisioner interface {
	Provision(ctx context.Context, jobName, runsOn string) (Environment, error)
}
