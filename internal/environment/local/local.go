// Package local provisions job environments as workspace directories on the
// host, running commands through a configurable shell.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/shlex"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artuross/workflow-engine/internal/environment"
)

const DefaultShell = "sh -e"

var _ environment.Provisioner = (*Provisioner)(nil)

type Provisioner struct {
	root  string
	shell string
}

// NewProvisioner creates a provisioner that allocates workspaces under root.
// shell is the command line used to run inline commands, e.g. "sh -e" or
// "bash -euo pipefail"; the step's command string is passed via -c.
func NewProvisioner(root, shell string) *Provisioner {
	if shell == "" {
		shell = DefaultShell
	}

	return &Provisioner{
		root:  root,
		shell: shell,
	}
}

// Provision allocates a fresh workspace directory for a job. Allocation is
// guarded with a file lock so concurrent engine processes sharing a root
// cannot collide.
func (p *Provisioner) Provision(ctx context.Context, jobName, runsOn string) (environment.Environment, error) {
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	lock := flock.New(filepath.Join(p.root, ".lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock workspace root: %w", err)
	}
	defer lock.Unlock()

	dir := filepath.Join(p.root, fmt.Sprintf("%s-%s", sanitizeName(jobName), uuid.NewString()[:8]))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace for job %q: %w", jobName, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("job", jobName).
		Str("runs_on", runsOn).
		Str("dir", dir).
		Msg("provisioned workspace")

	return &localEnvironment{
		dir:   dir,
		shell: p.shell,
	}, nil
}

type localEnvironment struct {
	dir   string
	shell string
}

func (e *localEnvironment) Dir() string {
	return e.dir
}

func (e *localEnvironment) Environ() []string {
	return append(os.Environ(), "CI=true")
}

func (e *localEnvironment) Exec(ctx context.Context, spec environment.ExecSpec) (environment.ExecResult, error) {
	shell := spec.Shell
	if shell == "" {
		shell = e.shell
	}

	argv, err := shlex.Split(shell)
	if err != nil {
		return environment.ExecResult{}, fmt.Errorf("split shell command line %q: %w", shell, err)
	}

	if len(argv) == 0 {
		return environment.ExecResult{}, fmt.Errorf("empty shell command line")
	}

	var output bytes.Buffer

	var sink io.Writer = &output
	if spec.Log != nil {
		sink = io.MultiWriter(&output, spec.Log)
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], "-c", spec.Command)...)
	cmd.Dir = e.dir
	cmd.Env = e.Environ()
	cmd.Stdout = sink
	cmd.Stderr = sink

	for key, value := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	err = cmd.Run()

	result := environment.ExecResult{
		Output: output.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		// interrupted or never started
		return result, fmt.Errorf("run command: %w", err)
	}

	return result, nil
}

func (e *localEnvironment) Teardown(ctx context.Context) error {
	if err := os.RemoveAll(e.dir); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}

	return nil
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
