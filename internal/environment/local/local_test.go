package local_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/artuross/workflow-engine/internal/environment"
	"github.com/artuross/workflow-engine/internal/environment/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioner(t *testing.T) {
	t.Run("workspace per job", func(t *testing.T) {
		provisioner := local.NewProvisioner(t.TempDir(), "")

		env1, err := provisioner.Provision(context.Background(), "check", "ubuntu-latest")
		require.NoError(t, err)

		env2, err := provisioner.Provision(context.Background(), "check", "ubuntu-latest")
		require.NoError(t, err)

		assert.NotEqual(t, env1.Dir(), env2.Dir())
		assert.DirExists(t, env1.Dir())
		assert.DirExists(t, env2.Dir())
	})

	t.Run("teardown removes workspace", func(t *testing.T) {
		provisioner := local.NewProvisioner(t.TempDir(), "")

		env, err := provisioner.Provision(context.Background(), "check", "ubuntu-latest")
		require.NoError(t, err)

		require.NoError(t, env.Teardown(context.Background()))
		assert.NoDirExists(t, env.Dir())
	})
}

func TestExec(t *testing.T) {
	provision := func(t *testing.T) environment.Environment {
		t.Helper()

		provisioner := local.NewProvisioner(t.TempDir(), "")

		env, err := provisioner.Provision(context.Background(), "test", "ubuntu-latest")
		require.NoError(t, err)

		return env
	}

	t.Run("captures output and exit code", func(t *testing.T) {
		env := provision(t)

		result, err := env.Exec(context.Background(), environment.ExecSpec{
			Command: "echo hello",
		})
		require.NoError(t, err)

		assert.Zero(t, result.ExitCode)
		assert.Equal(t, "hello\n", string(result.Output))
	})

	t.Run("non-zero exit is a result, not an error", func(t *testing.T) {
		env := provision(t)

		result, err := env.Exec(context.Background(), environment.ExecSpec{
			Command: "exit 3",
		})
		require.NoError(t, err)

		assert.Equal(t, 3, result.ExitCode)
	})

	t.Run("runs in the workspace directory", func(t *testing.T) {
		env := provision(t)

		result, err := env.Exec(context.Background(), environment.ExecSpec{
			Command: "pwd",
		})
		require.NoError(t, err)

		resolved, err := filepath.EvalSymlinks(env.Dir())
		require.NoError(t, err)

		assert.Contains(t, string(result.Output), resolved)
	})

	t.Run("extra env vars", func(t *testing.T) {
		env := provision(t)

		result, err := env.Exec(context.Background(), environment.ExecSpec{
			Command: "echo $GREETING",
			Env:     map[string]string{"GREETING": "hi"},
		})
		require.NoError(t, err)

		assert.Equal(t, "hi\n", string(result.Output))
	})

	t.Run("output streamed to log writer", func(t *testing.T) {
		env := provision(t)

		var log bytes.Buffer

		result, err := env.Exec(context.Background(), environment.ExecSpec{
			Command: "echo streamed",
			Log:     &log,
		})
		require.NoError(t, err)

		assert.Equal(t, "streamed\n", string(result.Output))
		assert.Equal(t, "streamed\n", log.String())
	})

	t.Run("cancellation is an error", func(t *testing.T) {
		env := provision(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := env.Exec(ctx, environment.ExecSpec{
			Command: "sleep 10",
		})
		assert.Error(t, err)
	})
}
