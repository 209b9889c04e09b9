package runnerconfig_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artuross/workflow-engine/internal/runnerconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		config, err := runnerconfig.Load(context.Background(), "")
		require.NoError(t, err)

		assert.Equal(t, "sh -e", config.Shell)
		assert.Equal(t, ".engine/workspaces", config.WorkDir)
		assert.Zero(t, config.StepTimeout)
		assert.Equal(t, runnerconfig.Duration(30*time.Second), config.HeartbeatInterval)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.json")

		saved := runnerconfig.Default()
		saved.Shell = "bash -euo pipefail"
		saved.StepTimeout = runnerconfig.Duration(10 * time.Minute)
		require.NoError(t, runnerconfig.SaveConfigFile(path, &saved))

		config, err := runnerconfig.Load(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, "bash -euo pipefail", config.Shell)
		assert.Equal(t, runnerconfig.Duration(10*time.Minute), config.StepTimeout)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.json")

		saved := runnerconfig.Default()
		saved.StepTimeout = runnerconfig.Duration(10 * time.Minute)
		require.NoError(t, runnerconfig.SaveConfigFile(path, &saved))

		t.Setenv("ENGINE_STEP_TIMEOUT", "90s")
		t.Setenv("ENGINE_WORK_DIR", "/tmp/engine")

		config, err := runnerconfig.Load(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, runnerconfig.Duration(90*time.Second), config.StepTimeout)
		assert.Equal(t, "/tmp/engine", config.WorkDir)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := runnerconfig.Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("invalid duration in file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"stepTimeout": "soon"}`), 0o644))

		_, err := runnerconfig.Load(context.Background(), path)
		assert.ErrorContains(t, err, "invalid duration")
	})
}
