package engine_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artuross/workflow-engine/internal/actions"
	"github.com/artuross/workflow-engine/internal/engine"
	"github.com/artuross/workflow-engine/internal/util/timeutil"
	"github.com/artuross/workflow-engine/internal/workflow"
)

func TestRun_Heartbeat(t *testing.T) {
	wf := parseWorkflow(t, `
on: push
jobs:
  check:
    runs-on: ubuntu-latest
    steps:
      - run: hanging step
`)

	provisioner := newFakeProvisioner(map[string]scriptedCommand{
		"hanging step": {blockUntilCanceled: true},
	})

	ticker := timeutil.NewFakeTicker()

	runner := engine.New(
		provisioner,
		actions.NewRegistry(),
		engine.WithTickerFactory(timeutil.WrapFakeTicker(ticker)),
	)

	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()

	go func() {
		// wait for the step to be in flight, emit a heartbeat, then cancel
		for {
			env, ok := provisioner.lookup("check")
			if ok && len(env.executedCommands()) == 1 {
				break
			}

			time.Sleep(time.Millisecond)
		}

		ticker.Tick()
		cancel()
	}()

	report, err := runner.Run(ctx, wf, workflow.EventPush)
	require.NoError(t, err)

	assert.False(t, report.Success())
	assert.True(t, strings.Contains(logs.String(), "step still running"))
}
