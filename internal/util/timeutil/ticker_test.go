package timeutil_test

import (
	"testing"
	"time"

	"github.com/artuross/workflow-engine/internal/util/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeTicker(t *testing.T) {
	ticker := timeutil.NewFakeTicker()

	factory := timeutil.WrapFakeTicker(ticker)
	wrapped := factory(time.Hour)

	go ticker.Tick()

	select {
	case <-wrapped.Chan():
	case <-time.After(time.Second):
		require.Fail(t, "tick not delivered")
	}

	wrapped.Stop()
}

func TestNewTicker(t *testing.T) {
	ticker := timeutil.Generic(timeutil.NewTicker)(time.Millisecond)
	defer ticker.Stop()

	select {
	case tick := <-ticker.Chan():
		assert.False(t, tick.IsZero())
	case <-time.After(time.Second):
		require.Fail(t, "tick not delivered")
	}
}
