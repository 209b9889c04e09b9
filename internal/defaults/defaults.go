package defaults

import (
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/artuross/workflow-engine/internal/util/timeutil"
)

var (
	TraceProvider = noop.NewTracerProvider()
	NewTicker     = timeutil.Generic(timeutil.NewTicker)
)
