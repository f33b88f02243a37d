package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"diner-matching/internal/common/logger"
)

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability
	ctx := context.Background()

	o.RecordJobProcessed(ctx, "score-diner-pair", "completed")
	o.RecordJobDuration(ctx, "score-diner-pair", time.Millisecond, "completed")
	assert.False(t, o.TracingEnabled())
	assert.NoError(t, o.Shutdown(ctx))

	spanCtx, span := o.StartSpan(ctx, "noop", attribute.String("k", "v"))
	require.NotNil(t, spanCtx)
	span.End()
}

func TestNew_WithJaegerEndpoint(t *testing.T) {
	o := New(Options{
		ServiceName:    "diner-matching-test",
		JaegerEndpoint: "http://127.0.0.1:14268/api/traces",
		SampleRatio:    0,
	}, logger.NewTestLogger(t))

	require.NotNil(t, o)
	assert.True(t, o.TracingEnabled())
	assert.NotNil(t, o.jobCounter)

	ctx := context.Background()
	o.RecordJobProcessed(ctx, "rank-diner-candidates", "completed")
	o.RecordJobDuration(ctx, "rank-diner-candidates", 12*time.Millisecond, "completed")

	_ = o.Shutdown(ctx)
}
