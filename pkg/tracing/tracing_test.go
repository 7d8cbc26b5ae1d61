package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

func TestStartSpan_NoTracer(t *testing.T) {
	SetTracer(nil)
	ctx, span := StartSpan(context.Background(), "test.span")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetTraceParent(ctx))
}

func TestStartSpan_WithTracer(t *testing.T) {
	var buf bytes.Buffer
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(&exporters.ConsoleExporter{Writer: &buf}))
	SetTracer(provider.Tracer("test"))
	defer SetTracer(nil)

	ctx, span := StartSpan(context.Background(), "matching.Orchestrator.Resolve")
	assert.Len(t, GetTraceID(ctx), 32)
	assert.Len(t, GetSpanID(ctx), 16)
	assert.NotEmpty(t, GetTraceParent(ctx))
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "span matching.Orchestrator.Resolve")
}

func TestSetup(t *testing.T) {
	t.Run("should disable tracing for none", func(t *testing.T) {
		shutdown, err := Setup(context.Background(), "fern", ExporterNone, exporters.OTLPConfig{})
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("should reject unknown exporters", func(t *testing.T) {
		_, err := Setup(context.Background(), "fern", "zipkin", exporters.OTLPConfig{})
		assert.Error(t, err)
	})
}

func TestParseHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"api-key": "abc", "x": "1"}, exporters.ParseHeaders("api-key=abc, x=1,broken"))
}
