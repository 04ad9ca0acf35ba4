package tracing_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/DEVBOX10/microsoft-scalar/internal/tracing"
	"github.com/DEVBOX10/microsoft-scalar/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func TestOTelTracer_SpanPerActivity(t *testing.T) {
	sr := installSpanRecorder(t)
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.LevelDebug)
	logger.SetOutput(&buf)

	tr := tracing.NewOTelTracer(logger)
	a := tr.StartActivity(context.Background(), "TryWriteGitCommitGraph", tracing.Fields{"objects_root": "/o"})
	a.RelatedInfo("commit-graph list after write: %s", "commit-graph-chain;")
	a.RelatedWarning("rewrite failed", tracing.Fields{"exit_code": 1})
	a.RelatedError("verify failed", tracing.Fields{"exit_code": 128})
	a.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "TryWriteGitCommitGraph", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "verify failed", span.Status().Description)

	var names []string
	for _, e := range span.Events() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"info", "warning", "exception"}, names)

	// Every event is mirrored to the log with trace correlation.
	var sawError bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.Equal(t, "TryWriteGitCommitGraph", rec["activity"])
		assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
		if rec["level"] == "error" {
			sawError = true
			assert.Equal(t, "verify failed", rec["message"])
			assert.EqualValues(t, 128, rec["exit_code"])
		}
	}
	assert.True(t, sawError)
}

func TestOTelTracer_NestedActivity(t *testing.T) {
	sr := installSpanRecorder(t)
	tr := tracing.NewOTelTracer(logging.NewNop())

	parent := tr.StartActivity(context.Background(), "outer", nil)
	child := parent.StartActivity("inner", nil)
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "inner", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestInit_Disabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	require.NoError(t, tracing.Init(context.Background(), tracing.Config{}))
	tr := tracing.NewOTelTracer(logging.NewNop())
	a := tr.StartActivity(context.Background(), "noop", nil)
	a.RelatedError("ignored", nil)
	a.End()
	tracing.Shutdown(context.Background())
}

func TestInit_Enabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	require.NoError(t, tracing.Init(context.Background(), tracing.Config{Enabled: true, ServiceName: "scalar-test"}))
	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	tracing.Shutdown(context.Background())
}

func TestRecorder(t *testing.T) {
	rec := tracing.NewRecorder()
	a := rec.StartActivity(context.Background(), "step", nil)
	a.RelatedInfo("n=%d", 3)
	a.RelatedWarning("w", nil)
	a.RelatedError("e", tracing.Fields{"k": "v"})
	nested := a.StartActivity("nested", nil)
	nested.End()
	a.End()

	assert.Equal(t, []string{"step", "nested"}, rec.Started())
	assert.Equal(t, []string{"nested", "step"}, rec.Ended())
	require.Len(t, rec.Events(), 3)
	assert.Equal(t, "n=3", rec.EventsAt(tracing.LevelInfo)[0].Message)
	errs := rec.EventsAt(tracing.LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, "step", errs[0].Activity)
	assert.Equal(t, "v", errs[0].Fields["k"])
}

func TestCountErrors(t *testing.T) {
	rec := tracing.NewRecorder()
	counter := tracing.CountErrors(rec)

	a := counter.StartActivity(context.Background(), "step", nil)
	a.RelatedError("first", nil)
	a.RelatedWarning("warn", nil)
	nested := a.StartActivity("nested", nil)
	nested.RelatedError("second", nil)
	nested.End()
	a.End()

	assert.Equal(t, 2, counter.Errors())
	assert.Equal(t, 1, counter.Warnings())
	// Events still reach the wrapped tracer.
	assert.Len(t, rec.EventsAt(tracing.LevelError), 2)
}
