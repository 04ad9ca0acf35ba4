package tracing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DEVBOX10/microsoft-scalar/pkg/logging"
)

// OTelTracer creates activities as spans from the global tracer provider and
// mirrors every event to a logger.
type OTelTracer struct {
	tracer trace.Tracer
	logger *logging.Logger
}

// NewOTelTracer returns a tracer logging through logger (the global logger
// when nil).
func NewOTelTracer(logger *logging.Logger) *OTelTracer {
	if logger == nil {
		logger = logging.Global()
	}
	return &OTelTracer{
		tracer: otel.Tracer(instrumentationScope),
		logger: logger,
	}
}

// StartActivity starts a span named name.
func (t *OTelTracer) StartActivity(ctx context.Context, name string, fields Fields) Activity {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attributes(fields)...))
	a := &otelActivity{
		ctx:    ctx,
		span:   span,
		tracer: t,
		logger: t.logger.WithFields(map[string]any{"activity": name}).WithContext(ctx),
		start:  time.Now(),
	}
	a.logger.Debug("activity started", fields)
	return a
}

type otelActivity struct {
	ctx    context.Context
	span   trace.Span
	tracer *OTelTracer
	logger *logging.Logger
	start  time.Time
}

func (a *otelActivity) Context() context.Context { return a.ctx }

func (a *otelActivity) RelatedInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.span.AddEvent("info", trace.WithAttributes(attribute.String("message", msg)))
	a.logger.Info(msg)
}

func (a *otelActivity) RelatedWarning(msg string, fields Fields) {
	attrs := append(attributes(fields), attribute.String("message", msg))
	a.span.AddEvent("warning", trace.WithAttributes(attrs...))
	a.logger.Warn(msg, fields)
}

func (a *otelActivity) RelatedError(msg string, fields Fields) {
	a.span.RecordError(errors.New(msg), trace.WithAttributes(attributes(fields)...))
	a.span.SetStatus(codes.Error, msg)
	a.logger.Error(msg, fields)
}

func (a *otelActivity) StartActivity(name string, fields Fields) Activity {
	return a.tracer.StartActivity(a.ctx, name, fields)
}

func (a *otelActivity) End() {
	a.span.End()
	a.logger.Debug("activity ended", map[string]any{
		"duration_ms": time.Since(a.start).Milliseconds(),
	})
}

func attributes(fields Fields) []attribute.KeyValue {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(fields))
	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			attrs = append(attrs, attribute.String(k, v))
		case int:
			attrs = append(attrs, attribute.Int(k, v))
		case int64:
			attrs = append(attrs, attribute.Int64(k, v))
		case bool:
			attrs = append(attrs, attribute.Bool(k, v))
		case float64:
			attrs = append(attrs, attribute.Float64(k, v))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(v)))
		}
	}
	return attrs
}
