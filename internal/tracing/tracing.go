// Package tracing records maintenance activities.
//
// Activities are OpenTelemetry spans mirrored to the structured logger.
// Telemetry export is disabled by default; when disabled Init installs
// no-op providers and activities only produce log records.
//
// # Configuration
//
//	telemetry.enabled=true       create spans (default: off)
//	telemetry.stdout=true        pretty-print finished spans to stderr
//	telemetry.service_name=...   override the service name (default: scalar)
package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/DEVBOX10/microsoft-scalar"

// Fields are structured key/value pairs attached to an activity or event.
type Fields map[string]any

// Tracer starts top-level activities.
type Tracer interface {
	StartActivity(ctx context.Context, name string, fields Fields) Activity
}

// Activity is one traced unit of work. Every started activity must be ended
// exactly once.
type Activity interface {
	// Context carries the activity's span for nested work and log correlation.
	Context() context.Context
	RelatedInfo(format string, args ...any)
	RelatedWarning(msg string, fields Fields)
	RelatedError(msg string, fields Fields)
	StartActivity(name string, fields Fields) Activity
	End()
}

// Config controls telemetry export.
type Config struct {
	Enabled     bool
	Stdout      bool
	ServiceName string
	Version     string
}

var shutdownFns []func(context.Context) error

// Init configures the global tracer provider.
func Init(ctx context.Context, cfg Config) error {
	if !cfg.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		return nil
	}

	name := cfg.ServiceName
	if name == "" {
		name = "scalar"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", name),
			attribute.String("service.version", cfg.Version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("tracing: resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if cfg.Stdout {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return fmt.Errorf("tracing: stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	shutdownFns = append(shutdownFns, tp.Shutdown)
	return nil
}

// Shutdown flushes spans and shuts down providers installed by Init.
func Shutdown(ctx context.Context) {
	for _, fn := range shutdownFns {
		_ = fn(ctx)
	}
	shutdownFns = nil
}
