package observability

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of build spans.
const TracerName = "github.com/matzehuels/ondemand"

// InitTracer installs a global tracer provider exporting spans as JSON to w.
// The returned function flushes and shuts the provider down.
func InitTracer(ctx context.Context, serviceName string, w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// TracingHooks implements [BuildHooks] with OpenTelemetry spans: one span
// per session with one child span per unit.
type TracingHooks struct {
	tracer trace.Tracer
}

// NewTracingHooks creates hooks using the global tracer provider.
func NewTracingHooks() *TracingHooks {
	return NewTracingHooksWithProvider(otel.GetTracerProvider())
}

// NewTracingHooksWithProvider creates hooks using tp.
func NewTracingHooksWithProvider(tp trace.TracerProvider) *TracingHooks {
	return &TracingHooks{tracer: tp.Tracer(TracerName)}
}

func (h *TracingHooks) OnSessionStart(ctx context.Context, session string, units int) context.Context {
	ctx, _ = h.tracer.Start(ctx, "build.session", trace.WithAttributes(
		attribute.String("ondemand.session", session),
		attribute.Int("ondemand.units", units),
	))
	return ctx
}

func (h *TracingHooks) OnSessionComplete(ctx context.Context, _ string, failed int, duration time.Duration) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("ondemand.failed", failed),
		attribute.Int64("ondemand.duration_ms", duration.Milliseconds()),
	)
	if failed > 0 {
		span.SetStatus(codes.Error, "build failures")
	}
	span.End()
}

func (h *TracingHooks) OnUnitStart(ctx context.Context, key string) context.Context {
	ctx, _ = h.tracer.Start(ctx, "build.unit", trace.WithAttributes(attribute.String("ondemand.unit", key)))
	return ctx
}

func (h *TracingHooks) OnUnitComplete(ctx context.Context, _ string, ok bool, duration time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Bool("ondemand.success", ok),
		attribute.Int64("ondemand.duration_ms", duration.Milliseconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ BuildHooks = (*TracingHooks)(nil)
