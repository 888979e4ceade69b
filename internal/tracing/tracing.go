package tracing

import (
	"context"
	"fmt"

	"github.com/DMarby/filterlab/internal/logger"
	"github.com/go-logr/stdr"
	"go.uber.org/zap"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerIdentifier = "github.com/DMarby/filterlab/internal/tracing"

// Tracer wraps an opentelemetry tracer provider
// A nil *Tracer is valid and records nothing
type Tracer struct {
	ServiceName string
	Log         *logger.Logger

	trace.TracerProvider

	ShutdownFunc   func(context.Context) error
	TracerInstance trace.Tracer
}

// New creates a Tracer exporting spans over OTLP/gRPC, configured through the standard OTEL_EXPORTER_OTLP_* environment
func New(ctx context.Context, log *logger.Logger, serviceName string, sampleRatio float64) (*Tracer, error) {
	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create opentelemetry grpc exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(serviceName))),
	)

	// Override the global otel logging
	otel.SetLogger(stdr.New(zap.NewStdLog(log.Desugar())))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.Error(err)
	}))

	return &Tracer{
		serviceName,
		log,
		tp,
		tp.Shutdown,
		tp.Tracer(tracerIdentifier),
	}, nil
}

var noop = trace.NewNoopTracerProvider().Tracer(tracerIdentifier)

// Start starts a span
func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t == nil || t.TracerInstance == nil {
		return noop.Start(ctx, spanName, opts...)
	}

	return t.TracerInstance.Start(ctx, spanName, opts...)
}

// Shutdown flushes pending spans
func (t *Tracer) Shutdown(ctx context.Context) {
	if t == nil || t.ShutdownFunc == nil {
		return
	}

	if err := t.ShutdownFunc(ctx); err != nil {
		t.Log.Errorf("failed to shutdown tracer: %s", err)
	}
}

// TraceInfo returns the trace and span id of the span in ctx
func TraceInfo(ctx context.Context) (string, string) {
	traceID := trace.SpanContextFromContext(ctx).TraceID().String()
	spanID := trace.SpanContextFromContext(ctx).SpanID().String()
	return traceID, spanID
}

// Tag is a span attribute for a filter tag
func Tag(tag string) attribute.KeyValue {
	return attribute.String("filterlab.tag", tag)
}

// Fingerprint is a span attribute for a parameter fingerprint
func Fingerprint(fingerprint string) attribute.KeyValue {
	return attribute.String("filterlab.fingerprint", fingerprint)
}

// ImageID is a span attribute for a source image id
func ImageID(id string) attribute.KeyValue {
	return attribute.String("filterlab.image_id", id)
}
