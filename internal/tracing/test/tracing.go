// Package test provides tracers for tests that either discard spans or keep them in memory
package test

import (
	"context"

	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer that discards every span
func Tracer(log *logger.Logger) *tracing.Tracer {
	tp := trace.NewNoopTracerProvider()
	return &tracing.Tracer{
		ServiceName:    "test",
		Log:            log,
		TracerProvider: tp,
		ShutdownFunc: func(context.Context) error {
			return nil
		},
		TracerInstance: tp.Tracer("test"),
	}
}

// Recorder returns a tracer that samples every span, and the recorder the ended spans can be read from
func Recorder(log *logger.Logger) (*tracing.Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(recorder),
	)

	return &tracing.Tracer{
		ServiceName:    "test",
		Log:            log,
		TracerProvider: tp,
		ShutdownFunc:   tp.Shutdown,
		TracerInstance: tp.Tracer("test"),
	}, recorder
}

// SpanNames returns the names of the ended spans in the order they ended
func SpanNames(recorder *tracetest.SpanRecorder) []string {
	spans := recorder.Ended()
	names := make([]string, 0, len(spans))
	for _, span := range spans {
		names = append(names, span.Name())
	}
	return names
}
