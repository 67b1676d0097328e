// Package tracer provides distributed tracing abstractions for the advisor.
// It supports OpenTelemetry and allows custom tracer implementations.
package tracer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer defines the tracing interface for the advisor.
// Implementations can provide OpenTelemetry, Jaeger, or custom tracing.
type Tracer interface {
	// StartSpan starts a new tracing span with the given name
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span that captures the execution of an operation.
type Span interface {
	// SetAttributes sets key-value attributes on the span
	SetAttributes(attrs ...attribute.KeyValue)
	// RecordError records an error that occurred during the span
	RecordError(err error)
	// SetStatus sets the status code and description of the span
	SetStatus(code codes.Code, description string)
	// End marks the span as complete
	End()
}

// NoopTracer is a tracer that does nothing (zero overhead when tracing is disabled).
// This is the default tracer used when no tracing is configured.
type NoopTracer struct{}

// StartSpan returns the context unchanged with a no-op span.
func (n *NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, &NoopSpan{}
}

// NoopSpan is a span that does nothing.
type NoopSpan struct{}

// SetAttributes does nothing.
func (n *NoopSpan) SetAttributes(_ ...attribute.KeyValue) {}

// RecordError does nothing.
func (n *NoopSpan) RecordError(_ error) {}

// SetStatus does nothing.
func (n *NoopSpan) SetStatus(_ codes.Code, _ string) {}

// End does nothing.
func (n *NoopSpan) End() {}

// OtelTracer wraps an OpenTelemetry tracer to implement the Tracer interface.
// This allows seamless integration with OpenTelemetry-based observability systems.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer creates a new OpenTelemetry tracer adapter.
// The provided tracer must not be nil.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// StartSpan starts a new OpenTelemetry span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &OtelSpan{span: span}
}

// OtelSpan wraps an OpenTelemetry span.
type OtelSpan struct {
	span trace.Span
}

// SetAttributes sets OpenTelemetry attributes on the span.
func (s *OtelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// RecordError records an error on the OpenTelemetry span.
func (s *OtelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

// SetStatus sets the status of the OpenTelemetry span.
func (s *OtelSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End completes the OpenTelemetry span.
func (s *OtelSpan) End() {
	s.span.End()
}

// AnalysisMetadata describes one advisory analysis for tracing purposes.
// It follows OpenTelemetry database semantic conventions where they apply.
type AnalysisMetadata struct {
	// SQL is the query text under analysis
	SQL string
	// Engine is the database system name (postgres, mysql, sqlite)
	Engine string
	// Recommendations is the number of recommendations produced
	Recommendations int
	// Warnings is the number of per-rule failures reported
	Warnings int
	// Error is any error that aborted the analysis
	Error error
}

// AddAnalysisAttributes records advisory analysis attributes on a span.
func AddAnalysisAttributes(span Span, meta *AnalysisMetadata) {
	span.SetAttributes(
		attribute.String("db.system", meta.Engine),
		attribute.String("db.statement", meta.SQL),
		attribute.Int("advisor.recommendations", meta.Recommendations),
		attribute.Int("advisor.rule_warnings", meta.Warnings),
	)

	if meta.Error != nil {
		span.RecordError(meta.Error)
		span.SetStatus(codes.Error, meta.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// ValidationMetadata describes one validation harness phase for tracing.
type ValidationMetadata struct {
	// Engine is the database system name
	Engine string
	// Phase is the harness phase (baseline, apply, after, cleanup)
	Phase string
	// Statement is the SQL executed during the phase
	Statement string
	// Duration is how long the phase took
	Duration time.Duration
	// Error is any error the phase produced
	Error error
}

// AddValidationAttributes records validation-phase attributes on a span.
func AddValidationAttributes(span Span, meta *ValidationMetadata) {
	span.SetAttributes(
		attribute.String("db.system", meta.Engine),
		attribute.String("advisor.phase", meta.Phase),
		attribute.String("db.statement", meta.Statement),
		attribute.Float64("advisor.phase_duration_ms", float64(meta.Duration.Microseconds())/1000.0),
	)

	if meta.Error != nil {
		span.RecordError(meta.Error)
		span.SetStatus(codes.Error, meta.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
