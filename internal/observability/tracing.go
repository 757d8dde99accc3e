package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer for the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			attribute.String("service.operation", operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// BusinessMetrics holds custom business metrics
type BusinessMetrics struct {
	photoPosts       metric.Int64Counter
	timelapseJobs    metric.Int64Counter
	summaryRequests  metric.Int64Counter
	authAttempts     metric.Int64Counter
	storageUsed      metric.Int64UpDownCounter
}

// NewBusinessMetrics creates business metrics instruments
func NewBusinessMetrics() (*BusinessMetrics, error) {
	meter := otel.Meter(instrumentationName)

	photoPosts, err := meter.Int64Counter(
		"emolog.photo.posts",
		metric.WithDescription("Total number of photo posts"),
		metric.WithUnit("{posts}"),
	)
	if err != nil {
		return nil, err
	}

	timelapseJobs, err := meter.Int64Counter(
		"emolog.timelapse.jobs",
		metric.WithDescription("Total number of timelapse compile jobs"),
		metric.WithUnit("{jobs}"),
	)
	if err != nil {
		return nil, err
	}

	summaryRequests, err := meter.Int64Counter(
		"emolog.summary.requests",
		metric.WithDescription("Total number of AI summary requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	authAttempts, err := meter.Int64Counter(
		"emolog.auth.attempts",
		metric.WithDescription("Total number of authentication attempts"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return nil, err
	}

	storageUsed, err := meter.Int64UpDownCounter(
		"emolog.storage.bytes",
		metric.WithDescription("Storage used in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		photoPosts:      photoPosts,
		timelapseJobs:   timelapseJobs,
		summaryRequests: summaryRequests,
		authAttempts:    authAttempts,
		storageUsed:     storageUsed,
	}, nil
}

// RecordPhotoPost records a photo post
func (m *BusinessMetrics) RecordPhotoPost(ctx context.Context, userID string, fileSize int64, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("user_id", userID),
		attribute.Bool("success", success),
	}
	m.photoPosts.Add(ctx, 1, metric.WithAttributes(attrs...))
	if success {
		m.storageUsed.Add(ctx, fileSize)
	}
}

// RecordTimelapseJob records a timelapse compile job outcome
func (m *BusinessMetrics) RecordTimelapseJob(ctx context.Context, userID, status string) {
	attrs := []attribute.KeyValue{
		attribute.String("user_id", userID),
		attribute.String("job_status", status),
	}
	m.timelapseJobs.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSummaryRequest records an AI summary request
func (m *BusinessMetrics) RecordSummaryRequest(ctx context.Context, source string) {
	attrs := []attribute.KeyValue{
		attribute.String("summary_source", source),
	}
	m.summaryRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAuthAttempt records an authentication attempt
func (m *BusinessMetrics) RecordAuthAttempt(ctx context.Context, method string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("auth_method", method),
		attribute.Bool("success", success),
	}
	m.authAttempts.Add(ctx, 1, metric.WithAttributes(attrs...))
}
