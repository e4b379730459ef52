package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "studyabroad-workers"

// StartJobSpan opens a span around one job activation.
func StartJobSpan(ctx context.Context, taskType string, jobKey int64) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, taskType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("zeebe.task_type", taskType),
			attribute.Int64("zeebe.job_key", jobKey),
		),
	)
}

// StartSpan opens an internal span for a named engine operation.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
