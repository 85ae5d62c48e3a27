package observability

import (
	"context"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with client span helpers.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer using the given TracerProvider. A nil provider
// means the global one.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartRequest starts a client span for an outgoing request.
func (t *Tracer) StartRequest(ctx context.Context, req *http.Request) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "odata.client "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			MethodAttr(req.Method),
			attribute.String(AttrURLFull, req.URL.String()),
			attribute.String(AttrServerAddress, req.URL.Hostname()),
		),
	)
}

// SetHTTPStatus records the response status on span.
func (t *Tracer) SetHTTPStatus(span trace.Span, statusCode int) {
	span.SetAttributes(StatusCodeAttr(statusCode))

	if statusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	}
}

// RecordError marks span as failed with err.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetAttributes(ErrorTypeAttr(ClassifyError(err)))
	span.SetStatus(codes.Error, err.Error())
}

// ClassifyError returns the AttrErrorType value for a failed send.
func ClassifyError(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeCanceled
	}

	return ErrorTypeTransport
}
