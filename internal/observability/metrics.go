package observability

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the client metric instruments.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	errorCount      metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given MeterProvider. A nil
// provider means the global one.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(MeterName)
	m := &Metrics{}

	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"odata.client.request.duration",
		metric.WithDescription("Duration of OData client requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.requestDuration, _ = meter.Float64Histogram("odata.client.request.duration")
	}

	m.requestCount, err = meter.Int64Counter(
		"odata.client.request.count",
		metric.WithDescription("Total number of OData client requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.requestCount, _ = meter.Int64Counter("odata.client.request.count")
	}

	m.errorCount, err = meter.Int64Counter(
		"odata.client.error.count",
		metric.WithDescription("Total number of failed OData client requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("odata.client.error.count")
	}

	return m
}

// RecordRequest records a completed send. statusCode is 0 when err is set.
func (m *Metrics) RecordRequest(ctx context.Context, method string, statusCode int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(MethodAttr(method), StatusCodeAttr(statusCode))

	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.requestCount.Add(ctx, 1, attrs)

	switch {
	case err != nil:
		m.errorCount.Add(ctx, 1, metric.WithAttributes(MethodAttr(method), ErrorTypeAttr(ClassifyError(err))))
	case statusCode >= http.StatusBadRequest:
		m.errorCount.Add(ctx, 1, metric.WithAttributes(MethodAttr(method), ErrorTypeAttr(ErrorTypeHTTP)))
	}
}
