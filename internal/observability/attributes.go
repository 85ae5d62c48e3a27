// Package observability provides OpenTelemetry instrumentation for OData client requests.
//
// Tracing and metrics are opt-in. When no provider is configured the otel
// globals are used, which are no-ops until an application installs real ones.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/fivetwenty-io/odata-client"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/fivetwenty-io/odata-client"
)

// Attribute keys.
const (
	AttrHTTPMethod     = "http.request.method"
	AttrHTTPStatusCode = "http.response.status_code"
	AttrURLFull        = "url.full"
	AttrServerAddress  = "server.address"
	AttrErrorType      = "error.type"
	AttrODataOperation = "odata.operation"
)

// Error type values for AttrErrorType.
const (
	ErrorTypeTransport = "transport"
	ErrorTypeCanceled  = "canceled"
	ErrorTypeHTTP      = "http"
)

// MethodAttr creates an attribute for the HTTP method.
func MethodAttr(method string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, method)
}

// StatusCodeAttr creates an attribute for the HTTP response status.
func StatusCodeAttr(statusCode int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatusCode, statusCode)
}

// ErrorTypeAttr creates an attribute for the error class.
func ErrorTypeAttr(errorType string) attribute.KeyValue {
	return attribute.String(AttrErrorType, errorType)
}
