package odata

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// RequestMode is the browser fetch mode a request asks for. It only takes
// effect when the client runs under WebAssembly in a browser.
type RequestMode string

// Request modes.
const (
	RequestModeCORS       RequestMode = "cors"
	RequestModeSameOrigin RequestMode = "same-origin"
	RequestModeNoCORS     RequestMode = "no-cors"
	RequestModeNavigate   RequestMode = "navigate"
)

// ErrInvalidRequestMode is returned for request modes outside the known set.
var ErrInvalidRequestMode = errors.New("invalid request mode")

// Validate checks that m is one of the known request modes. The empty mode is valid
// and means RequestModeCORS.
func (m RequestMode) Validate() error {
	switch m {
	case "", RequestModeCORS, RequestModeSameOrigin, RequestModeNoCORS, RequestModeNavigate:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRequestMode, string(m))
	}
}

// OrDefault returns m, or RequestModeCORS when m is empty.
func (m RequestMode) OrDefault() RequestMode {
	if m == "" {
		return RequestModeCORS
	}

	return m
}

// HTTPDoer sends a single HTTP request. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config represents client configuration for building an odataclient.Client.
type Config struct {
	// BaseURL is the service root, e.g. "https://example.com/odata".
	BaseURL string

	// AccessToken, if set, is sent as a Bearer token on every request.
	AccessToken string

	// Headers are added to every request.
	Headers map[string]string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// HTTPClient sends the requests. Defaults to an *http.Client with HTTPTimeout.
	HTTPClient HTTPDoer

	// HTTPTimeout applies to the default HTTPClient only.
	HTTPTimeout time.Duration

	// RequestMode is the browser fetch mode. Defaults to RequestModeCORS.
	RequestMode RequestMode

	// Debug enables request/response logging through Logger.
	Debug bool
	// Logger is optional.
	Logger Logger

	// TracerProvider and MeterProvider default to the otel globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	// Interceptors run around every request in addition to the built-in ones.
	Interceptors *InterceptorChain
}

// Validate checks the configuration for required values.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigRequired
	}

	if c.BaseURL == "" {
		return ErrBaseURLRequired
	}

	return c.RequestMode.Validate()
}
