package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fivetwenty-io/odata-client/internal/auth"
	"github.com/fivetwenty-io/odata-client/internal/constants"
	"github.com/fivetwenty-io/odata-client/internal/observability"
	"github.com/fivetwenty-io/odata-client/pkg/odata"
)

// Client sends assembled requests. It performs exactly one attempt per call and
// never inspects the response status; interpreting responses is the parser's job.
type Client struct {
	doer         odata.HTTPDoer
	tokenManager auth.TokenManager
	userAgent    string
	logger       odata.Logger
	debug        bool
	interceptors *odata.InterceptorChain
	tracer       *observability.Tracer
	metrics      *observability.Metrics
}

// Option configures the client.
type Option func(*Client)

// WithDoer sets the underlying HTTP client.
func WithDoer(doer odata.HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithHTTPTimeout replaces the underlying HTTP client with one using timeout.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.doer = &http.Client{Timeout: timeout}
	}
}

// WithLogger sets the logger.
func WithLogger(logger odata.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header for requests that do not set one.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTokenManager adds a bearer token to every request.
func WithTokenManager(tokenManager auth.TokenManager) Option {
	return func(c *Client) {
		c.tokenManager = tokenManager
	}
}

// WithInterceptors sets the interceptor chain.
func WithInterceptors(chain *odata.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithTracerProvider enables tracing through tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = observability.NewTracer(tp)
	}
}

// WithMeterProvider enables metrics through mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) {
		c.metrics = observability.NewMetrics(mp)
	}
}

// NewClient creates a new transport client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		doer:      &http.Client{Timeout: constants.DefaultHTTPTimeout},
		userAgent: constants.DefaultUserAgent,
		logger:    odata.NoopLogger{},
		tracer:    observability.NewNoopTracer(),
		metrics:   observability.NewNoopMetrics(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do sends req once. A transport failure is returned as an *odata.ProtocolError
// with status 0, except when ctx is done, in which case ctx.Err() is returned.
// The caller owns the response body.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	httpReq, err := req.NewHTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	if httpReq.Header.Get(constants.HeaderUserAgent) == "" {
		httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)
	}

	if c.tokenManager != nil {
		token, tokenErr := c.tokenManager.GetToken(ctx)
		if tokenErr != nil {
			return nil, fmt.Errorf("failed to get authentication token: %w", tokenErr)
		}

		if token != "" {
			httpReq.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)
		}
	}

	ctx, span := c.tracer.StartRequest(ctx, httpReq)
	defer span.End()

	httpReq = httpReq.WithContext(ctx)

	err = c.interceptors.ExecuteRequestInterceptors(ctx, httpReq)
	if err != nil {
		c.tracer.RecordError(span, err)

		return nil, err
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": httpReq.Method,
			"url":    httpReq.URL.String(),
		})
	}

	start := time.Now()
	resp, err := c.doer.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		c.tracer.RecordError(span, err)
		c.metrics.RecordRequest(ctx, httpReq.Method, 0, duration, err)

		ctxErr := ctx.Err()
		if ctxErr != nil {
			return nil, ctxErr
		}

		c.logger.Error("HTTP Request failed", map[string]interface{}{
			"method": httpReq.Method,
			"url":    httpReq.URL.String(),
			"error":  err.Error(),
		})

		return nil, &odata.ProtocolError{Reason: odata.ErrTransport, Cause: err}
	}

	c.tracer.SetHTTPStatus(span, resp.StatusCode)
	c.metrics.RecordRequest(ctx, httpReq.Method, resp.StatusCode, duration, nil)

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status_code": resp.StatusCode,
			"duration_ms": duration.Milliseconds(),
		})
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, httpReq, resp)
	if err != nil {
		_ = resp.Body.Close()

		return nil, err
	}

	return resp, nil
}
