package odata

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/odata-client/internal/constants"
)

// RequestInterceptor is called before a request is sent.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// ResponseInterceptor is called after a response is received and before it is parsed.
type ResponseInterceptor func(ctx context.Context, req *http.Request, resp *http.Response) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// Extend appends the interceptors of other, which may be nil.
func (c *InterceptorChain) Extend(other *InterceptorChain) {
	if other == nil {
		return
	}

	c.requestInterceptors = append(c.requestInterceptors, other.requestInterceptors...)
	c.responseInterceptors = append(c.responseInterceptors, other.responseInterceptors...)
}

// Len returns the number of request and response interceptors.
func (c *InterceptorChain) Len() int {
	if c == nil {
		return 0
	}

	return len(c.requestInterceptors) + len(c.responseInterceptors)
}

// ExecuteRequestInterceptors runs all request interceptors.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *http.Request) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *http.Request, resp *http.Response) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// Common Interceptors

// LoggingInterceptor logs requests.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	logger = loggerOrNoop(logger)

	return func(ctx context.Context, req *http.Request) error {
		logger.Debug("OData Request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.String(),
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	logger = loggerOrNoop(logger)

	return func(ctx context.Context, req *http.Request, resp *http.Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL.String(),
			"status_code": resp.StatusCode,
		}

		if resp.StatusCode >= http.StatusBadRequest {
			logger.Error("OData Response Error", fields)
		} else {
			logger.Debug("OData Response", fields)
		}

		return nil
	}
}

// AuthenticationInterceptor adds a bearer token obtained from tokenProvider on
// every request. Use it for tokens that rotate while the client lives;
// Config.AccessToken covers a fixed token. Request interceptors run after the
// configured token is applied, so the provider's token wins. An empty token
// leaves the request untouched.
func AuthenticationInterceptor(tokenProvider func(context.Context) (string, error)) RequestInterceptor {
	return func(ctx context.Context, req *http.Request) error {
		token, err := tokenProvider(ctx)
		if err != nil {
			return fmt.Errorf("failed to get authentication token: %w", err)
		}

		if token == "" {
			return nil
		}

		req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)

		return nil
	}
}

// HeaderInterceptor sets header name to the value valueProvider computes for
// each request, e.g. a correlation ID carried in ctx. Fixed headers belong in
// Config.Headers. An empty value leaves the request untouched.
func HeaderInterceptor(name string, valueProvider func(context.Context) string) RequestInterceptor {
	return func(ctx context.Context, req *http.Request) error {
		value := valueProvider(ctx)
		if value != "" {
			req.Header.Set(name, value)
		}

		return nil
	}
}
