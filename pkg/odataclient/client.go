package odataclient

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/fivetwenty-io/odata-client/internal/auth"
	"github.com/fivetwenty-io/odata-client/internal/constants"
	odatahttp "github.com/fivetwenty-io/odata-client/internal/http"
	"github.com/fivetwenty-io/odata-client/pkg/odata"
)

// Client sends OData requests relative to a service root. It is safe for
// concurrent use.
type Client struct {
	baseURL     string
	headers     map[string]string
	requestMode odata.RequestMode
	transport   *odatahttp.Client
	parser      *odata.Parser
	logger      odata.Logger
}

// RequestOption customizes a single request.
type RequestOption func(odatahttp.RequestBuilder) odatahttp.RequestBuilder

// WithSegment replaces placeholder in the request path with value.
func WithSegment(placeholder, value string) RequestOption {
	return func(b odatahttp.RequestBuilder) odatahttp.RequestBuilder {
		return b.AddURLSegment(placeholder, value)
	}
}

// WithHeader sets a header on the request.
func WithHeader(name, value string) RequestOption {
	return func(b odatahttp.RequestBuilder) odatahttp.RequestBuilder {
		return b.SetHeader(name, value)
	}
}

// WithQuery sets a query option. The value is escaped.
func WithQuery(key, value string) RequestOption {
	return func(b odatahttp.RequestBuilder) odatahttp.RequestBuilder {
		return b.SetQueryString(key, odatahttp.EscapeQueryValue(value))
	}
}

// WithRequestMode overrides the configured browser fetch mode.
func WithRequestMode(mode odata.RequestMode) RequestOption {
	return func(b odatahttp.RequestBuilder) odatahttp.RequestBuilder {
		return b.SetRequestMode(mode)
	}
}

// New creates a new OData client.
func New(config *odata.Config) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	logger := config.Logger
	if logger == nil {
		logger = odata.NoopLogger{}
	}

	opts := []odatahttp.Option{
		odatahttp.WithLogger(logger),
		odatahttp.WithDebug(config.Debug),
		odatahttp.WithUserAgent(config.UserAgent),
		odatahttp.WithTokenManager(auth.NewStaticTokenManager(config.AccessToken, time.Time{})),
		odatahttp.WithTracerProvider(config.TracerProvider),
		odatahttp.WithMeterProvider(config.MeterProvider),
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, odatahttp.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.HTTPClient != nil {
		opts = append(opts, odatahttp.WithDoer(config.HTTPClient))
	}

	chain := odata.NewInterceptorChain()
	chain.Extend(config.Interceptors)

	if config.Debug {
		chain.AddResponseInterceptor(odata.LoggingResponseInterceptor(logger))
	}

	if chain.Len() > 0 {
		opts = append(opts, odatahttp.WithInterceptors(chain))
	}

	headers := make(map[string]string, len(config.Headers))
	for name, value := range config.Headers {
		headers[name] = value
	}

	return &Client{
		baseURL:     baseURL,
		headers:     headers,
		requestMode: config.RequestMode.OrDefault(),
		transport:   odatahttp.NewClient(opts...),
		parser:      odata.NewParser(logger),
		logger:      logger,
	}, nil
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Parser returns the parser used for responses, for callers of Do.
func (c *Client) Parser() *odata.Parser {
	return c.parser
}

// ResolveURL returns the absolute URL for path. Absolute URLs, such as an
// @odata.nextLink, are returned unchanged.
func (c *Client) ResolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// Do sends one request and returns the raw response. body, when non-nil, is
// sent as JSON. The caller must close the response body.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, opts ...RequestOption) (*http.Response, error) {
	builder := c.newRequest(method, path)
	if body != nil {
		builder = builder.SetBodyContent(body, constants.ContentTypeJSON)
	}

	return c.send(ctx, builder, opts)
}

// GetEntity reads a single entity.
func GetEntity[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (*odata.EntityResponse[T], error) {
	c.logger.Debug("GetEntity", map[string]interface{}{"path": path})

	resp, err := c.send(ctx, c.newRequest(http.MethodGet, path), opts)
	if err != nil {
		return nil, err
	}

	return odata.ParseEntity[T](ctx, c.parser, resp)
}

// GetEntities reads a collection. params may be nil.
func GetEntities[T any](
	ctx context.Context, c *Client, path string, params *odata.QueryParameters, opts ...RequestOption,
) (*odata.EntitiesResponse[T], error) {
	c.logger.Debug("GetEntities", map[string]interface{}{"path": path})

	builder := c.newRequest(http.MethodGet, path)
	if params != nil {
		builder = odatahttp.ApplyQueryParameters(builder, *params)
	}

	resp, err := c.send(ctx, builder, opts)
	if err != nil {
		return nil, err
	}

	return odata.ParseEntities[T](ctx, c.parser, resp)
}

// Create posts entity and returns the created entity.
func Create[T any](ctx context.Context, c *Client, path string, entity T, opts ...RequestOption) (*odata.EntityResponse[T], error) {
	c.logger.Debug("Create", map[string]interface{}{"path": path})

	return write[T](ctx, c, http.MethodPost, path, entity, opts)
}

// Update patches entity and returns the updated entity.
func Update[T any](ctx context.Context, c *Client, path string, entity T, opts ...RequestOption) (*odata.EntityResponse[T], error) {
	c.logger.Debug("Update", map[string]interface{}{"path": path})

	return write[T](ctx, c, http.MethodPatch, path, entity, opts)
}

// Delete deletes the entity at path.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*odata.Response, error) {
	c.logger.Debug("Delete", map[string]interface{}{"path": path})

	resp, err := c.send(ctx, c.newRequest(http.MethodDelete, path), opts)
	if err != nil {
		return nil, err
	}

	return c.parser.Parse(ctx, resp)
}

func write[T any](ctx context.Context, c *Client, method, path string, entity T, opts []RequestOption) (*odata.EntityResponse[T], error) {
	body, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}

	builder := c.newRequest(method, path).
		SetBodyContent(body, constants.ContentTypeODataWrite).
		SetHeader(constants.HeaderPrefer, constants.PreferReturnRepresentation)

	resp, err := c.send(ctx, builder, opts)
	if err != nil {
		return nil, err
	}

	return odata.ParseEntity[T](ctx, c.parser, resp)
}

func (c *Client) newRequest(method, path string) odatahttp.RequestBuilder {
	builder := odatahttp.NewRequestBuilder(c.ResolveURL(path), method).
		SetHeader(constants.HeaderAccept, constants.ContentTypeJSON).
		SetHeader(constants.HeaderODataVersion, constants.ODataVersion).
		SetHeader(constants.HeaderODataMaxVersion, constants.ODataMaxVersion).
		SetRequestMode(c.requestMode)

	for _, name := range slices.Sorted(maps.Keys(c.headers)) {
		builder = builder.SetHeader(name, c.headers[name])
	}

	return builder
}

func (c *Client) send(ctx context.Context, builder odatahttp.RequestBuilder, opts []RequestOption) (*http.Response, error) {
	for _, opt := range opts {
		builder = opt(builder)
	}

	req, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	return c.transport.Do(ctx, req)
}

// NewWithEndpoint creates a client for baseURL without authentication.
func NewWithEndpoint(baseURL string) (*Client, error) {
	return New(&odata.Config{BaseURL: baseURL})
}

// NewWithToken creates a client for baseURL that sends accessToken as a bearer token.
func NewWithToken(baseURL, accessToken string) (*Client, error) {
	return New(&odata.Config{BaseURL: baseURL, AccessToken: accessToken})
}
