package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/fivetwenty-io/odata-client/internal/constants"
	"github.com/fivetwenty-io/odata-client/pkg/odata"
)

// Request is an immutable, fully assembled request. A single Request can be
// sent any number of times; every send gets a fresh body reader.
type Request struct {
	url       string
	method    string
	mode      odata.RequestMode
	headers   []Header
	query     []QueryParam
	body      []byte
	mediaType string
}

// URL returns the final URL including the query string.
func (r *Request) URL() string { return r.url }

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// RequestMode returns the browser fetch mode.
func (r *Request) RequestMode() odata.RequestMode { return r.mode }

// MediaType returns the body media type, or "" without a body.
func (r *Request) MediaType() string { return r.mediaType }

// HasBody reports whether a body was set, even an empty one.
func (r *Request) HasBody() bool { return r.body != nil }

// Headers returns a copy of the headers in insertion order.
func (r *Request) Headers() []Header {
	return slices.Clone(r.headers)
}

// Header returns the values of the headers named exactly name.
func (r *Request) Header(name string) []string {
	var values []string

	for _, header := range r.headers {
		if header.Name == name {
			values = append(values, header.Value)
		}
	}

	return values
}

// Body returns a copy of the body bytes.
func (r *Request) Body() []byte {
	return slices.Clone(r.body)
}

// Query returns the query parameters; later values win for a repeated key.
func (r *Request) Query() map[string]string {
	query := make(map[string]string, len(r.query))
	for _, param := range r.query {
		query[param.Key] = param.Value
	}

	return query
}

// NewHTTPRequest creates an *http.Request for one send. The body, if any,
// is replayable through GetBody.
func (r *Request) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for _, header := range r.headers {
		httpReq.Header.Add(header.Name, header.Value)
	}

	if r.body != nil && r.mediaType != "" && httpReq.Header.Get(constants.HeaderContentType) == "" {
		httpReq.Header.Set(constants.HeaderContentType, r.mediaType)
	}

	applyRequestMode(httpReq, r.mode)

	return httpReq, nil
}
