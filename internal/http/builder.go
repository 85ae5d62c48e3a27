package http

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/fivetwenty-io/odata-client/pkg/odata"
)

// Builder errors.
var (
	ErrURLRequired        = errors.New("request URL is required")
	ErrDuplicateQueryKey  = errors.New("query parameter already added")
	ErrUnsupportedCharset = errors.New("unsupported charset")
)

// Header is a single request header. Names are compared exactly.
type Header struct {
	Name  string
	Value string
}

// QueryParam is a single query string entry.
type QueryParam struct {
	Key   string
	Value string
}

type urlSegment struct {
	placeholder string
	value       string
}

// RequestBuilder assembles a Request. It is a value: every method returns a
// modified copy and leaves the receiver untouched, so a partially configured
// builder can be shared as a template. The first error any method records is
// returned by Build.
type RequestBuilder struct {
	url       string
	method    string
	mode      odata.RequestMode
	headers   []Header
	segments  []urlSegment
	query     []QueryParam
	body      []byte
	hasBody   bool
	mediaType string
	err       error
}

// NewRequestBuilder starts a request for rawURL. An empty method means GET.
func NewRequestBuilder(rawURL, method string) RequestBuilder {
	return RequestBuilder{url: rawURL, method: method, mode: odata.RequestModeCORS}
}

// Method replaces the HTTP method.
func (b RequestBuilder) Method(method string) RequestBuilder {
	b.method = method

	return b
}

// SetQueryString sets key to value, replacing any previous value.
func (b RequestBuilder) SetQueryString(key, value string) RequestBuilder {
	query := slices.Clone(b.query)

	for i := range query {
		if query[i].Key == key {
			query[i].Value = value
			b.query = query

			return b
		}
	}

	b.query = append(query, QueryParam{Key: key, Value: value})

	return b
}

// AddQueryString adds key. Adding a key that is already present records
// ErrDuplicateQueryKey.
func (b RequestBuilder) AddQueryString(key, value string) RequestBuilder {
	if slices.ContainsFunc(b.query, func(p QueryParam) bool { return p.Key == key }) {
		return b.fail(fmt.Errorf("%w: %q", ErrDuplicateQueryKey, key))
	}

	b.query = append(slices.Clip(b.query), QueryParam{Key: key, Value: value})

	return b
}

// AddHeader appends a header. Repeated names produce repeated headers.
func (b RequestBuilder) AddHeader(name, value string) RequestBuilder {
	b.headers = append(slices.Clip(b.headers), Header{Name: name, Value: value})

	return b
}

// SetHeader removes every header named exactly name, then appends one.
func (b RequestBuilder) SetHeader(name, value string) RequestBuilder {
	headers := slices.DeleteFunc(slices.Clone(b.headers), func(h Header) bool { return h.Name == name })
	b.headers = append(headers, Header{Name: name, Value: value})

	return b
}

// SetBodyContent sets the body and its media type.
func (b RequestBuilder) SetBodyContent(content []byte, mediaType string) RequestBuilder {
	b.body = slices.Clone(content)
	b.hasBody = true
	b.mediaType = mediaType

	return b
}

// SetStringContent sets a text body encoded with charset, which is any
// WHATWG encoding label. An empty charset means UTF-8 and leaves the media
// type without a charset parameter.
func (b RequestBuilder) SetStringContent(content, charset, mediaType string) RequestBuilder {
	if charset == "" {
		return b.SetBodyContent([]byte(content), mediaType)
	}

	encoding, err := htmlindex.Get(charset)
	if err != nil {
		return b.fail(fmt.Errorf("%w: %q", ErrUnsupportedCharset, charset))
	}

	encoded, err := encoding.NewEncoder().String(content)
	if err != nil {
		return b.fail(fmt.Errorf("encoding body as %s: %w", charset, err))
	}

	return b.SetBodyContent([]byte(encoded), mediaType+"; charset="+charset)
}

// AddURLSegment replaces placeholder with value in the URL at Build time.
// Replacements apply in the order they were added.
func (b RequestBuilder) AddURLSegment(placeholder, value string) RequestBuilder {
	b.segments = append(slices.Clip(b.segments), urlSegment{placeholder: placeholder, value: value})

	return b
}

// SetRequestMode sets the browser fetch mode.
func (b RequestBuilder) SetRequestMode(mode odata.RequestMode) RequestBuilder {
	err := mode.Validate()
	if err != nil {
		return b.fail(err)
	}

	b.mode = mode.OrDefault()

	return b
}

// Build produces the request descriptor. The query string is appended verbatim;
// values must already be escaped.
func (b RequestBuilder) Build() (*Request, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.url == "" {
		return nil, ErrURLRequired
	}

	method := b.method
	if method == "" {
		method = http.MethodGet
	}

	target := b.url
	for _, segment := range b.segments {
		target = strings.ReplaceAll(target, segment.placeholder, segment.value)
	}

	if len(b.query) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}

		target += separator + encodeQuery(b.query)
	}

	request := &Request{
		url:     target,
		method:  method,
		mode:    b.mode.OrDefault(),
		headers: slices.Clone(b.headers),
		query:   slices.Clone(b.query),
	}

	if b.hasBody {
		request.body = slices.Clone(b.body)
		if request.body == nil {
			request.body = []byte{}
		}

		request.mediaType = b.mediaType
	}

	return request, nil
}

// Err returns the first error recorded so far.
func (b RequestBuilder) Err() error {
	return b.err
}

func (b RequestBuilder) fail(err error) RequestBuilder {
	if b.err == nil {
		b.err = err
	}

	return b
}

func encodeQuery(query []QueryParam) string {
	parts := make([]string, 0, len(query))
	for _, param := range query {
		parts = append(parts, param.Key+"="+param.Value)
	}

	return strings.Join(parts, "&")
}
