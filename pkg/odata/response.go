package odata

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	servertiming "github.com/mitchellh/go-server-timing"

	"github.com/fivetwenty-io/odata-client/internal/constants"
)

// Response is the envelope common to every parsed OData response.
type Response struct {
	StatusCode int                 `json:"status_code" yaml:"status_code"`
	Headers    map[string][]string `json:"headers"     yaml:"headers"`
	// Metadata holds every top-level member whose name starts with "@odata"
	// (case-insensitively), decoded into plain Go values.
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// EntityResponse is a response carrying a single entity.
type EntityResponse[T any] struct {
	Response `yaml:",inline"`

	Entity *T `json:"entity" yaml:"entity"`
}

// EntitiesResponse is a response carrying an entity collection.
type EntitiesResponse[T any] struct {
	Response `yaml:",inline"`

	Entities []T `json:"entities" yaml:"entities"`
}

// Annotation returns the metadata member named name, matching case-insensitively.
func (r *Response) Annotation(name string) (any, bool) {
	if value, ok := r.Metadata[name]; ok {
		return value, true
	}

	for key, value := range r.Metadata {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}

	return nil, false
}

// Count returns @odata.count. Services that honour IEEE754Compatible send it as a string.
func (r *Response) Count() (int64, bool) {
	value, ok := r.Annotation(constants.AnnotationCount)
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}

		return int64(v), true
	case json.Number:
		n, err := v.Int64()

		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)

		return n, err == nil
	default:
		return 0, false
	}
}

// NextLink returns @odata.nextLink.
func (r *Response) NextLink() (string, bool) {
	return r.stringAnnotation(constants.AnnotationNextLink)
}

// Context returns @odata.context.
func (r *Response) Context() (string, bool) {
	return r.stringAnnotation(constants.AnnotationContext)
}

// ETag returns @odata.etag, falling back to the ETag header.
func (r *Response) ETag() (string, bool) {
	if etag, ok := r.stringAnnotation(constants.AnnotationETag); ok {
		return etag, true
	}

	etag := r.Header(constants.HeaderETag)

	return etag, etag != ""
}

// Header returns the first value of the named response header.
func (r *Response) Header(name string) string {
	for key, values := range r.Headers {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}

	return ""
}

// ServerTiming parses the Server-Timing response headers. A response without
// them yields an empty header.
func (r *Response) ServerTiming() (*servertiming.Header, error) {
	var values []string

	for key, v := range r.Headers {
		if strings.EqualFold(key, constants.HeaderServerTiming) {
			values = append(values, v...)
		}
	}

	if len(values) == 0 {
		return &servertiming.Header{}, nil
	}

	header, err := servertiming.ParseHeader(strings.Join(values, ","))
	if err != nil {
		return nil, fmt.Errorf("parsing %s header: %w", constants.HeaderServerTiming, err)
	}

	return header, nil
}

func (r *Response) stringAnnotation(name string) (string, bool) {
	value, ok := r.Annotation(name)
	if !ok {
		return "", false
	}

	s, ok := value.(string)

	return s, ok
}
