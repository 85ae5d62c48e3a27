package odata

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/odata-client/internal/constants"
)

// Parser turns HTTP responses into typed OData results or classified errors.
// It is stateless and safe for concurrent use.
type Parser struct {
	logger Logger
}

// NewParser creates a parser. logger may be nil.
func NewParser(logger Logger) *Parser {
	return &Parser{logger: loggerOrNoop(logger)}
}

// payload is a received success body split into its top-level members.
type payload struct {
	raw     []byte
	members map[string]json.RawMessage
}

// Parse reads resp and returns its envelope. A success response without a body
// (for example 204 after a DELETE) is accepted. The body is consumed and closed.
func (p *Parser) Parse(ctx context.Context, resp *http.Response) (*Response, error) {
	content, err := p.receive(ctx, resp, false)
	if err != nil {
		return nil, err
	}

	return newResponse(resp, content), nil
}

// ParseEntity reads resp and decodes the whole payload as a single T.
func ParseEntity[T any](ctx context.Context, p *Parser, resp *http.Response) (*EntityResponse[T], error) {
	content, err := p.receive(ctx, resp, true)
	if err != nil {
		return nil, err
	}

	var entity T

	err = json.Unmarshal(content.raw, &entity)
	if err != nil {
		return nil, newProtocolError(resp.StatusCode, ErrDecodeEntity, err)
	}

	return &EntityResponse[T]{Response: *newResponse(resp, content), Entity: &entity}, nil
}

// ParseEntities reads resp and decodes the "value" member as a []T.
func ParseEntities[T any](ctx context.Context, p *Parser, resp *http.Response) (*EntitiesResponse[T], error) {
	content, err := p.receive(ctx, resp, true)
	if err != nil {
		return nil, err
	}

	raw, ok := content.members[constants.ValueKey]
	if !ok {
		return nil, newProtocolError(resp.StatusCode, ErrMissingValue, nil)
	}

	if isJSONNull(raw) {
		return nil, newProtocolError(resp.StatusCode, ErrDecodeEntity, errNullEntityValue)
	}

	var entities []T

	err = json.Unmarshal(raw, &entities)
	if err != nil {
		return nil, newProtocolError(resp.StatusCode, ErrDecodeEntity, err)
	}

	if entities == nil {
		entities = []T{}
	}

	return &EntitiesResponse[T]{Response: *newResponse(resp, content), Entities: entities}, nil
}

// receive reads the body, classifies non-success statuses into errors, and splits
// a success body into members. requireBody rejects an empty success body.
func (p *Parser) receive(ctx context.Context, resp *http.Response, requireBody bool) (*payload, error) {
	if resp == nil {
		return nil, newProtocolError(0, ErrReadBody, errNilResponse)
	}

	body, err := readBody(ctx, resp)
	if err != nil {
		return nil, err
	}

	if !isSuccessStatus(resp.StatusCode) {
		errResp := decodeErrorResponse(resp.StatusCode, body)
		p.logger.Debug("OData error response", map[string]interface{}{
			"status_code": resp.StatusCode,
			"error":       errResp.Error(),
		})

		return nil, errResp
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if requireBody {
			return nil, newProtocolError(resp.StatusCode, ErrEmptyBody, nil)
		}

		return &payload{}, nil
	}

	members, err := decodeObject(body)
	if err != nil {
		return nil, newProtocolError(resp.StatusCode, ErrMalformedPayload, err)
	}

	p.logger.Debug("OData response", map[string]interface{}{
		"status_code": resp.StatusCode,
		"members":     len(members),
	})

	return &payload{raw: body, members: members}, nil
}

// readBody reads and closes resp.Body. Cancellation of ctx wins over any read error.
func readBody(ctx context.Context, resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, ctx.Err()
	}

	defer func() { _ = resp.Body.Close() }()

	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(&contextReader{ctx: ctx, reader: resp.Body})

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return nil, ctxErr
	}

	if err != nil {
		return nil, newProtocolError(resp.StatusCode, ErrReadBody, err)
	}

	return body, nil
}

type contextReader struct {
	ctx    context.Context //nolint:containedctx
	reader io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	err := r.ctx.Err()
	if err != nil {
		return 0, err
	}

	return r.reader.Read(p)
}

// decodeErrorResponse accepts both {"error":{...}} and a bare error object. Any
// JSON object with well-typed members is a server-declared error, even one
// without code or message.
func decodeErrorResponse(statusCode int, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return newProtocolError(statusCode, ErrUndecodableError, ErrEmptyBody)
	}

	members, err := decodeObject(trimmed)
	if err != nil {
		return newProtocolError(statusCode, ErrUndecodableError, err)
	}

	errorBody := trimmed
	if wrapped, ok := members[constants.ErrorKey]; ok && isJSONObject(wrapped) {
		errorBody = wrapped
	}

	var odataErr ODataError

	err = json.Unmarshal(errorBody, &odataErr)
	if err != nil {
		return newProtocolError(statusCode, ErrUndecodableError, err)
	}

	return &ServerError{StatusCode: statusCode, Err: &odataErr}
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	if !isJSONObject(body) {
		if !json.Valid(body) {
			var discard any

			return nil, json.Unmarshal(body, &discard)
		}

		return nil, errNotJSONObject
	}

	var members map[string]json.RawMessage

	err := json.Unmarshal(body, &members)
	if err != nil {
		return nil, err
	}

	return members, nil
}

func newResponse(resp *http.Response, content *payload) *Response {
	headers := map[string][]string(resp.Header.Clone())
	if headers == nil {
		headers = map[string][]string{}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Metadata:   extractMetadata(content.members),
	}
}

func extractMetadata(members map[string]json.RawMessage) map[string]any {
	metadata := make(map[string]any)

	for key, raw := range members {
		if !strings.HasPrefix(strings.ToLower(key), constants.MetadataPrefix) {
			continue
		}

		var value any
		if json.Unmarshal(raw, &value) == nil {
			metadata[key] = value
		}
	}

	return metadata
}

func isSuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

func isJSONObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)

	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isJSONNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
