package odata

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ODataError is the error object an OData service returns in a failed response.
// Members the client does not model are kept verbatim in ExtensionData.
type ODataError struct {
	ErrorCode     string                     `json:"code,omitempty"       yaml:"code,omitempty"`
	Message       string                     `json:"message,omitempty"    yaml:"message,omitempty"`
	Target        string                     `json:"target,omitempty"     yaml:"target,omitempty"`
	Details       []ODataErrorDetail         `json:"details,omitempty"    yaml:"details,omitempty"`
	InnerError    *ODataInnerError           `json:"innerError,omitempty" yaml:"innerError,omitempty"`
	ExtensionData map[string]json.RawMessage `json:"-"                    yaml:"-"`
}

// ODataErrorDetail is a single entry of ODataError.Details.
type ODataErrorDetail struct {
	ErrorCode     string                     `json:"errorCode,omitempty" yaml:"errorCode,omitempty"`
	Message       string                     `json:"message,omitempty"   yaml:"message,omitempty"`
	Target        string                     `json:"target,omitempty"    yaml:"target,omitempty"`
	ExtensionData map[string]json.RawMessage `json:"-"                   yaml:"-"`
}

// ODataInnerError carries service specific debugging information. It nests recursively.
type ODataInnerError struct {
	Properties    map[string]json.RawMessage `json:"properties,omitempty" yaml:"properties,omitempty"`
	Message       string                     `json:"message,omitempty"    yaml:"message,omitempty"`
	TypeName      string                     `json:"typeName,omitempty"   yaml:"typeName,omitempty"`
	StackTrace    string                     `json:"stackTrace,omitempty" yaml:"stackTrace,omitempty"`
	InnerError    *ODataInnerError           `json:"innerError,omitempty" yaml:"innerError,omitempty"`
	ExtensionData map[string]json.RawMessage `json:"-"                    yaml:"-"`
}

// Error code values emitted by the reference server error handler.
const (
	ErrorCodeValidationFailed         = "ValidationFailed"
	ErrorCodeAuthenticationFailed     = "AuthenticationFailed"
	ErrorCodeEntityNotFound           = "EntityNotFound"
	ErrorCodeEntityConcurrencyFailure = "EntityConcurrencyFailure"
	ErrorCodeEntityUnauthorized       = "EntityUnauthorized"
	ErrorCodeInternalServerError      = "InternalServerError"
)

// Reasons carried by ProtocolError.
var (
	ErrTransport        = errors.New("sending the request failed")
	ErrReadBody         = errors.New("reading the response body failed")
	ErrEmptyBody        = errors.New("response has no content")
	ErrMalformedPayload = errors.New("response payload is not a JSON object")
	ErrMissingValue     = errors.New("expected a key with name 'value'")
	ErrDecodeEntity     = errors.New("deserializing the entity failed")
	ErrUndecodableError = errors.New("error response could not be decoded")
)

// Query translation errors.
var (
	ErrInvalidPage            = errors.New("invalid page")
	ErrInvalidFilter          = errors.New("invalid filter")
	ErrUnsupportedFilterValue = errors.New("unsupported filter value")
)

// Configuration errors.
var (
	ErrConfigRequired  = errors.New("config is required")
	ErrBaseURLRequired = errors.New("base URL is required")
)

var (
	errNotJSONObject   = errors.New("payload is not a JSON object")
	errNullEntityValue = errors.New("payload value is null")
	errNilResponse     = errors.New("no response to parse")
)

// Error implements the error interface.
func (e *ODataError) Error() string {
	switch {
	case e.ErrorCode != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
	case e.Message != "":
		return e.Message
	case e.ErrorCode != "":
		return e.ErrorCode
	default:
		return "unknown OData error"
	}
}

// UnmarshalJSON decodes the error object and keeps unknown members in ExtensionData.
func (e *ODataError) UnmarshalJSON(data []byte) error {
	type plain ODataError

	var decoded plain

	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return fmt.Errorf("decoding OData error: %w", err)
	}

	decoded.ExtensionData, err = extensionData(data, "code", "message", "target", "details", "innerError")
	if err != nil {
		return err
	}

	*e = ODataError(decoded)

	return nil
}

// MarshalJSON encodes the error object including its ExtensionData.
func (e ODataError) MarshalJSON() ([]byte, error) {
	type plain ODataError

	return marshalWithExtensionData(plain(e), e.ExtensionData)
}

// UnmarshalJSON decodes the detail. A detail spelling its code as "code" is accepted.
func (d *ODataErrorDetail) UnmarshalJSON(data []byte) error {
	type plain ODataErrorDetail

	var decoded plain

	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return fmt.Errorf("decoding OData error detail: %w", err)
	}

	decoded.ExtensionData, err = extensionData(data, "errorCode", "message", "target")
	if err != nil {
		return err
	}

	if decoded.ErrorCode == "" {
		if raw, ok := decoded.ExtensionData["code"]; ok && json.Unmarshal(raw, &decoded.ErrorCode) == nil {
			delete(decoded.ExtensionData, "code")
		}
	}

	if len(decoded.ExtensionData) == 0 {
		decoded.ExtensionData = nil
	}

	*d = ODataErrorDetail(decoded)

	return nil
}

// MarshalJSON encodes the detail including its ExtensionData.
func (d ODataErrorDetail) MarshalJSON() ([]byte, error) {
	type plain ODataErrorDetail

	return marshalWithExtensionData(plain(d), d.ExtensionData)
}

// UnmarshalJSON decodes the inner error. Both "innerError" and "innererror" nest.
func (e *ODataInnerError) UnmarshalJSON(data []byte) error {
	type plain ODataInnerError

	var decoded plain

	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return fmt.Errorf("decoding OData inner error: %w", err)
	}

	decoded.ExtensionData, err = extensionData(data, "properties", "message", "typeName", "stackTrace", "innerError")
	if err != nil {
		return err
	}

	*e = ODataInnerError(decoded)

	return nil
}

// MarshalJSON encodes the inner error including its ExtensionData.
func (e ODataInnerError) MarshalJSON() ([]byte, error) {
	type plain ODataInnerError

	return marshalWithExtensionData(plain(e), e.ExtensionData)
}

// extensionData returns the members of the object in data not named by known.
// Known names match case-insensitively, as encoding/json does for struct fields.
func extensionData(data []byte, known ...string) (map[string]json.RawMessage, error) {
	var members map[string]json.RawMessage

	err := json.Unmarshal(data, &members)
	if err != nil {
		return nil, fmt.Errorf("decoding extension data: %w", err)
	}

	for key := range members {
		if slices.ContainsFunc(known, func(name string) bool { return strings.EqualFold(name, key) }) {
			delete(members, key)
		}
	}

	if len(members) == 0 {
		return nil, nil
	}

	return members, nil
}

func marshalWithExtensionData(value any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding OData error: %w", err)
	}

	if len(extra) == 0 {
		return data, nil
	}

	merged := make(map[string]json.RawMessage, len(extra))

	err = json.Unmarshal(data, &merged)
	if err != nil {
		return nil, fmt.Errorf("merging extension data: %w", err)
	}

	for key, raw := range extra {
		if _, exists := merged[key]; !exists {
			merged[key] = raw
		}
	}

	data, err = json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding OData error: %w", err)
	}

	return data, nil
}

// ServerError is returned when the service answered with a non-success status
// and a decodable OData error payload.
type ServerError struct {
	StatusCode int
	Err        *ODataError
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("OData request failed with status %d", e.StatusCode)
	}

	return fmt.Sprintf("OData request failed with status %d: %s", e.StatusCode, e.Err.Error())
}

// Unwrap returns the decoded OData error.
func (e *ServerError) Unwrap() error {
	if e.Err == nil {
		return nil
	}

	return e.Err
}

// ProtocolError is returned when a response could not be received or interpreted.
// StatusCode is 0 when no response was received.
type ProtocolError struct {
	StatusCode int
	Reason     error
	Cause      error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	msg := "OData protocol error"
	if e.Reason != nil {
		msg = e.Reason.Error()
	}

	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}

	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap exposes both the reason sentinel and the underlying cause to errors.Is.
func (e *ProtocolError) Unwrap() []error {
	errs := make([]error, 0, 2) //nolint:mnd

	if e.Reason != nil {
		errs = append(errs, e.Reason)
	}

	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}

func newProtocolError(statusCode int, reason, cause error) *ProtocolError {
	return &ProtocolError{StatusCode: statusCode, Reason: reason, Cause: cause}
}

// AsServerError returns the ServerError in err's chain, if any.
func AsServerError(err error) (*ServerError, bool) {
	serverErr := &ServerError{}
	if errors.As(err, &serverErr) {
		return serverErr, true
	}

	return nil, false
}

// AsProtocolError returns the ProtocolError in err's chain, if any.
func AsProtocolError(err error) (*ProtocolError, bool) {
	protocolErr := &ProtocolError{}
	if errors.As(err, &protocolErr) {
		return protocolErr, true
	}

	return nil, false
}

// IsServerError reports whether err carries a decoded OData error.
func IsServerError(err error) bool {
	_, ok := AsServerError(err)

	return ok
}

// IsProtocolError reports whether err is a protocol failure.
func IsProtocolError(err error) bool {
	_, ok := AsProtocolError(err)

	return ok
}

// ErrorCode returns the OData error code carried by err, or "".
func ErrorCode(err error) string {
	serverErr, ok := AsServerError(err)
	if !ok || serverErr.Err == nil {
		return ""
	}

	return serverErr.Err.ErrorCode
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return matchesServerError(err, 404, ErrorCodeEntityNotFound) //nolint:mnd
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return matchesServerError(err, 401, ErrorCodeAuthenticationFailed) //nolint:mnd
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return matchesServerError(err, 403, ErrorCodeEntityUnauthorized) //nolint:mnd
}

// IsConflict checks if the error is a concurrency conflict.
func IsConflict(err error) bool {
	return matchesServerError(err, 409, ErrorCodeEntityConcurrencyFailure) //nolint:mnd
}

func matchesServerError(err error, statusCode int, code string) bool {
	serverErr, ok := AsServerError(err)
	if !ok {
		return false
	}

	if serverErr.StatusCode == statusCode {
		return true
	}

	return serverErr.Err != nil && serverErr.Err.ErrorCode == code
}
