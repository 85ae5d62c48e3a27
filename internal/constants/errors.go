package constants

import "errors"

// Configuration errors.
var (
	ErrNoServiceURL        = errors.New("no service URL configured, use 'odata config set url <url>' or --url")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrTokenFieldsReadOnly = errors.New("token cannot be set via 'config set', use 'odata config set-token'")
	ErrEmptyToken          = errors.New("token must not be empty")
)

// Validation errors.
var (
	ErrInvalidFilterFlag  = errors.New("invalid --filter, expected property:operator:value")
	ErrInvalidOrderByFlag = errors.New("invalid --orderby, expected property[:asc|:desc]")
	ErrInvalidOutput      = errors.New("invalid --output, expected table, json or yaml")
	ErrInvalidRetries     = errors.New("retries must be a non-negative integer")
	ErrDataRequired       = errors.New("--data is required (file path or '-' for stdin)")
)

// File system errors.
var (
	ErrNotRegularFile             = errors.New("path is not a regular file")
	ErrDirectoryTraversalDetected = errors.New("directory traversal detected in file path")
)
