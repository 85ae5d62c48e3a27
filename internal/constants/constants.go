package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry settings used by the CLI transport. The library itself sends every
// request exactly once.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Pagination defaults.
const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 10

	// FirstPage is the number of the first page. Pages are 1-based.
	FirstPage = 1
)

// OData system query options.
const (
	QuerySkip    = "$skip"
	QueryTop     = "$top"
	QueryFilter  = "$filter"
	QueryOrderBy = "$orderby"
	QueryCount   = "$count"
	QuerySelect  = "$select"
	QueryExpand  = "$expand"
)

// OData JSON payload members.
const (
	// MetadataPrefix is the (case-insensitive) prefix of control information.
	MetadataPrefix = "@odata"

	// ValueKey holds the entities of a collection response.
	ValueKey = "value"

	// ErrorKey wraps the error object in the OData JSON error format.
	ErrorKey = "error"

	AnnotationCount    = "@odata.count"
	AnnotationNextLink = "@odata.nextLink"
	AnnotationContext  = "@odata.context"
	AnnotationETag     = "@odata.etag"
)

// HTTP headers.
const (
	HeaderAccept          = "Accept"
	HeaderAuthorization   = "Authorization"
	HeaderContentType     = "Content-Type"
	HeaderODataVersion    = "OData-Version"
	HeaderODataMaxVersion = "OData-MaxVersion"
	HeaderPrefer          = "Prefer"
	HeaderUserAgent       = "User-Agent"
	HeaderServerTiming    = "Server-Timing"
	HeaderETag            = "ETag"

	// HeaderFetchMode is read and stripped by the js/wasm transport and
	// becomes the fetch() RequestInit.mode.
	HeaderFetchMode = "js.fetch:mode"
)

// Header values.
const (
	// ContentTypeJSON is the plain JSON media type.
	ContentTypeJSON = "application/json"

	// ContentTypeODataWrite is sent with every write operation.
	ContentTypeODataWrite = "application/json;odata.metadata=minimal;odata.streaming=true;IEEE754Compatible=false;"

	// PreferReturnRepresentation asks the service to echo the written entity.
	PreferReturnRepresentation = "return=representation"

	ODataVersion    = "4.0"
	ODataMaxVersion = "4.01"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "odata-client-go/1.0"

	// BearerPrefix precedes access tokens in the Authorization header.
	BearerPrefix = "Bearer "
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// JSONIndentSize is the indentation used by JSON and YAML output.
	JSONIndentSize = 2
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// Boolean string constants.
const (
	// BooleanTrue string representation.
	BooleanTrue = "true"

	// BooleanFalse string representation.
	BooleanFalse = "false"
)
