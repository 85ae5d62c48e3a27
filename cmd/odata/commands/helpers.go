package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/odata-client/internal/constants"
	"github.com/fivetwenty-io/odata-client/pkg/odata"
	"github.com/fivetwenty-io/odata-client/pkg/odataclient"
)

// Entity is an entity of any shape as decoded from the service.
type Entity = map[string]any

// createClient builds a service client from the bound flags and configuration.
// Retries happen in the transport handed to the client, never in the client itself.
func createClient() (*odataclient.Client, error) {
	serviceURL := viper.GetString("url")
	if serviceURL == "" {
		return nil, constants.ErrNoServiceURL
	}

	verbose := viper.GetBool("verbose")

	var logger odata.Logger = odata.NoopLogger{}
	if verbose {
		logger = odata.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = viper.GetInt("retries")
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.Logger = nil

	if verbose {
		retryClient.Logger = retryLogger{logger: logger}
	}

	return odataclient.New(&odata.Config{
		BaseURL:     serviceURL,
		AccessToken: viper.GetString("token"),
		UserAgent:   "odata-cli/" + cliVersion,
		HTTPClient:  retryClient.StandardClient(),
		Debug:       verbose,
		Logger:      logger,
	})
}

// retryLogger adapts an odata.Logger to retryablehttp's leveled logger.
type retryLogger struct {
	logger odata.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keyValueFields(keysAndValues))
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keyValueFields(keysAndValues))
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keyValueFields(keysAndValues))
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keyValueFields(keysAndValues))
}

func keyValueFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2) //nolint:mnd

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}

// outputFormat returns the validated --output value.
func outputFormat() (string, error) {
	output := viper.GetString("output")
	if output == "" {
		return constants.FormatTable, nil
	}

	switch output {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return output, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutput, output)
	}
}

// encodeStructured writes value as JSON or YAML. It reports false for table output.
func encodeStructured(w io.Writer, format string, value any) (bool, error) {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return true, encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(constants.JSONIndentSize)

		err := encoder.Encode(value)
		if err != nil {
			return true, fmt.Errorf("failed to encode YAML: %w", err)
		}

		return true, encoder.Close()
	default:
		return false, nil
	}
}

func renderTable(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderEntity prints one entity as a property/value table.
func renderEntity(w io.Writer, entity Entity) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, key := range sortedKeys([]Entity{entity}) {
		_ = table.Append(key, formatCell(entity[key]))
	}

	return renderTable(table)
}

// renderEntities prints entities with one column per property.
func renderEntities(w io.Writer, entities []Entity) error {
	keys := sortedKeys(entities)
	title := cases.Title(language.English, cases.NoLower)

	headers := make([]any, 0, len(keys))
	for _, key := range keys {
		headers = append(headers, title.String(key))
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers...)

	for _, entity := range entities {
		row := make([]any, 0, len(keys))
		for _, key := range keys {
			row = append(row, formatCell(entity[key]))
		}

		_ = table.Append(row...)
	}

	return renderTable(table)
}

// sortedKeys returns the union of entity properties, control information excluded.
func sortedKeys(entities []Entity) []string {
	var keys []string

	for _, entity := range entities {
		for key := range entity {
			if strings.HasPrefix(strings.ToLower(key), constants.MetadataPrefix) || slices.Contains(keys, key) {
				continue
			}

			keys = append(keys, key)
		}
	}

	slices.Sort(keys)

	return keys
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return constants.NotAvailable
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	}
}

// parseFilterFlag parses a --filter value of the form property:operator:value.
func parseFilterFlag(flag string) (odata.FilterDescriptor, error) {
	parts := strings.SplitN(flag, ":", 3) //nolint:mnd
	if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
		return odata.FilterDescriptor{}, fmt.Errorf("%w: %q", constants.ErrInvalidFilterFlag, flag)
	}

	operator, err := odata.ParseFilterOperator(parts[1])
	if err != nil {
		return odata.FilterDescriptor{}, fmt.Errorf("%w: %w", constants.ErrInvalidFilterFlag, err)
	}

	return odata.FilterDescriptor{
		PropertyName: strings.TrimSpace(parts[0]),
		Operator:     operator,
		Value:        parseFilterValue(parts[2]),
	}, nil
}

// parseFilterValue infers the literal type of a filter value. Single quotes
// force a string.
func parseFilterValue(raw string) any {
	if len(raw) >= 2 && strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'") {
		return raw[1 : len(raw)-1]
	}

	switch raw {
	case "null":
		return nil
	case constants.BooleanTrue:
		return true
	case constants.BooleanFalse:
		return false
	}

	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}

	if id, err := uuid.Parse(raw); err == nil {
		return id
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}

	return raw
}

// parseOrderByFlag parses an --orderby value of the form property[:asc|:desc].
func parseOrderByFlag(flag string) (odata.SortColumn, error) {
	property, direction, _ := strings.Cut(flag, ":")

	property = strings.TrimSpace(property)
	if property == "" {
		return odata.SortColumn{}, fmt.Errorf("%w: %q", constants.ErrInvalidOrderByFlag, flag)
	}

	column := odata.SortColumn{PropertyName: property}

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", "asc":
		column.SortDirection = odata.SortAscending
	case "desc":
		column.SortDirection = odata.SortDescending
	default:
		return odata.SortColumn{}, fmt.Errorf("%w: %q", constants.ErrInvalidOrderByFlag, flag)
	}

	return column, nil
}

// readData reads an entity from path, or from stdin when path is "-". JSON and
// YAML documents are accepted; the result is always JSON.
func readData(path string, stdin io.Reader) (Entity, error) {
	if path == "" {
		return nil, constants.ErrDataRequired
	}

	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = readDataFile(path)
	}

	if err != nil {
		return nil, err
	}

	var entity Entity

	if json.Valid(data) {
		err = json.Unmarshal(data, &entity)
	} else {
		err = yaml.Unmarshal(data, &entity)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse entity data: %w", err)
	}

	return entity, nil
}

func readDataFile(path string) ([]byte, error) {
	if slices.Contains(strings.Split(filepath.ToSlash(path), "/"), "..") {
		return nil, fmt.Errorf("%w: %s", constants.ErrDirectoryTraversalDetected, path)
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access data file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", constants.ErrNotRegularFile, path)
	}

	// #nosec G304 -- the path is supplied by the user and checked above
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	return data, nil
}

// FormatError renders err for the terminal. Server-declared errors show their
// code, message and details.
func FormatError(err error) string {
	serverErr, ok := odata.AsServerError(err)
	if !ok || serverErr.Err == nil {
		return "Error: " + err.Error()
	}

	var builder strings.Builder

	fmt.Fprintf(&builder, "Error (HTTP %d): %s", serverErr.StatusCode, serverErr.Err.Error())

	if serverErr.Err.Target != "" {
		fmt.Fprintf(&builder, "\n  target: %s", serverErr.Err.Target)
	}

	for _, detail := range serverErr.Err.Details {
		fmt.Fprintf(&builder, "\n  - %s", detail.Message)

		if detail.Target != "" {
			fmt.Fprintf(&builder, " [%s]", detail.Target)
		}

		if detail.ErrorCode != "" {
			fmt.Fprintf(&builder, " (%s)", detail.ErrorCode)
		}
	}

	return builder.String()
}
