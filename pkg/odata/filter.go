package odata

import (
	"encoding"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FilterOperator is a binary comparison or string function usable in $filter.
type FilterOperator string

// Supported filter operators.
const (
	FilterEqual              FilterOperator = "eq"
	FilterNotEqual           FilterOperator = "ne"
	FilterGreaterThan        FilterOperator = "gt"
	FilterGreaterThanOrEqual FilterOperator = "ge"
	FilterLessThan           FilterOperator = "lt"
	FilterLessThanOrEqual    FilterOperator = "le"
	FilterContains           FilterOperator = "contains"
	FilterStartsWith         FilterOperator = "startswith"
	FilterEndsWith           FilterOperator = "endswith"
)

// IsFunction reports whether op renders as a function call rather than an infix comparison.
func (op FilterOperator) IsFunction() bool {
	switch op {
	case FilterContains, FilterStartsWith, FilterEndsWith:
		return true
	default:
		return false
	}
}

// Valid reports whether op is a supported operator.
func (op FilterOperator) Valid() bool {
	switch op {
	case FilterEqual, FilterNotEqual, FilterGreaterThan, FilterGreaterThanOrEqual,
		FilterLessThan, FilterLessThanOrEqual:
		return true
	default:
		return op.IsFunction()
	}
}

// ParseFilterOperator parses the lowercase OData spelling of an operator.
func ParseFilterOperator(s string) (FilterOperator, error) {
	op := FilterOperator(strings.ToLower(strings.TrimSpace(s)))
	if !op.Valid() {
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, s)
	}

	return op, nil
}

// FilterDescriptor is a single filter condition as produced by a grid or list UI.
type FilterDescriptor struct {
	PropertyName string
	Operator     FilterOperator
	Value        any
}

// TranslateFilters renders descriptors as a $filter expression. Conditions are
// combined with "and"; each is parenthesized when there is more than one. An
// empty slice yields "".
func TranslateFilters(descriptors []FilterDescriptor) (string, error) {
	terms := make([]string, 0, len(descriptors))

	for i, descriptor := range descriptors {
		term, err := translateFilter(descriptor)
		if err != nil {
			return "", fmt.Errorf("filter %d: %w", i, err)
		}

		terms = append(terms, term)
	}

	switch len(terms) {
	case 0:
		return "", nil
	case 1:
		return terms[0], nil
	default:
		for i, term := range terms {
			terms[i] = "(" + term + ")"
		}

		return strings.Join(terms, " and "), nil
	}
}

func translateFilter(descriptor FilterDescriptor) (string, error) {
	property := strings.TrimSpace(descriptor.PropertyName)
	if property == "" {
		return "", fmt.Errorf("%w: property name is required", ErrInvalidFilter)
	}

	if !descriptor.Operator.Valid() {
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, string(descriptor.Operator))
	}

	literal, err := FormatLiteral(descriptor.Value)
	if err != nil {
		return "", err
	}

	if descriptor.Operator.IsFunction() {
		return fmt.Sprintf("%s(%s,%s)", descriptor.Operator, property, literal), nil
	}

	return fmt.Sprintf("%s %s %s", property, descriptor.Operator, literal), nil
}

// FormatLiteral renders value as an OData literal.
func FormatLiteral(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return quote(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return formatFloat(float64(v), 32), nil
	case float64:
		return formatFloat(v, 64), nil
	case decimal.Decimal:
		return v.String(), nil
	case uuid.UUID:
		return v.String(), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case *string:
		if v == nil {
			return "null", nil
		}

		return quote(*v), nil
	case fmt.Stringer:
		return quote(v.String()), nil
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnsupportedFilterValue, err)
		}

		return quote(string(text)), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedFilterValue, value)
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	default:
		return strconv.FormatFloat(f, 'g', -1, bitSize)
	}
}
