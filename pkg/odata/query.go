package odata

import (
	"fmt"
	"strings"
)

// SortDirection is the direction of a $orderby column.
type SortDirection int

// Sort directions.
const (
	SortAscending SortDirection = iota
	SortDescending
)

// String returns the OData keyword for d.
func (d SortDirection) String() string {
	if d == SortDescending {
		return "desc"
	}

	return "asc"
}

// SortColumn is a single $orderby entry. Columns with an empty PropertyName are skipped.
type SortColumn struct {
	PropertyName  string
	SortDirection SortDirection
}

// OrderByClause renders columns as a $orderby expression, e.g. "Title asc,DueDate desc".
func OrderByClause(columns []SortColumn) string {
	parts := make([]string, 0, len(columns))

	for _, column := range columns {
		property := strings.TrimSpace(column.PropertyName)
		if property == "" {
			continue
		}

		parts = append(parts, property+" "+column.SortDirection.String())
	}

	return strings.Join(parts, ",")
}

// QueryParameters are the OData system query options for a collection request.
// A nil field means the option is omitted.
type QueryParameters struct {
	Skip         *int    `json:"skip,omitempty"    yaml:"skip,omitempty"`
	Top          *int    `json:"top,omitempty"     yaml:"top,omitempty"`
	Filter       *string `json:"filter,omitempty"  yaml:"filter,omitempty"`
	OrderBy      *string `json:"orderby,omitempty" yaml:"orderby,omitempty"`
	IncludeCount bool    `json:"count"             yaml:"count"`
}

// QueryParametersBuilder accumulates paging, filtering, and sorting. Every method
// returns a new builder; the receiver is never modified. The zero value is ready
// to use and requests an inline count.
type QueryParametersBuilder struct {
	skip         *int
	top          *int
	filter       *string
	orderBy      *string
	excludeCount bool
	err          error
}

// NewQueryParametersBuilder returns an empty builder.
func NewQueryParametersBuilder() QueryParametersBuilder {
	return QueryParametersBuilder{}
}

// Page selects a one-based page of pageSize entities. It sets $skip to
// (pageNumber-1)*pageSize and $top to pageSize.
func (b QueryParametersBuilder) Page(pageNumber, pageSize int) QueryParametersBuilder {
	if pageNumber < 1 {
		return b.fail(fmt.Errorf("%w: page number %d must be at least 1", ErrInvalidPage, pageNumber))
	}

	if pageSize < 1 {
		return b.fail(fmt.Errorf("%w: page size %d must be at least 1", ErrInvalidPage, pageSize))
	}

	skip := (pageNumber - 1) * pageSize
	top := pageSize
	b.skip = &skip
	b.top = &top

	return b
}

// Filter sets $filter from descriptors. An empty slice clears the filter.
func (b QueryParametersBuilder) Filter(descriptors []FilterDescriptor) QueryParametersBuilder {
	expression, err := TranslateFilters(descriptors)
	if err != nil {
		return b.fail(err)
	}

	b.filter = optionalString(expression)

	return b
}

// OrderBy sets $orderby from columns. Columns without a property name are ignored.
func (b QueryParametersBuilder) OrderBy(columns []SortColumn) QueryParametersBuilder {
	b.orderBy = optionalString(OrderByClause(columns))

	return b
}

// IncludeCount toggles $count=true. It is on by default.
func (b QueryParametersBuilder) IncludeCount(include bool) QueryParametersBuilder {
	b.excludeCount = !include

	return b
}

// Build returns the accumulated parameters or the first error any step produced.
func (b QueryParametersBuilder) Build() (QueryParameters, error) {
	if b.err != nil {
		return QueryParameters{}, b.err
	}

	return QueryParameters{
		Skip:         copyPointer(b.skip),
		Top:          copyPointer(b.top),
		Filter:       copyPointer(b.filter),
		OrderBy:      copyPointer(b.orderBy),
		IncludeCount: !b.excludeCount,
	}, nil
}

func (b QueryParametersBuilder) fail(err error) QueryParametersBuilder {
	if b.err == nil {
		b.err = err
	}

	return b
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func copyPointer[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}
