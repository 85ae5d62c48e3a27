package http

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/odata-client/internal/constants"
	"github.com/fivetwenty-io/odata-client/pkg/odata"
)

// queryUnescaper restores the characters OData expressions use literally.
var queryUnescaper = strings.NewReplacer(
	"+", "%20",
	"%24", "$",
	"%2C", ",",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%3A", ":",
)

// EscapeQueryValue escapes an OData query option value for the URL. Spaces become
// %20; "$ , ' ( ) :" stay literal so expressions remain readable in logs.
func EscapeQueryValue(value string) string {
	return queryUnescaper.Replace(url.QueryEscape(value))
}

// SetPage sets $skip and $top for a one-based page.
func SetPage(b RequestBuilder, pageNumber, pageSize int) RequestBuilder {
	params, err := odata.NewQueryParametersBuilder().Page(pageNumber, pageSize).IncludeCount(false).Build()
	if err != nil {
		return b.fail(err)
	}

	return ApplyQueryParameters(b, params)
}

// SetFilter sets $filter from descriptors. An empty slice leaves the builder unchanged.
func SetFilter(b RequestBuilder, descriptors []odata.FilterDescriptor) RequestBuilder {
	params, err := odata.NewQueryParametersBuilder().Filter(descriptors).IncludeCount(false).Build()
	if err != nil {
		return b.fail(err)
	}

	return ApplyQueryParameters(b, params)
}

// SetOrderBy sets $orderby from columns. No named columns leaves the builder unchanged.
func SetOrderBy(b RequestBuilder, columns []odata.SortColumn) RequestBuilder {
	params, err := odata.NewQueryParametersBuilder().OrderBy(columns).IncludeCount(false).Build()
	if err != nil {
		return b.fail(err)
	}

	return ApplyQueryParameters(b, params)
}

// ApplyQueryParameters sets every option present in params, escaping the
// expression values. IncludeCount adds $count=true.
func ApplyQueryParameters(b RequestBuilder, params odata.QueryParameters) RequestBuilder {
	if params.Skip != nil {
		b = b.SetQueryString(constants.QuerySkip, strconv.Itoa(*params.Skip))
	}

	if params.Top != nil {
		b = b.SetQueryString(constants.QueryTop, strconv.Itoa(*params.Top))
	}

	if params.Filter != nil {
		b = b.SetQueryString(constants.QueryFilter, EscapeQueryValue(*params.Filter))
	}

	if params.OrderBy != nil {
		b = b.SetQueryString(constants.QueryOrderBy, EscapeQueryValue(*params.OrderBy))
	}

	if params.IncludeCount {
		b = b.SetQueryString(constants.QueryCount, constants.BooleanTrue)
	}

	return b
}
