package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	odatahttp "github.com/fivetwenty-io/odata-client/internal/http"
	"github.com/fivetwenty-io/odata-client/pkg/odata"
)

func TestEscapeQueryValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "spaces", value: "Title eq 'Buy milk'", expected: "Title%20eq%20'Buy%20milk'"},
		{name: "functions", value: "contains(Title,'a')", expected: "contains(Title,'a')"},
		{name: "orderby", value: "DueDate desc,Title asc", expected: "DueDate%20desc,Title%20asc"},
		{name: "reserved characters", value: "a&b=c#d+e/f", expected: "a%26b%3Dc%23d%2Be%2Ff"},
		{name: "time literal", value: "Due lt 2024-03-01T12:30:00Z", expected: "Due%20lt%202024-03-01T12:30:00Z"},
		{name: "unicode", value: "'Grüße'", expected: "'Gr%C3%BC%C3%9Fe'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, odatahttp.EscapeQueryValue(tt.value))
		})
	}
}

func TestSetPage(t *testing.T) {
	t.Parallel()

	req, err := odatahttp.SetPage(odatahttp.NewRequestBuilder(serviceURL, http.MethodGet), 3, 20).Build()
	require.NoError(t, err)
	assert.Equal(t, serviceURL+"?$skip=40&$top=20", req.URL())

	_, err = odatahttp.SetPage(odatahttp.NewRequestBuilder(serviceURL, http.MethodGet), 0, 20).Build()
	require.ErrorIs(t, err, odata.ErrInvalidPage)
}

func TestSetFilterAndOrderBy(t *testing.T) {
	t.Parallel()

	builder := odatahttp.NewRequestBuilder(serviceURL, http.MethodGet)
	builder = odatahttp.SetFilter(builder, []odata.FilterDescriptor{
		{PropertyName: "Title", Operator: odata.FilterEqual, Value: "Buy milk"},
	})
	builder = odatahttp.SetOrderBy(builder, []odata.SortColumn{
		{PropertyName: "DueDate", SortDirection: odata.SortDescending},
	})

	req, err := builder.Build()
	require.NoError(t, err)
	assert.Equal(t, serviceURL+"?$filter=Title%20eq%20'Buy%20milk'&$orderby=DueDate%20desc", req.URL())
}

func TestSetFilter_EmptyLeavesBuilderUnchanged(t *testing.T) {
	t.Parallel()

	builder := odatahttp.SetFilter(odatahttp.NewRequestBuilder(serviceURL, http.MethodGet), nil)
	builder = odatahttp.SetOrderBy(builder, []odata.SortColumn{{PropertyName: ""}})

	req, err := builder.Build()
	require.NoError(t, err)
	assert.Equal(t, serviceURL, req.URL())
}

func TestSetFilter_Invalid(t *testing.T) {
	t.Parallel()

	_, err := odatahttp.SetFilter(odatahttp.NewRequestBuilder(serviceURL, http.MethodGet), []odata.FilterDescriptor{
		{PropertyName: "Title", Operator: "like", Value: "x"},
	}).Build()
	require.ErrorIs(t, err, odata.ErrInvalidFilter)
}

func TestApplyQueryParameters(t *testing.T) {
	t.Parallel()

	params, err := odata.NewQueryParametersBuilder().
		Page(2, 10).
		Filter([]odata.FilterDescriptor{
			{PropertyName: "Title", Operator: odata.FilterContains, Value: "milk"},
			{PropertyName: "Done", Operator: odata.FilterEqual, Value: false},
		}).
		OrderBy([]odata.SortColumn{{PropertyName: "Title"}}).
		Build()
	require.NoError(t, err)

	req, err := odatahttp.ApplyQueryParameters(odatahttp.NewRequestBuilder(serviceURL, http.MethodGet), params).Build()
	require.NoError(t, err)

	assert.Equal(t, serviceURL+
		"?$skip=10&$top=10"+
		"&$filter=(contains(Title,'milk'))%20and%20(Done%20eq%20false)"+
		"&$orderby=Title%20asc"+
		"&$count=true", req.URL())
}

func TestApplyQueryParameters_Empty(t *testing.T) {
	t.Parallel()

	req, err := odatahttp.ApplyQueryParameters(
		odatahttp.NewRequestBuilder(serviceURL, http.MethodGet), odata.QueryParameters{}).Build()
	require.NoError(t, err)
	assert.Equal(t, serviceURL, req.URL())
}
