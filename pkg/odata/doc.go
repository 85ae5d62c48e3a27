// Package odata provides the protocol layer of an OData v4 client: query
// translation, response parsing, and the error model.
//
// # Queries
//
// QueryParametersBuilder turns UI-level paging, filter, and sort state into
// OData system query options:
//
//	params, err := odata.NewQueryParametersBuilder().
//	  Page(2, 25).
//	  Filter([]odata.FilterDescriptor{
//	    {PropertyName: "Title", Operator: odata.FilterContains, Value: "milk"},
//	    {PropertyName: "Priority", Operator: odata.FilterGreaterThanOrEqual, Value: 2},
//	  }).
//	  OrderBy([]odata.SortColumn{{PropertyName: "DueDate", SortDirection: odata.SortDescending}}).
//	  Build()
//
// yields $skip=25, $top=25, $filter=(contains(Title,'milk')) and (Priority ge 2),
// $orderby=DueDate desc, and $count=true.
//
// # Responses
//
// Parser reads an *http.Response and returns one of three shapes: Response
// (envelope only), EntityResponse[T] (the payload is one entity), or
// EntitiesResponse[T] (the entities are in the "value" member). Every member
// whose name starts with "@odata" is collected into Response.Metadata.
//
// # Errors
//
// A non-success status with a decodable OData error payload yields a
// *ServerError wrapping an *ODataError. Everything else that goes wrong while
// sending or interpreting a response yields a *ProtocolError whose Reason is
// one of the Err* sentinels, so callers can branch with errors.Is:
//
//	if errors.Is(err, odata.ErrMissingValue) { ... }
//	if odata.IsNotFound(err) { ... }
//
// Context cancellation is returned as the context's error and is never
// wrapped in either type.
package odata
