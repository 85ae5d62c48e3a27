// Package odataclient provides the main entry point for talking to an OData v4
// service. It wires the request builder, the single-attempt transport, and the
// response parser from package odata behind a handful of generic operations.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/odata-client/pkg/odata"
//	  "github.com/fivetwenty-io/odata-client/pkg/odataclient"
//	)
//
//	type UserTask struct {
//	  ID    int    `json:"Id"`
//	  Title string `json:"Title"`
//	}
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := odataclient.New(&odata.Config{
//	    BaseURL:     "https://example.com/odata",
//	    AccessToken: "eyJhbGciOi...",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  params, err := odata.NewQueryParametersBuilder().Page(1, 10).Build()
//	  if err != nil { log.Fatal(err) }
//
//	  tasks, err := odataclient.GetEntities[UserTask](ctx, cli, "UserTasks", &params)
//	  if err != nil { log.Fatal(err) }
//
//	  total, _ := tasks.Count()
//	  log.Printf("%d of %d tasks", len(tasks.Entities), total)
//
//	  task, err := odataclient.GetEntity[UserTask](ctx, cli, "UserTasks({id})",
//	    odataclient.WithSegment("{id}", "42"))
//	  if odata.IsNotFound(err) { return }
//	  _ = task
//	}
//
// Every operation sends exactly one request. Retrying, caching, and paging
// through @odata.nextLink are left to the caller; ResolveURL accepts the
// absolute next link unchanged.
package odataclient
