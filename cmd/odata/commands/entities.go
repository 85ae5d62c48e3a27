package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/odata-client/internal/constants"
	"github.com/fivetwenty-io/odata-client/pkg/odata"
	"github.com/fivetwenty-io/odata-client/pkg/odataclient"
)

// EntityList is the structured output of the list command.
type EntityList struct {
	Count    *int64   `json:"count,omitempty"     yaml:"count,omitempty"`
	NextLink string   `json:"next_link,omitempty" yaml:"next_link,omitempty"`
	Value    []Entity `json:"value"               yaml:"value"`
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var (
		selectFlag string
		expandFlag string
	)

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Get a single entity",
		Long:  "Read one entity, for example: odata get \"UserTasks(42)\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			client, err := createClient()
			if err != nil {
				return err
			}

			var opts []odataclient.RequestOption
			if selectFlag != "" {
				opts = append(opts, odataclient.WithQuery(constants.QuerySelect, selectFlag))
			}

			if expandFlag != "" {
				opts = append(opts, odataclient.WithQuery(constants.QueryExpand, expandFlag))
			}

			result, err := odataclient.GetEntity[Entity](cmd.Context(), client, args[0], opts...)
			if err != nil {
				return err
			}

			return printEntity(cmd, format, *result.Entity)
		},
	}

	cmd.Flags().StringVar(&selectFlag, "select", "", "comma separated properties to return")
	cmd.Flags().StringVar(&expandFlag, "expand", "", "navigation properties to expand")

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		page        int
		pageSize    int
		filterFlags []string
		orderFlags  []string
		count       bool
	)

	cmd := &cobra.Command{
		Use:   "list PATH",
		Short: "List entities of a collection",
		Long: `List one page of an entity set.

Filters take the form property:operator:value, for example
  --filter Priority:ge:2 --filter "Title:contains:'milk'"
Operators: eq, neq, gt, gte, lt, lte, contains, startswith, endswith.
Several filters are combined with "and".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			params, err := buildQueryParameters(page, pageSize, filterFlags, orderFlags, count)
			if err != nil {
				return err
			}

			client, err := createClient()
			if err != nil {
				return err
			}

			result, err := odataclient.GetEntities[Entity](cmd.Context(), client, args[0], &params)
			if err != nil {
				return err
			}

			return printEntities(cmd, format, result)
		},
	}

	cmd.Flags().IntVar(&page, "page", constants.FirstPage, "page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", constants.DefaultPageSize, "entities per page")
	cmd.Flags().StringArrayVar(&filterFlags, "filter", nil, "filter as property:operator:value (repeatable)")
	cmd.Flags().StringArrayVar(&orderFlags, "orderby", nil, "sort as property[:asc|:desc] (repeatable)")
	cmd.Flags().BoolVar(&count, "count", true, "request the total count")

	return cmd
}

func buildQueryParameters(page, pageSize int, filterFlags, orderFlags []string, count bool) (odata.QueryParameters, error) {
	filters := make([]odata.FilterDescriptor, 0, len(filterFlags))

	for _, flag := range filterFlags {
		filter, err := parseFilterFlag(flag)
		if err != nil {
			return odata.QueryParameters{}, err
		}

		filters = append(filters, filter)
	}

	columns := make([]odata.SortColumn, 0, len(orderFlags))

	for _, flag := range orderFlags {
		column, err := parseOrderByFlag(flag)
		if err != nil {
			return odata.QueryParameters{}, err
		}

		columns = append(columns, column)
	}

	return odata.NewQueryParametersBuilder().
		Page(page, pageSize).
		Filter(filters).
		OrderBy(columns).
		IncludeCount(count).
		Build()
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	return newWriteCommand("create", "Create an entity", odataclient.Create[Entity])
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	return newWriteCommand("update", "Update an entity", odataclient.Update[Entity])
}

type writeFunc func(
	ctx context.Context, c *odataclient.Client, path string, entity Entity, opts ...odataclient.RequestOption,
) (*odata.EntityResponse[Entity], error)

func newWriteCommand(use, short string, write writeFunc) *cobra.Command {
	var dataFlag string

	cmd := &cobra.Command{
		Use:   use + " PATH",
		Short: short,
		Long:  short + " from a JSON or YAML document (--data FILE, or --data - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			entity, err := readData(dataFlag, cmd.InOrStdin())
			if err != nil {
				return err
			}

			client, err := createClient()
			if err != nil {
				return err
			}

			result, err := write(cmd.Context(), client, args[0], entity)
			if err != nil {
				return err
			}

			return printEntity(cmd, format, *result.Entity)
		},
	}

	cmd.Flags().StringVarP(&dataFlag, "data", "d", "", "entity document file, or - for stdin")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PATH",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			result, err := client.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (HTTP %d)\n", args[0], result.StatusCode)

			return nil
		},
	}
}

func printEntity(cmd *cobra.Command, format string, entity Entity) error {
	done, err := encodeStructured(cmd.OutOrStdout(), format, entity)
	if done || err != nil {
		return err
	}

	return renderEntity(cmd.OutOrStdout(), entity)
}

func printEntities(cmd *cobra.Command, format string, result *odata.EntitiesResponse[Entity]) error {
	list := EntityList{Value: result.Entities}

	if count, ok := result.Count(); ok {
		list.Count = &count
	}

	list.NextLink, _ = result.NextLink()

	out := cmd.OutOrStdout()

	done, err := encodeStructured(out, format, list)
	if done || err != nil {
		return err
	}

	if len(list.Value) == 0 {
		_, _ = fmt.Fprintln(out, "No entities found.")
	} else {
		err = renderEntities(out, list.Value)
		if err != nil {
			return err
		}
	}

	if list.Count != nil {
		_, _ = fmt.Fprintf(out, "Total: %d\n", *list.Count)
	}

	if list.NextLink != "" && viper.GetBool("verbose") {
		_, _ = fmt.Fprintf(out, "Next: %s\n", list.NextLink)
	}

	return nil
}
