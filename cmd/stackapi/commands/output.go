package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// render writes value in the selected output format. fill populates the table
// used by the table format.
func render(cmd *cobra.Command, value interface{}, fill func(*tablewriter.Table) error) error {
	out := cmd.OutOrStdout()

	switch format := viper.GetString("output"); format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return encoder.Close()
	case constants.FormatTable, "":
		table := tablewriter.NewWriter(out)

		err := fill(table)
		if err != nil {
			return err
		}

		err = table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutput, format)
	}
}

func appendRows(table *tablewriter.Table, rows [][]string) error {
	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}

	return nil
}

// listParams builds list options from the common list flags.
func listParams(cmd *cobra.Command) *stackapi.ListParams {
	params := &stackapi.ListParams{Filters: map[string]string{}}

	params.Limit, _ = cmd.Flags().GetInt("limit")
	params.Marker, _ = cmd.Flags().GetString("marker")

	filters, _ := cmd.Flags().GetStringToString("filter")
	for key, value := range filters {
		params.Filters[key] = value
	}

	return params
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 0, "maximum number of results")
	cmd.Flags().String("marker", "", "id of the last item of the previous page")
	cmd.Flags().StringToString("filter", nil, "filter as key=value, repeatable")
}

func formatBool(value bool) string {
	return strconv.FormatBool(value)
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
