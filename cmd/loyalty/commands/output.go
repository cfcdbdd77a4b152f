package commands

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// render writes value in the configured output format. Table output is
// produced by fill.
func render(cmd *cobra.Command, value any, fill func(table *tablewriter.Table) error) error {
	output, err := outputFormat()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	switch output {
	case OutputFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", fmt.Sprintf("%*s", defaultJSONIndent, ""))

		return encoder.Encode(value)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(out)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(value)
	default:
		table := tablewriter.NewWriter(out)

		err = fill(table)
		if err != nil {
			return fmt.Errorf("failed to build table: %w", err)
		}

		return table.Render()
	}
}

// renderList is render for collections; an empty table prints message.
func renderList[T any](cmd *cobra.Command, items []T, empty string, fill func(table *tablewriter.Table) error) error {
	output, err := outputFormat()
	if err != nil {
		return err
	}

	if len(items) == 0 && output == OutputFormatTable {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), empty)

		return nil
	}

	if items == nil {
		items = []T{}
	}

	return render(cmd, items, fill)
}
