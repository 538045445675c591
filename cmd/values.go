package cmd

import (
	"fmt"
	"io"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var valuesCmd = &cobra.Command{
	Use:   "values <column>",
	Short: "Distinct values of a column",
	Example: "  salesdash values category\n" +
		"  salesdash values MONTH_YEAR --category A",
	Args: cobra.ExactArgs(1),
	RunE: runValues,
}

func init() {
	rootCmd.AddCommand(valuesCmd)
}

func runValues(cmd *cobra.Command, args []string) error {
	_, ds, err := loadData()
	if err != nil {
		return err
	}
	return writeValues(cmd.OutOrStdout(), ds, args[0])
}

// writeValues prints one distinct value per line, in first-appearance order.
func writeValues(w io.Writer, ds *pipeline.Dataset, column string) error {
	vals, err := pipeline.Distinct(ds, column)
	if err != nil {
		return err
	}
	for _, v := range vals {
		fmt.Fprintln(w, cli.FormatKey(v))
	}
	return nil
}
