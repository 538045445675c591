package cmd

import (
	"fmt"
	"io"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"

	"github.com/spf13/cobra"
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Category sales for one month (--month, default latest)",
	RunE:  runBreakdown,
}

func init() {
	rootCmd.AddCommand(breakdownCmd)
}

func runBreakdown(cmd *cobra.Command, _ []string) error {
	_, ds, err := loadData()
	if err != nil {
		return err
	}
	return writeBreakdown(cmd.OutOrStdout(), ds, flagMonth)
}

// writeBreakdown prints the (month, category) aggregate for month. An empty
// month selects the latest month in ds.
func writeBreakdown(w io.Writer, ds *pipeline.Dataset, month string) error {
	if ds.Len() == 0 {
		fmt.Fprintln(w, "\n  No transactions match the current filters.")
		return nil
	}

	view, err := pipeline.Aggregate(ds, source.ColMonthYear, source.ColCategory)
	if err != nil {
		return err
	}
	if month == "" {
		month = pipeline.ComparePeriods(view.Rows).Current.Key(0)
	}

	var rows []model.GroupStats
	for _, g := range view.Rows {
		if g.Key(0) == month {
			rows = append(rows, g)
		}
	}
	if len(rows) == 0 {
		fmt.Fprintf(w, "\n  No transactions in %s.\n", cli.FormatKey(month))
		return nil
	}
	pipeline.SortBySales(rows)

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle("CATEGORY BREAKDOWN  "+month))
	fmt.Fprintln(w)

	table := make([][]string, 0, len(rows))
	for _, g := range rows {
		table = append(table, []string{
			cli.Truncate(cli.FormatKey(g.Key(1)), 32),
			cli.FormatNumber(g.TotalQuantity),
			cli.FormatMoney(g.TotalSalesValue),
		})
	}
	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Quantity", "Sales Value"},
		Rows:    table,
	}))
	fmt.Fprintln(w)
	fmt.Fprint(w, cli.RenderBars(salesBars(rows), 16, 36))
	return nil
}
