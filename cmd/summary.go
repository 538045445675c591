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

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals and the monthly sales trend",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	_, ds, err := loadData()
	if err != nil {
		return err
	}
	return writeSummary(cmd.OutOrStdout(), ds)
}

func writeSummary(w io.Writer, ds *pipeline.Dataset) error {
	if ds.Len() == 0 {
		fmt.Fprintln(w, "\n  No transactions match the current filters.")
		return nil
	}

	totals := pipeline.Totals(ds)
	months, err := monthlyRows(ds)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle("SALES SUMMARY  "+filterLabel()))
	fmt.Fprintln(w)

	rows := [][]string{
		{"Transactions", cli.FormatNumber(int64(totals.Rows))},
		{"Total Quantity", cli.FormatNumber(totals.TotalQuantity)},
		{"Total Sales Value", cli.FormatMoney(totals.TotalSalesValue)},
		{"---"},
		{"Months", cli.FormatNumber(int64(len(months)))},
	}

	cmp := pipeline.ComparePeriods(months)
	if len(months) > 0 {
		latest := cli.FormatMoney(cmp.Current.TotalSalesValue)
		if cmp.HasPrev {
			latest += fmt.Sprintf("  (%s, %+.1f%% vs %s)",
				cli.FormatDelta(cmp.Current.TotalSalesValue, cmp.Previous.TotalSalesValue),
				pipeline.PercentChange(cmp.Current.TotalSalesValue, cmp.Previous.TotalSalesValue),
				cmp.Previous.Key(0))
		}
		rows = append(rows, []string{"Latest (" + cmp.Current.Key(0) + ")", latest})

		avg := totals.TotalSalesValue.Div(decimalFromInt(len(months)))
		rows = append(rows, []string{"Sales/month", cli.FormatMoney(avg)})
	}

	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(months) > 1 {
		vals := make([]float64, len(months))
		for i, m := range months {
			vals[i] = m.TotalSalesValue.InexactFloat64()
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Sales trend  %s  %s → %s\n",
			cli.RenderSparkline(vals), months[0].Key(0), months[len(months)-1].Key(0))
	}

	return nil
}

// monthlyRows aggregates ds by month in chronological order.
func monthlyRows(ds *pipeline.Dataset) ([]model.GroupStats, error) {
	view, err := pipeline.Aggregate(ds, source.ColMonthYear)
	if err != nil {
		return nil, err
	}
	pipeline.SortByPeriod(view.Rows)
	return view.Rows, nil
}
