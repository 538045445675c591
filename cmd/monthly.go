package cmd

import (
	"fmt"
	"io"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Sales value and quantity per month",
	RunE:  runMonthly,
}

func init() {
	rootCmd.AddCommand(monthlyCmd)
}

func runMonthly(cmd *cobra.Command, _ []string) error {
	_, ds, err := loadData()
	if err != nil {
		return err
	}
	return writeMonthly(cmd.OutOrStdout(), ds)
}

func writeMonthly(w io.Writer, ds *pipeline.Dataset) error {
	months, err := monthlyRows(ds)
	if err != nil {
		return err
	}
	if len(months) == 0 {
		fmt.Fprintln(w, "\n  No transactions match the current filters.")
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle("MONTHLY SALES  "+filterLabel()))
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(months))
	var prev decimal.Decimal
	for i, m := range months {
		change := "-"
		if i > 0 {
			change = cli.FormatPercent(pipeline.PercentChange(m.TotalSalesValue, prev))
			if !m.TotalSalesValue.LessThan(prev) {
				change = "+" + change
			}
		}
		prev = m.TotalSalesValue
		rows = append(rows, []string{
			cli.FormatKey(m.Key(0)),
			cli.FormatNumber(int64(m.Count)),
			cli.FormatNumber(m.TotalQuantity),
			cli.FormatMoney(m.TotalSalesValue),
			change,
		})
	}

	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Rows", "Quantity", "Sales Value", "Change"},
		Rows:    rows,
	}))
	fmt.Fprintln(w)
	fmt.Fprint(w, cli.RenderBars(salesBars(months), 12, 36))
	return nil
}

// salesBars turns aggregate rows into sales value bars labeled by their
// last group key.
func salesBars(rows []model.GroupStats) []cli.Bar {
	bars := make([]cli.Bar, len(rows))
	for i, g := range rows {
		bars[i] = cli.Bar{
			Label: cli.FormatKey(g.Key(len(g.Keys) - 1)),
			Value: g.TotalSalesValue.InexactFloat64(),
			Text:  cli.FormatMoneyCompact(g.TotalSalesValue),
		}
	}
	return bars
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
