package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagTop int

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Sales value and quantity per category",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDimension(cmd, "Category", source.ColCategory)
	},
}

var businessesCmd = &cobra.Command{
	Use:   "businesses",
	Short: "Sales value and quantity per business",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDimension(cmd, "Business", source.ColBusiness)
	},
}

func init() {
	for _, c := range []*cobra.Command{categoriesCmd, businessesCmd} {
		c.Flags().IntVarP(&flagTop, "top", "n", 20, "Show only the largest N (0 for all)")
		rootCmd.AddCommand(c)
	}
}

func runDimension(cmd *cobra.Command, name, column string) error {
	_, ds, err := loadData()
	if err != nil {
		return err
	}
	return writeDimension(cmd.OutOrStdout(), ds, name, column, flagTop)
}

// writeDimension prints one row per distinct value of column, largest
// sales value first, with each value's share of the total.
func writeDimension(w io.Writer, ds *pipeline.Dataset, name, column string, top int) error {
	view, err := pipeline.Aggregate(ds, column)
	if err != nil {
		return err
	}
	if len(view.Rows) == 0 {
		fmt.Fprintln(w, "\n  No transactions match the current filters.")
		return nil
	}
	pipeline.SortBySales(view.Rows)
	totals := pipeline.Totals(ds)

	shown := view.Rows
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle(fmt.Sprintf("SALES BY %s  %s", strings.ToUpper(name), filterLabel())))
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(shown))
	for _, g := range shown {
		rows = append(rows, []string{
			cli.Truncate(cli.FormatKey(g.Key(0)), 32),
			cli.FormatNumber(int64(g.Count)),
			cli.FormatNumber(g.TotalQuantity),
			cli.FormatMoney(g.TotalSalesValue),
			cli.FormatPercent(sharePercent(g.TotalSalesValue, totals.TotalSalesValue)),
		})
	}

	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Headers: []string{name, "Rows", "Quantity", "Sales Value", "Share"},
		Rows:    rows,
	}))
	if len(shown) < len(view.Rows) {
		fmt.Fprintf(w, "  Showing top %d of %d. Use --top 0 for all.\n", len(shown), len(view.Rows))
	}
	return nil
}

// sharePercent returns part as a percentage of total, or 0 for a zero total.
func sharePercent(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
