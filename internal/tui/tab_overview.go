package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/tui/components"
	"github.com/theirongolddev/salesdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// overviewRowLimit caps the filtered-rows preview.
const overviewRowLimit = 8

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	// Row 1: Metric cards
	salesDelta := ""
	if cmp := a.comparison; cmp.HasPrev {
		salesDelta = fmt.Sprintf("%+.1f%% %s vs %s",
			pipeline.PercentChange(cmp.Current.TotalSalesValue, cmp.Previous.TotalSalesValue),
			cmp.Current.Key(0), cmp.Previous.Key(0))
	}

	latest := "-"
	if len(a.monthly) > 0 {
		latest = cli.FormatMoneyCompact(a.comparison.Current.TotalSalesValue)
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total Sales Value", Value: cli.FormatMoney(a.totals.TotalSalesValue), Delta: salesDelta},
		{Label: "Total Quantity", Value: cli.FormatNumber(a.totals.TotalQuantity)},
		{Label: "Transactions", Value: cli.FormatNumber(int64(a.totals.Rows))},
		{Label: "Latest Month Sales", Value: latest, Delta: fmt.Sprintf("%d months", len(a.monthly))},
	}, cw))
	b.WriteString("\n")

	if a.totals.Rows == 0 {
		b.WriteString(components.ContentCard("No Data",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
				Render("No transactions match the current filters. Press f to change them or x to clear."),
			cw))
		return b.String()
	}

	// Row 2: Monthly trends
	labels := make([]string, len(a.monthly))
	sales := make([]float64, len(a.monthly))
	qty := make([]float64, len(a.monthly))
	for i, g := range a.monthly {
		labels[i] = g.Key(0)
		sales[i] = g.TotalSalesValue.InexactFloat64()
		qty[i] = float64(g.TotalQuantity)
	}

	chartH := 8
	if a.isCompactLayout() {
		chartH = 6
		b.WriteString(components.ContentCard("Sales Value Over Time",
			components.ColumnChart(sales, labels, t.Sales, components.CardInnerWidth(cw), chartH), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Quantity Sold Over Time",
			components.ColumnChart(qty, labels, t.Quantity, components.CardInnerWidth(cw), chartH), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Sales Value Over Time",
				components.ColumnChart(sales, labels, t.Sales, components.CardInnerWidth(halves[0]), chartH), halves[0]),
			components.ContentCard("Quantity Sold Over Time",
				components.ColumnChart(qty, labels, t.Quantity, components.CardInnerWidth(halves[1]), chartH), halves[1]),
		}))
	}
	b.WriteString("\n")

	// Row 3: Filtered rows
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Filtered Data (%s rows)", cli.FormatNumber(int64(a.filtered.Len()))),
		renderRowsTable(a.filtered, components.CardInnerWidth(cw), overviewRowLimit),
		cw,
	))

	return b.String()
}

// renderRowsTable renders the first limit rows of ds as aligned columns.
func renderRowsTable(ds *pipeline.Dataset, width, limit int) string {
	t := theme.Active
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	salesStyle := lipgloss.NewStyle().Foreground(t.Sales).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	const dateW, qtyW, priceW, salesW = 19, 8, 12, 14
	nameW := max((width-dateW-qtyW-priceW-salesW-5)/2, 8)

	cell := func(s string, w int, left bool) string {
		s = runewidth.Truncate(s, w, "…")
		if left {
			return runewidth.FillRight(s, w)
		}
		return runewidth.FillLeft(s, w)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.Join([]string{
		cell("Date", dateW, true),
		cell("Category", nameW, true),
		cell("Business", nameW, true),
		cell("Qty", qtyW, false),
		cell("Unit Price", priceW, false),
		cell("Sales Value", salesW, false),
	}, " ")))
	b.WriteString("\n")

	n := min(limit, ds.Len())
	for i := 0; i < n; i++ {
		tx := ds.Row(i)
		b.WriteString(rowStyle.Render(strings.Join([]string{
			cell(pipeline.FormatDate(tx.Date), dateW, true),
			cell(cli.FormatKey(tx.Category), nameW, true),
			cell(cli.FormatKey(tx.Business), nameW, true),
			cell(cli.FormatNumber(tx.Quantity), qtyW, false),
			cell(cli.FormatMoney(tx.UnitPrice), priceW, false),
		}, " ")))
		b.WriteString(rowStyle.Render(" "))
		b.WriteString(salesStyle.Render(cell(cli.FormatMoney(tx.SalesValue), salesW, false)))
		b.WriteString("\n")
	}
	if ds.Len() > n {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("… %s more", cli.FormatNumber(int64(ds.Len()-n)))))
	}
	return b.String()
}

// groupBars converts aggregate rows into horizontal bars of one measure.
func groupBars(rows []model.GroupStats, quantity bool) []components.HBar {
	bars := make([]components.HBar, len(rows))
	for i, g := range rows {
		bar := components.HBar{Label: cli.FormatKey(g.Key(len(g.Keys) - 1))}
		if quantity {
			bar.Value = float64(g.TotalQuantity)
			bar.Text = cli.FormatNumber(g.TotalQuantity)
		} else {
			bar.Value = g.TotalSalesValue.InexactFloat64()
			bar.Text = cli.FormatMoneyCompact(g.TotalSalesValue)
		}
		bars[i] = bar
	}
	return bars
}
