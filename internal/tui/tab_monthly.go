package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/tui/components"
	"github.com/theirongolddev/salesdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderMonthlyTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	month := a.selectedMonth()
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	b.WriteString(lipgloss.NewStyle().Background(t.Surface).Width(cw).Render(
		dim.Render(" ‹ ") + accent.Render(cli.FormatKey(month)) + dim.Render(" › ") +
			dim.Render(fmt.Sprintf(" month %d of %d, [ and ] to change", a.monthIdx+1, len(a.months)))))
	b.WriteString("\n")

	// Category breakdown for the selected month
	rows := a.monthCategories()
	halves := components.LayoutRow(cw, 2)
	catCards := []string{
		components.ContentCard("Sales Value by Category",
			components.HBarChart(groupBars(rows, false), t.Sales, components.CardInnerWidth(halves[0])), halves[0]),
		components.ContentCard("Quantity by Category",
			components.HBarChart(groupBars(rows, true), t.Quantity, components.CardInnerWidth(halves[1])), halves[1]),
	}
	if a.isCompactLayout() {
		catCards = []string{
			components.ContentCard("Sales Value by Category",
				components.HBarChart(groupBars(rows, false), t.Sales, components.CardInnerWidth(cw)), cw),
		}
	}
	b.WriteString(components.CardRow(catCards))
	b.WriteString("\n")

	// Sales trend over all months
	labels := make([]string, len(a.trend))
	vals := make([]float64, len(a.trend))
	for i, g := range a.trend {
		labels[i] = g.Key(0)
		vals[i] = g.TotalSalesValue.InexactFloat64()
	}
	trendW := cw
	if !a.isCompactLayout() {
		trendW = halves[0]
	}
	trendCard := components.ContentCard("Sales Trend Over Time",
		components.ColumnChart(vals, labels, t.Sales, components.CardInnerWidth(trendW), 7), trendW)

	segCard := components.ContentCard("Business Segmentation",
		a.renderSegments(components.CardInnerWidth(trendW)), trendW)

	if a.isCompactLayout() {
		b.WriteString(trendCard)
		b.WriteString("\n")
		b.WriteString(segCard)
	} else {
		b.WriteString(components.CardRow([]string{trendCard, segCard}))
	}

	return b.String()
}

// renderSegments draws each value segment's share of total sales.
func (a App) renderSegments(width int) string {
	t := theme.Active
	colors := map[string]lipgloss.Color{
		pipeline.SegmentHigh:   t.High,
		pipeline.SegmentMedium: t.Medium,
		pipeline.SegmentLow:    t.Low,
	}

	const labelW = 12
	barW := max(width-labelW-30, 6)

	lines := make([]string, 0, len(a.segments)+1)
	for _, s := range a.segments {
		detail := fmt.Sprintf("%s businesses · %s",
			cli.FormatNumber(int64(s.Businesses)), cli.FormatMoneyCompact(s.SalesValue))
		lines = append(lines, components.ShareBar(s.Segment, s.SharePercent/100, detail, colors[s.Segment], labelW, barW))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render("Ranked by sales: high holds the first 50%, medium the next 30%."))
	return strings.Join(lines, "\n")
}
