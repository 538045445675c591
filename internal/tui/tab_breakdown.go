package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/tui/components"
	"github.com/theirongolddev/salesdash/internal/tui/theme"
)

// breakdownLimit caps the bars per chart; businesses can number thousands.
const breakdownLimit = 12

func (a App) renderBreakdownTab(cw int) string {
	var b strings.Builder
	b.WriteString(a.renderDimension("Category", a.categories, cw))
	b.WriteString("\n")
	b.WriteString(a.renderDimension("Business", a.businesses, cw))
	return b.String()
}

// renderDimension draws sales value and quantity side by side for one
// dimension over the whole dataset, largest sales first.
func (a App) renderDimension(name string, rows []model.GroupStats, cw int) string {
	t := theme.Active

	shown := rows
	title := func(measure string) string {
		return fmt.Sprintf("Total %s by %s", measure, name)
	}
	if len(rows) > breakdownLimit {
		shown = rows[:breakdownLimit]
		title = func(measure string) string {
			return fmt.Sprintf("Total %s by %s (top %d of %d)", measure, name, breakdownLimit, len(rows))
		}
	}

	if a.isCompactLayout() {
		inner := components.CardInnerWidth(cw)
		return components.ContentCard(title("Sales Value"),
			components.HBarChart(groupBars(shown, false), t.Sales, inner), cw) + "\n" +
			components.ContentCard(title("Quantity"),
				components.HBarChart(groupBars(shown, true), t.Quantity, inner), cw)
	}

	halves := components.LayoutRow(cw, 2)
	return components.CardRow([]string{
		components.ContentCard(title("Sales Value"),
			components.HBarChart(groupBars(shown, false), t.Sales, components.CardInnerWidth(halves[0])), halves[0]),
		components.ContentCard(title("Quantity"),
			components.HBarChart(groupBars(shown, true), t.Quantity, components.CardInnerWidth(halves[1])), halves[1]),
	})
}
