package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	salesStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	qtyStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	upStyle   = lipgloss.NewStyle().Foreground(ColorGreen)
	downStyle = lipgloss.NewStyle().Foreground(ColorRed)
)

// ConfigureColor picks the color profile for w from the terminal and the
// NO_COLOR / CLICOLOR_FORCE environment.
func ConfigureColor(w io.Writer) {
	out := termenv.NewOutput(w)
	lipgloss.SetColorProfile(out.EnvColorProfile())
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
	// TextCols is how many leading columns hold labels and are
	// left-aligned. The rest are right-aligned. Zero means one.
	TextCols int
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
// A row holding the single cell "---" renders as a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	textCols := t.TextCols
	if textCols <= 0 {
		textCols = 1
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], runewidth.StringWidth(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], runewidth.StringWidth(cell))
				}
			}
		}
	}

	rule := func(left, mid, right string) string {
		var sb strings.Builder
		sb.WriteString(left)
		for i, w := range widths {
			sb.WriteString(strings.Repeat("─", w+2))
			if i < numCols-1 {
				sb.WriteString(mid)
			}
		}
		sb.WriteString(right)
		return dimStyle.Render(sb.String()) + "\n"
	}
	bar := dimStyle.Render("│")

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(rule("╭", "┬", "╮"))

	if len(t.Headers) > 0 {
		b.WriteString(bar)
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + pad(h, widths[i], i < textCols) + " "))
			if i < numCols-1 {
				b.WriteString(bar)
			}
		}
		b.WriteString(bar + "\n")
		b.WriteString(rule("├", "┼", "┤"))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(rule("├", "┼", "┤"))
			continue
		}

		b.WriteString(bar)
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(valueStyle.Render(" " + pad(cell, widths[i], i < textCols) + " "))
			if i < numCols-1 {
				b.WriteString(bar)
			}
		}
		b.WriteString(bar + "\n")
	}

	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

func pad(s string, w int, left bool) string {
	s = runewidth.Truncate(s, w, "…")
	if left {
		return runewidth.FillRight(s, w)
	}
	return runewidth.FillLeft(s, w)
}

// RenderMetric renders a labeled headline value with an optional delta line.
func RenderMetric(label, value, delta string) string {
	out := fmt.Sprintf("  %s  %s", mutedStyle.Render(fmt.Sprintf("%-16s", label)), salesStyle.Render(value))
	if delta != "" {
		style := upStyle
		if strings.HasPrefix(delta, "-") {
			style = downStyle
		}
		out += "  " + style.Render(delta)
	}
	return out
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = min(max(idx, 0), len(blocks)-1)
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// Bar is one entry of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
	Text  string // value as displayed after the bar
}

// RenderBars renders a horizontal bar chart, one bar per line, scaled to
// the largest value.
func RenderBars(bars []Bar, labelWidth, barWidth int) string {
	if len(bars) == 0 {
		return mutedStyle.Render("  (no data)") + "\n"
	}

	peak := 0.0
	for _, b := range bars {
		peak = max(peak, b.Value)
	}

	var sb strings.Builder
	for _, b := range bars {
		n := 0
		if peak > 0 && b.Value > 0 {
			n = max(int(b.Value/peak*float64(barWidth)), 1)
		}
		label := runewidth.FillRight(runewidth.Truncate(b.Label, labelWidth, "…"), labelWidth)
		sb.WriteString("  ")
		sb.WriteString(valueStyle.Render(label))
		sb.WriteString(" ")
		sb.WriteString(qtyStyle.Render(strings.Repeat("█", n)))
		sb.WriteString(dimStyle.Render(strings.Repeat("░", barWidth-n)))
		sb.WriteString(" ")
		sb.WriteString(mutedStyle.Render(b.Text))
		sb.WriteString("\n")
	}
	return sb.String()
}
