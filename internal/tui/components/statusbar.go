package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salesdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status is what the bottom bar reports about the loaded dataset.
type Status struct {
	File       string
	Rows       int
	LoadTime   string
	CacheHit   bool
	Refreshing bool
	Err        string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	left := style.Render(" ") +
		keyStyle.Render("[f]") + style.Render("ilter  ") +
		keyStyle.Render("[r]") + style.Render("eload  ") +
		keyStyle.Render("[?]") + style.Render("help  ") +
		keyStyle.Render("[q]") + style.Render("uit")

	var right string
	switch {
	case st.Err != "":
		right = lipgloss.NewStyle().Foreground(t.Down).Background(t.Surface).Render(st.Err + " ")
	case st.Refreshing:
		right = style.Render("reloading… ")
	case st.File != "":
		src := "parsed"
		if st.CacheHit {
			src = "cached"
		}
		right = style.Render(fmt.Sprintf("%s · %d rows · %s %s ", st.File, st.Rows, src, st.LoadTime))
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + style.Render(strings.Repeat(" ", padding)) + right
}
