// Package tui provides the interactive Bubble Tea dashboard for salesdash.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
	"github.com/theirongolddev/salesdash/internal/tui/components"
	"github.com/theirongolddev/salesdash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when a load or reload of the data file finishes.
type DataLoadedMsg struct {
	Result *pipeline.LoadResult
	Err    error
}

// Options configures the dashboard.
type Options struct {
	DataFile string
	Parse    source.ParseOptions
	// Filters are the initial equality filters, keyed by canonical column.
	Filters  map[string]string
	UseCache bool
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	full       *pipeline.Dataset
	file       source.DiscoveredFile
	loaded     bool
	loadTime   time.Duration
	cacheHit   bool
	loadErr    error
	refreshing bool

	// Current filter, keyed by canonical column name.
	filters   map[string]string
	filterErr error

	// Pre-computed for the current filter
	filtered   *pipeline.Dataset
	totals     model.Totals
	monthly    []model.GroupStats
	comparison model.PeriodComparison

	// Pre-computed over the whole dataset
	categories    []model.GroupStats
	businesses    []model.GroupStats
	trend         []model.GroupStats
	segments      []model.SegmentStats
	monthCategory *pipeline.AggregateView
	months        []string
	monthIdx      int

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Filter dropdowns (huh form)
	filterForm *huh.Form
	filterVals filterValues

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5
)

// loadConfigOrDefault loads config, returning defaults on error so the
// dashboard can always start.
func loadConfigOrDefault() config.Config {
	cfg, err := config.LoadFrom(config.ConfigPath())
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	filters := make(map[string]string, len(opts.Filters))
	for k, v := range opts.Filters {
		filters[k] = v
	}

	return App{
		opts:      opts,
		filters:   filters,
		needSetup: !config.Exists(),
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts),
		a.spinner.Tick,
	)
}

// setDataset installs a freshly loaded dataset and rebuilds every view.
func (a *App) setDataset(res *pipeline.LoadResult) {
	a.full = res.Dataset
	a.file = res.File
	a.loadTime = res.Elapsed
	a.cacheHit = res.CacheHit
	a.loaded = true
	a.loadErr = nil

	a.categories = aggregateRows(a.full, source.ColCategory)
	pipeline.SortBySales(a.categories)
	a.businesses = aggregateRows(a.full, source.ColBusiness)
	pipeline.SortBySales(a.businesses)
	a.trend = aggregateRows(a.full, source.ColMonthYear)
	pipeline.SortByPeriod(a.trend)
	a.segments = pipeline.SegmentBusinesses(a.full)

	a.monthCategory, _ = pipeline.Aggregate(a.full, source.ColMonthYear, source.ColCategory)
	if a.monthCategory != nil {
		pipeline.SortByPeriod(a.monthCategory.Rows)
	}

	prev := a.selectedMonth()
	a.months = make([]string, len(a.trend))
	for i, g := range a.trend {
		a.months[i] = g.Key(0)
	}
	a.monthIdx = len(a.months) - 1
	if prev != "" {
		a.selectMonth(prev)
	}
	if m, ok := a.filters[source.ColMonthYear]; ok {
		a.selectMonth(m)
	}

	a.recompute()
}

// recompute rebuilds the views that depend on the current filter.
func (a *App) recompute() {
	if a.full == nil {
		return
	}

	filtered, err := pipeline.Filter(a.full, a.filters)
	a.filterErr = err
	if err != nil {
		filtered = a.full
	}
	a.filtered = filtered
	a.totals = pipeline.Totals(filtered)
	a.monthly = aggregateRows(filtered, source.ColMonthYear)
	pipeline.SortByPeriod(a.monthly)
	a.comparison = pipeline.ComparePeriods(a.monthly)
}

func aggregateRows(ds *pipeline.Dataset, groupBy ...string) []model.GroupStats {
	view, err := pipeline.Aggregate(ds, groupBy...)
	if err != nil {
		return nil
	}
	return view.Rows
}

func (a App) selectedMonth() string {
	if a.monthIdx < 0 || a.monthIdx >= len(a.months) {
		return ""
	}
	return a.months[a.monthIdx]
}

func (a *App) selectMonth(m string) {
	for i, v := range a.months {
		if v == m {
			a.monthIdx = i
			return
		}
	}
}

// monthCategories returns the (month, category) rows of the selected month.
func (a App) monthCategories() []model.GroupStats {
	if a.monthCategory == nil {
		return nil
	}
	month := a.selectedMonth()
	var out []model.GroupStats
	for _, g := range a.monthCategory.Rows {
		if g.Key(0) == month {
			out = append(out, g)
		}
	}
	return out
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.filterForm != nil {
			a.filterForm = a.filterForm.WithWidth(min(msg.Width, 72)).WithHeight(msg.Height - 4)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.filterForm != nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.refreshing = false
		if msg.Err != nil {
			a.loadErr = msg.Err
		} else {
			a.setDataset(msg.Result)
		}

		if a.needSetup && a.setupForm == nil {
			a.setupVals = newSetupValues(a.opts.DataFile)
			a.setupForm = newSetupForm(a.full, &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages (cursor blinks etc.) to an open form.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.filterForm != nil {
		return a.updateFilterForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.filterForm != nil {
		return a.updateFilterForm(msg)
	}

	if !a.loaded {
		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			if a.loadErr != nil && !a.refreshing {
				return a.reload()
			}
		}
		return a, nil
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			return a.reload()
		}
		return a, nil
	case "f":
		a.filterVals = newFilterValues(a.filters)
		a.filterForm = newFilterForm(a.full, &a.filterVals)
		if a.width > 0 {
			a.filterForm = a.filterForm.WithWidth(min(a.width, 72)).WithHeight(a.height - 4)
		}
		return a, a.filterForm.Init()
	case "x":
		a.filters = map[string]string{}
		a.recompute()
		return a, nil
	case "[", "h":
		if a.monthIdx > 0 {
			a.monthIdx--
		}
		return a, nil
	case "]", "l":
		if a.monthIdx < len(a.months)-1 {
			a.monthIdx++
		}
		return a, nil
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if tab := components.TabIdxByKey(key); tab >= 0 {
		a.activeTab = tab
	}
	return a, nil
}

func (a App) reload() (tea.Model, tea.Cmd) {
	a.refreshing = true
	return a, tea.Batch(loadDataCmd(a.opts), a.spinner.Tick)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.setupForm != nil {
		return a.setupForm.View()
	}

	if !a.loaded {
		if a.loadErr != nil {
			return a.viewLoadError()
		}
		return a.viewLoading()
	}

	if a.filterForm != nil {
		return a.viewFilterForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  salesdash needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

// overlay centers a bordered card on the themed background.
func (a App) overlay(body string) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ salesdash"))
	b.WriteString(mutedStyle.Render(" · Sales Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(mutedStyle.Render(" Loading " + filepath.Base(a.opts.DataFile) + "..."))
	return a.overlay(b.String())
}

func (a App) viewLoadError() string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.Down).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(min(a.width-12, 72))
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Could not load " + filepath.Base(a.opts.DataFile)))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render(a.loadErr.Error()))
	b.WriteString("\n\n")
	if a.refreshing {
		b.WriteString(a.spinner.View() + mutedStyle.Render(" Retrying..."))
	} else {
		b.WriteString(mutedStyle.Render("[r] retry  [q] quit"))
	}
	return a.overlay(b.String())
}

func (a App) viewHelp() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	section := func(b *strings.Builder, name string, binds [][2]string) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	section(&b, "Navigation", [][2]string{
		{"o b m", "Jump to tab"},
		{"← → tab", "Previous / Next tab"},
		{"[ ] h l", "Previous / Next month"},
	})
	b.WriteString("\n")
	section(&b, "Actions", [][2]string{
		{"f", "Choose filters"},
		{"x", "Clear filters"},
		{"r", "Reload data file"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return a.overlay(b.String())
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterPill(w)

	statusBar := components.RenderStatusBar(w, a.status())

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case 0:
		content = a.renderOverviewTab(cw)
	case 1:
		content = a.renderBreakdownTab(cw)
	case 2:
		content = a.renderMonthlyTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderFilterPill shows the active filters under the tab bar.
func (a App) renderFilterPill(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	parts := []string{}
	for _, f := range filterFields {
		if v, ok := a.filters[f.column]; ok {
			parts = append(parts, dim.Render(f.title+" ")+accent.Render(cli.FormatKey(v)))
		}
	}

	s := dim.Render(" ")
	if len(parts) == 0 {
		s += dim.Render("all data")
	} else {
		s += strings.Join(parts, dim.Render(" │ "))
	}
	if a.filterErr != nil {
		s += dim.Render(" │ ") + lipgloss.NewStyle().Foreground(t.Down).Background(t.Surface).Render(a.filterErr.Error())
	}

	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(s)
}

func (a App) status() components.Status {
	st := components.Status{
		File:       a.file.Name,
		Rows:       a.full.Len(),
		LoadTime:   fmt.Sprintf("%.2fs", a.loadTime.Seconds()),
		CacheHit:   a.cacheHit,
		Refreshing: a.refreshing,
	}
	if a.loadErr != nil {
		st.Err = "reload failed: " + a.loadErr.Error()
	}
	return st
}

// ─── Helpers ────────────────────────────────────────────────────

// loadDataCmd loads the data file off the UI goroutine.
func loadDataCmd(opts Options) tea.Cmd {
	return func() tea.Msg {
		res, err := pipeline.LoadAuto(opts.DataFile, opts.Parse, opts.UseCache)
		return DataLoadedMsg{Result: res, Err: err}
	}
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
