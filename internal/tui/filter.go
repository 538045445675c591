package tui

import (
	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
	"github.com/theirongolddev/salesdash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// anyValue is the dropdown choice that leaves a column unfiltered. It can
// never equal a cell value read from a text file.
const anyValue = "\x00any"

// filterField is one dropdown of the filter form.
type filterField struct {
	title  string
	column string
}

var filterFields = []filterField{
	{"Category", source.ColCategory},
	{"Business", source.ColBusiness},
	{"Month", source.ColMonthYear},
}

// filterValues holds the dropdown selections while the form is open.
type filterValues struct {
	Category string
	Business string
	Month    string
}

func (v *filterValues) field(column string) *string {
	switch column {
	case source.ColCategory:
		return &v.Category
	case source.ColBusiness:
		return &v.Business
	default:
		return &v.Month
	}
}

func newFilterValues(filters map[string]string) filterValues {
	var v filterValues
	for _, f := range filterFields {
		p := v.field(f.column)
		*p = anyValue
		if val, ok := filters[f.column]; ok {
			*p = val
		}
	}
	return v
}

// predicates converts the selections back into equality filters.
func (v filterValues) predicates() map[string]string {
	out := make(map[string]string)
	for _, f := range filterFields {
		if val := *v.field(f.column); val != anyValue {
			out[f.column] = val
		}
	}
	return out
}

// filterOptions lists "All" followed by the distinct values of column.
func filterOptions(ds *pipeline.Dataset, column string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("All", anyValue)}
	values, err := pipeline.Distinct(ds, column)
	if err != nil {
		return opts
	}
	for _, v := range values {
		opts = append(opts, huh.NewOption(cli.FormatKey(v), v))
	}
	return opts
}

func newFilterForm(ds *pipeline.Dataset, vals *filterValues) *huh.Form {
	fields := make([]huh.Field, len(filterFields))
	for i, f := range filterFields {
		fields[i] = huh.NewSelect[string]().
			Title(f.title).
			Options(filterOptions(ds, f.column)...).
			Filtering(true).
			Height(8).
			Value(vals.field(f.column))
	}

	return huh.NewForm(
		huh.NewGroup(fields...).
			Title("Filters").
			Description("Narrow the overview. Esc cancels."),
	).WithShowHelp(true)
}

func (a App) updateFilterForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.filterForm = nil
		return a, nil
	}

	form, cmd := a.filterForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.filterForm = f
	}

	switch a.filterForm.State {
	case huh.StateCompleted:
		a.filters = a.filterVals.predicates()
		if m, ok := a.filters[source.ColMonthYear]; ok {
			a.selectMonth(m)
		}
		a.recompute()
		a.filterForm = nil
		return a, nil
	case huh.StateAborted:
		a.filterForm = nil
		return a, nil
	}

	return a, cmd
}

func (a App) viewFilterForm() string {
	t := theme.Active
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		a.filterForm.View(),
		lipgloss.WithWhitespaceBackground(t.Background))
}
