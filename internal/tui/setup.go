package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// setupValues holds the first-run wizard answers.
type setupValues struct {
	DataFile    string
	MonthFormat string
	Theme       string
}

func newSetupValues(dataFile string) setupValues {
	cfg := loadConfigOrDefault()
	v := setupValues{
		DataFile:    dataFile,
		MonthFormat: cfg.Parse.MonthFormat,
		Theme:       cfg.Appearance.Theme,
	}
	if v.DataFile == "" {
		v.DataFile = cfg.General.DataFile
	}
	if _, ok := config.MonthFormats[v.MonthFormat]; !ok {
		v.MonthFormat = config.MonthFormatISO
	}
	return v
}

func validateDataFile(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("a data file is required")
	}
	info, err := os.Stat(s)
	if err != nil {
		return fmt.Errorf("cannot read %s", s)
	}
	if info.IsDir() {
		return errors.New("path is a directory")
	}
	return nil
}

// newSetupForm builds the first-run wizard. ds may be nil when the
// configured file could not be loaded.
func newSetupForm(ds *pipeline.Dataset, vals *setupValues) *huh.Form {
	welcome := "No configuration found. The answers are saved to " + config.ConfigPath() + "."
	if ds != nil {
		welcome = fmt.Sprintf("Loaded %d rows. ", ds.Len()) + welcome
	}

	monthOpts := []huh.Option[string]{
		huh.NewOption("ISO (2024-03)", config.MonthFormatISO),
		huh.NewOption("Abbreviated (Mar-2024)", config.MonthFormatAbbrev),
	}
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to salesdash").
				Description(welcome),
			huh.NewInput().
				Title("Sales data file").
				Description("CSV with DATE, ANONYMIZED CATEGORY, ANONYMIZED BUSINESS, QUANTITY and UNIT PRICE columns.").
				Value(&vals.DataFile).
				Validate(validateDataFile),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Month label format").
				Options(monthOpts...).
				Value(&vals.MonthFormat),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithShowHelp(true)
}

// saveSetupConfig persists the wizard answers and reports whether the data
// needs reloading.
func (a *App) saveSetupConfig() (bool, error) {
	cfg := loadConfigOrDefault()

	file := strings.TrimSpace(a.setupVals.DataFile)
	cfg.General.DataFile = file
	cfg.Parse.MonthFormat = a.setupVals.MonthFormat
	cfg.Appearance.Theme = a.setupVals.Theme
	theme.SetActive(cfg.Appearance.Theme)

	reload := !a.loaded || file != a.opts.DataFile
	a.opts.DataFile = file

	if layout, err := config.ResolveMonthLayout(cfg.Parse.MonthFormat); err == nil && layout != a.opts.Parse.MonthLayout {
		a.opts.Parse.MonthLayout = layout
		reload = true
	}

	return reload, config.Save(cfg)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		reload, _ := a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		if reload {
			return a.reload()
		}
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}
