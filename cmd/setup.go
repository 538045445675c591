package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/source"
	"github.com/theirongolddev/salesdash/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	// Start from the file on disk so environment overrides are not persisted.
	saved, err := config.LoadFrom(config.ConfigPath())
	if err != nil {
		return err
	}
	if flagFile != "" {
		saved.General.DataFile = flagFile
	}
	if saved.General.DataFile == "" {
		saved.General.DataFile = source.DetectDataFile(".")
	}
	if _, ok := config.MonthFormats[saved.Parse.MonthFormat]; !ok {
		saved.Parse.MonthFormat = config.MonthFormatISO
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Sales data file").
				Description("CSV with DATE, ANONYMIZED CATEGORY, ANONYMIZED BUSINESS, QUANTITY and UNIT PRICE columns.").
				Value(&saved.General.DataFile).
				Validate(checkDataFile),
			huh.NewSelect[string]().
				Title("Month label format").
				Options(
					huh.NewOption("ISO (2024-03)", config.MonthFormatISO),
					huh.NewOption("Abbreviated (Mar-2024)", config.MonthFormatAbbrev),
				).
				Value(&saved.Parse.MonthFormat),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&saved.Appearance.Theme),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	saved.General.DataFile = strings.TrimSpace(saved.General.DataFile)
	if err := config.Save(saved); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Saved to %s\n", config.ConfigPath())
	fmt.Fprintln(w, "  Run `salesdash setup` anytime to reconfigure.")
	fmt.Fprintln(w)
	return nil
}

func checkDataFile(s string) error {
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
