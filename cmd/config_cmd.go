package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/source"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		writeConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func writeConfig(w io.Writer, c config.Config) {
	fmt.Fprintf(w, "  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Fprintln(w, "  Status: loaded")
	} else {
		fmt.Fprintln(w, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [General]")
	if c.General.DataFile != "" {
		fmt.Fprintf(w, "    Data file:    %s\n", c.General.DataFile)
	} else if found := source.DetectDataFile("."); found != "" {
		fmt.Fprintf(w, "    Data file:    %s (detected)\n", found)
	} else {
		fmt.Fprintln(w, "    Data file:    not set")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [Parse]")
	layout, err := config.ResolveMonthLayout(c.Parse.MonthFormat)
	if err != nil {
		fmt.Fprintf(w, "    Month format: %s (invalid: %v)\n", c.Parse.MonthFormat, err)
	} else {
		fmt.Fprintf(w, "    Month format: %s (%s)\n", c.Parse.MonthFormat, layout)
	}
	if len(c.Parse.DateLayouts) > 0 {
		fmt.Fprintf(w, "    Date layouts: %s\n", strings.Join(c.Parse.DateLayouts, " | "))
	} else {
		fmt.Fprintln(w, "    Date layouts: built-in")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [Appearance]")
	fmt.Fprintf(w, "    Theme: %s\n", c.Appearance.Theme)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  [Serve]")
	fmt.Fprintf(w, "    Address:  %s\n", c.Serve.Addr)
	fmt.Fprintf(w, "    Interval: %ds\n", c.Serve.IntervalSec)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Environment overrides: %s, %s, %s, %s, %s\n",
		config.EnvDataFile, config.EnvMonthFormat, config.EnvTheme, config.EnvServeAddr, config.EnvIntervalSec)
	fmt.Fprintln(w, "  Run `salesdash setup` to reconfigure.")
}
