// Package cmd implements the salesdash CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
	"github.com/theirongolddev/salesdash/internal/tui/theme"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagFile        string
	flagCategory    string
	flagBusiness    string
	flagMonth       string
	flagMonthFormat string
	flagNoCache     bool
	flagQuiet       bool
	flagVerbose     bool
)

var (
	cfg    config.Config
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "salesdash"})
)

var rootCmd = &cobra.Command{
	Use:   "salesdash",
	Short: "Sales CSV dashboards",
	Long:  "Load a sales transactions CSV and report totals, monthly trends, breakdowns and segments.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd)
	},
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Sales CSV file (default: config, then auto-detect in the working directory)")
	rootCmd.PersistentFlags().StringVarP(&flagCategory, "category", "c", "", "Filter to one category")
	rootCmd.PersistentFlags().StringVarP(&flagBusiness, "business", "b", "", "Filter to one business")
	rootCmd.PersistentFlags().StringVarP(&flagMonth, "month", "m", "", "Filter to one month, in the month format")
	rootCmd.PersistentFlags().StringVar(&flagMonthFormat, "month-format", "", "Month label format: iso, abbrev or a Go time layout")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite cache, always reparse")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Log debug output")
}

// setup loads .env and the config file, then applies flags on top.
func setup(cmd *cobra.Command) error {
	switch {
	case flagVerbose:
		logger.SetLevel(log.DebugLevel)
	case flagQuiet:
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Warn("ignoring .env", "err", err)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if flagMonthFormat != "" {
		cfg.Parse.MonthFormat = flagMonthFormat
	}

	cli.ConfigureColor(cmd.OutOrStdout())
	theme.SetActive(cfg.Appearance.Theme)
	return nil
}

// resolveDataFile picks the --file flag, then the configured file, then a
// well-known CSV in the working directory.
func resolveDataFile() (string, error) {
	if flagFile != "" {
		return flagFile, nil
	}
	if cfg.General.DataFile != "" {
		return cfg.General.DataFile, nil
	}
	if found := source.DetectDataFile("."); found != "" {
		logger.Debug("detected data file", "path", found)
		return found, nil
	}
	return "", errors.New("no data file: pass --file, set general.data_file in the config or run `salesdash setup`")
}

// flagFilters returns the equality filters set on the command line, keyed
// by canonical column name.
func flagFilters() map[string]string {
	filters := make(map[string]string)
	if flagCategory != "" {
		filters[source.ColCategory] = flagCategory
	}
	if flagBusiness != "" {
		filters[source.ColBusiness] = flagBusiness
	}
	if flagMonth != "" {
		filters[source.ColMonthYear] = flagMonth
	}
	return filters
}

// loadData is the shared data loading path used by all report commands.
// It returns the full load result and the dataset with flag filters applied.
func loadData() (*pipeline.LoadResult, *pipeline.Dataset, error) {
	path, err := resolveDataFile()
	if err != nil {
		return nil, nil, err
	}
	opts, err := config.ParseOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("loading", "path", path, "cache", !flagNoCache)
	result, err := pipeline.LoadAuto(path, opts, !flagNoCache)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if result.CacheErr != nil {
		logger.Warn("cache unavailable, parsed from source", "err", result.CacheErr)
	}

	how := "parsed"
	if result.CacheHit {
		how = "cached"
	}
	logger.Info("loaded",
		"rows", cli.FormatNumber(int64(result.Dataset.Len())),
		"from", how,
		"in", result.Elapsed.Round(time.Millisecond))

	filtered, err := pipeline.Filter(result.Dataset, flagFilters())
	if err != nil {
		return nil, nil, err
	}
	return result, filtered, nil
}

// filterLabel describes the active flag filters for report titles.
func filterLabel() string {
	label := ""
	add := func(name, v string) {
		if v == "" {
			return
		}
		if label != "" {
			label += ", "
		}
		label += name + "=" + v
	}
	add("category", flagCategory)
	add("business", flagBusiness)
	add("month", flagMonth)
	if label == "" {
		return "all data"
	}
	return label
}
