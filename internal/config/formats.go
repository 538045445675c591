package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/salesdash/internal/source"
)

// Named month formats.
const (
	MonthFormatISO    = "iso"
	MonthFormatAbbrev = "abbrev"
)

// MonthFormats maps the named month formats to Go time layouts.
var MonthFormats = map[string]string{
	MonthFormatISO:    source.MonthLayoutISO,
	MonthFormatAbbrev: source.MonthLayoutAbbrev,
}

// MonthFormatNames returns the named formats, sorted.
func MonthFormatNames() []string {
	names := make([]string, 0, len(MonthFormats))
	for n := range MonthFormats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResolveMonthLayout turns a month format setting into a Go time layout.
// Empty means iso. Anything that is not a known name is taken as a layout
// and must distinguish both the month and the year.
func ResolveMonthLayout(format string) (string, error) {
	format = strings.TrimSpace(format)
	if format == "" {
		return source.MonthLayoutISO, nil
	}
	if layout, ok := MonthFormats[strings.ToLower(format)]; ok {
		return layout, nil
	}

	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)
	nextYear := jan.AddDate(1, 0, 0)
	if jan.Format(format) == feb.Format(format) || jan.Format(format) == nextYear.Format(format) {
		return "", fmt.Errorf("month format %q must render both month and year (known names: %s)",
			format, strings.Join(MonthFormatNames(), ", "))
	}
	return format, nil
}

// ParseOptions builds the source parse options from cfg.
func ParseOptions(cfg Config) (source.ParseOptions, error) {
	layout, err := ResolveMonthLayout(cfg.Parse.MonthFormat)
	if err != nil {
		return source.ParseOptions{}, err
	}
	opts := source.DefaultParseOptions()
	opts.MonthLayout = layout
	if len(cfg.Parse.DateLayouts) > 0 {
		opts.DateLayouts = cfg.Parse.DateLayouts
	}
	return opts, nil
}
