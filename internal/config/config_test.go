package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/salesdash/internal/source"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvDataFile, "")
	t.Setenv(EnvMonthFormat, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Parse.MonthFormat != MonthFormatISO {
		t.Errorf("MonthFormat = %q, want iso", cfg.Parse.MonthFormat)
	}
	if cfg.Serve.IntervalSec != 10 {
		t.Errorf("IntervalSec = %d, want 10", cfg.Serve.IntervalSec)
	}
	if Exists() {
		t.Error("Exists() = true with no file")
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvDataFile, "")
	t.Setenv(EnvMonthFormat, "")

	cfg := DefaultConfig()
	cfg.General.DataFile = "/data/Case Study Data.csv"
	cfg.Parse.MonthFormat = MonthFormatAbbrev
	cfg.Parse.DateLayouts = []string{"02/01/2006"}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.DataFile != cfg.General.DataFile {
		t.Errorf("DataFile = %q", got.General.DataFile)
	}
	if got.Parse.MonthFormat != MonthFormatAbbrev {
		t.Errorf("MonthFormat = %q", got.Parse.MonthFormat)
	}
	if len(got.Parse.DateLayouts) != 1 || got.Parse.DateLayouts[0] != "02/01/2006" {
		t.Errorf("DateLayouts = %v", got.Parse.DateLayouts)
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[parse\nmonth_format = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	t.Setenv(EnvDataFile, "/tmp/sales.csv")
	t.Setenv(EnvMonthFormat, "abbrev")
	t.Setenv(EnvIntervalSec, "nope")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	if cfg.General.DataFile != "/tmp/sales.csv" {
		t.Errorf("DataFile = %q", cfg.General.DataFile)
	}
	if cfg.Parse.MonthFormat != "abbrev" {
		t.Errorf("MonthFormat = %q", cfg.Parse.MonthFormat)
	}
	if cfg.Serve.IntervalSec != 10 {
		t.Errorf("IntervalSec = %d, invalid value should be ignored", cfg.Serve.IntervalSec)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		t.Fatalf("missing .env should not error: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(EnvMonthFormat+"=abbrev\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvMonthFormat, "")
	os.Unsetenv(EnvMonthFormat)

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(EnvMonthFormat); got != "abbrev" {
		t.Errorf("%s = %q, want abbrev", EnvMonthFormat, got)
	}
}

func TestResolveMonthLayout(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", source.MonthLayoutISO},
		{"iso", source.MonthLayoutISO},
		{"ABBREV", source.MonthLayoutAbbrev},
		{"January 2006", "January 2006"},
		{"01/2006", "01/2006"},
	}
	for _, tc := range cases {
		got, err := ResolveMonthLayout(tc.in)
		if err != nil {
			t.Errorf("ResolveMonthLayout(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ResolveMonthLayout(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"2006", "Jan", "monthly"} {
		if _, err := ResolveMonthLayout(bad); err == nil {
			t.Errorf("ResolveMonthLayout(%q) should fail", bad)
		}
	}
}

func TestParseOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parse.MonthFormat = "abbrev"

	opts, err := ParseOptions(cfg)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if opts.MonthLayout != source.MonthLayoutAbbrev {
		t.Errorf("MonthLayout = %q", opts.MonthLayout)
	}
	if len(opts.DateLayouts) != len(source.DefaultDateLayouts) {
		t.Errorf("DateLayouts = %d, want defaults", len(opts.DateLayouts))
	}

	cfg.Parse.MonthFormat = "2006"
	if _, err := ParseOptions(cfg); err == nil {
		t.Error("expected error for layout without month")
	}
}
