package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestChartTickStep(t *testing.T) {
	tests := []struct {
		max  float64
		want float64
	}{
		{0, 1},
		{10, 2},
		{100, 20},
		{1000, 200},
		{4500, 500},
		{7000, 1000},
		{16000, 2000},
	}
	for _, tt := range tests {
		if got := chartTickStep(tt.max); got != tt.want {
			t.Errorf("chartTickStep(%v) = %v, want %v", tt.max, got, tt.want)
		}
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := map[float64]string{
		0.5:     "0.50",
		20:      "20",
		2000:    "2k",
		2500:    "2.5k",
		3000000: "3M",
		1.5e9:   "1.5B",
	}
	for v, want := range tests {
		if got := formatChartLabel(v); got != want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestColumnChartLabels(t *testing.T) {
	out := ColumnChart([]float64{170, 2000}, []string{"2024-03", "2024-04"}, lipgloss.Color("2"), 40, 8)
	lines := strings.Split(ansi.Strip(out), "\n")
	last := lines[len(lines)-1]
	if !strings.Contains(last, "2024-03") || !strings.Contains(last, "2024-04") {
		t.Fatalf("x axis labels missing: %q", last)
	}
}

func TestColumnChartNarrowFallsBackToSparkline(t *testing.T) {
	out := ansi.Strip(ColumnChart([]float64{1, 2, 4}, nil, lipgloss.Color("2"), 10, 8))
	if out != "▂▄█" {
		t.Fatalf("narrow chart = %q, want sparkline", out)
	}
}

func TestHBarChart(t *testing.T) {
	out := ansi.Strip(HBarChart([]HBar{
		{Label: "A", Value: 170, Text: "170.00"},
		{Label: "B", Value: 2000, Text: "2,000.00"},
	}, lipgloss.Color("2"), 40))

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if strings.Count(lines[0], "█") >= strings.Count(lines[1], "█") {
		t.Fatalf("bars not scaled to values:\n%s", out)
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != 40 {
			t.Errorf("line %d width = %d, want 40", i, w)
		}
	}

	if got := ansi.Strip(HBarChart(nil, lipgloss.Color("2"), 40)); got != "(no data)" {
		t.Fatalf("empty chart = %q", got)
	}
}

func TestTabVisualWidth(t *testing.T) {
	for _, tab := range Tabs {
		want := len(tab.Name) + 2
		if got := TabVisualWidth(tab, true); got != want {
			t.Errorf("%s active width = %d, want %d", tab.Name, got, want)
		}
		if got := TabVisualWidth(tab, false); got != want {
			t.Errorf("%s inactive width = %d, want %d", tab.Name, got, want)
		}
	}
	if TabIdxByKey("m") != 2 || TabIdxByKey("z") != -1 {
		t.Fatal("TabIdxByKey mismatch")
	}
}
