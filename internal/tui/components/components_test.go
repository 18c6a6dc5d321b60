package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/theirongolddev/finplan/internal/tui/theme"
)

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, tc := range []struct{ total, n int }{{120, 5}, {81, 2}, {7, 3}} {
		widths := LayoutRow(tc.total, tc.n)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tc.total, tc.n, sum)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow(10, 0) should be nil")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")
	cards := []Metric{
		{Label: "Income", Value: "$5,000.00"},
		{Label: "Net", Value: "$800.00", Delta: "/mo", Tone: theme.Active.Gain},
	}
	row := MetricCardRow(cards, 60)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 60 {
			t.Errorf("line %d width = %d, want 60", i, w)
		}
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	theme.SetActive("flexoki-dark")
	for active := range Tabs {
		want := 0
		for i, tab := range Tabs {
			want += TabVisualWidth(tab, i == active)
			if i < len(Tabs)-1 {
				want++
			}
		}
		bar := RenderTabBar(active, want)
		if got := lipgloss.Width(bar); got != want {
			t.Errorf("active=%d: rendered width %d, want %d", active, got, want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('c'); got != 3 {
		t.Errorf("TabIdxByKey('c') = %d, want 3", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestBarChartDrawsTargetMarker(t *testing.T) {
	theme.SetActive("flexoki-dark")
	values := []float64{1000, 2000, 3000, 4000}
	labels := []string{"1", "2", "3", "4"}

	withTarget := BarChart(values, labels, theme.Active.Blue, 10000, 40, 8)
	if !strings.Contains(withTarget, "┄") {
		t.Error("target above every bar should draw a marker row")
	}
	if !strings.Contains(withTarget, "$0") {
		t.Error("y-axis should be labeled in dollars")
	}

	plain := BarChart(values, labels, theme.Active.Blue, 0, 40, 8)
	if strings.Contains(plain, "┄") {
		t.Error("BarChart without target should not draw a marker")
	}
}

func TestBarChartTinyFallsBackToSparkline(t *testing.T) {
	got := BarChart([]float64{1, 2, 3}, nil, theme.Active.Blue, 0, 10, 2)
	if lipgloss.Width(got) != 3 {
		t.Errorf("sparkline width = %d, want 3", lipgloss.Width(got))
	}
}

func TestSparklineKeepsNegativeShape(t *testing.T) {
	got := Sparkline([]float64{-200, 0, 200}, theme.Active.Blue)
	for _, want := range []string{"▁", "█"} {
		if !strings.Contains(got, want) {
			t.Errorf("Sparkline(-200..200) = %q, missing %q", got, want)
		}
	}
}

func TestDownsampleKeepsEnds(t *testing.T) {
	vals := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	got, gotLabels := downsample(vals, labels, 4)
	if len(got) != 4 || got[0] != 0 || got[3] != 9 {
		t.Fatalf("downsample values = %v", got)
	}
	if gotLabels[0] != "a" || gotLabels[3] != "j" {
		t.Errorf("downsample labels = %v", gotLabels)
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{12000, "$12k"},
		{2500, "$2.5k"},
		{3e6, "$3M"},
		{40, "$40"},
	}
	for _, tc := range tests {
		if got := formatChartLabel(tc.v); got != tc.want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestClampPct(t *testing.T) {
	tests := []struct {
		current, target, want float64
	}{
		{5000, 10000, 0.5},
		{20000, 10000, 1},
		{-100, 10000, 0},
		{100, 0, 1},
	}
	for _, tc := range tests {
		if got := clampPct(tc.current, tc.target); got != tc.want {
			t.Errorf("clampPct(%v, %v) = %v, want %v", tc.current, tc.target, got, tc.want)
		}
	}
}

func TestColorForProgress(t *testing.T) {
	theme.SetActive("flexoki-dark")
	if ColorForProgress(1) != string(theme.Active.Gain) {
		t.Error("reached target should be green")
	}
	if ColorForProgress(0.1) != string(theme.Active.Loss) {
		t.Error("far from target should be red")
	}
}

func TestTargetBarShowsAmounts(t *testing.T) {
	got := TargetBar("Target", 5000, 10000, 8, 20)
	if !strings.Contains(got, " 50%") {
		t.Errorf("TargetBar missing percentage: %q", got)
	}
	if !strings.Contains(got, "$5,000 / $10.0K") {
		t.Errorf("TargetBar missing amounts: %q", got)
	}
}
