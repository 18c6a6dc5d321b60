package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/finplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline scaled from the series minimum to its
// maximum, so a balance that dips below zero keeps its shape.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := len(sparkBlocks) - 1
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkBlocks)-1))
		}
		buf.WriteRune(sparkBlocks[min(max(idx, 0), len(sparkBlocks)-1)])
	}

	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// yAxis is a money axis from 0 to ceiling in equal steps.
type yAxis struct {
	step      float64
	ceiling   float64
	intervals int
}

// newYAxis picks round steps covering top, with at most height/2 intervals.
func newYAxis(top float64, height int) yAxis {
	step := chartTickStep(top)
	maxIntervals := max(height/2, 2)
	for int(math.Ceil(top/step)) > maxIntervals {
		step *= 2
	}
	ceiling := math.Ceil(top/step) * step
	return yAxis{
		step:      step,
		ceiling:   ceiling,
		intervals: max(int(math.Round(ceiling/step)), 1),
	}
}

// downsample keeps n evenly spaced points, first and last included.
// labels is resampled alongside when it matches values.
func downsample(values []float64, labels []string, n int) ([]float64, []string) {
	out := make([]float64, n)
	var outLabels []string
	if len(labels) == len(values) {
		outLabels = make([]string, n)
	}
	for i := range out {
		src := i * (len(values) - 1) / (n - 1)
		out[i] = values[src]
		if outLabels != nil {
			outLabels[i] = labels[src]
		}
	}
	return out, outLabels
}

// BarChart renders one bar per value with a money y-axis. A target above
// zero is drawn as a dashed line through the empty cells of its row, and the
// axis always reaches it. Values at or below zero render as empty columns.
func BarChart(values []float64, labels []string, color lipgloss.Color, target float64, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}

	t := theme.Active

	top := math.Max(target, 0)
	for _, v := range values {
		top = math.Max(top, v)
	}
	if top == 0 {
		top = 1
	}

	axis := newYAxis(top, height)
	rowsPerTick := max(height/axis.intervals, 2)
	chartH := rowsPerTick * axis.intervals

	yLabelW := max(len(formatChartLabel(axis.ceiling))+1, 5)
	tickLabels := make(map[int]string, axis.intervals)
	for i := 1; i <= axis.intervals; i++ {
		tickLabels[i*rowsPerTick] = formatChartLabel(axis.step * float64(i))
	}

	chartW := max(width-yLabelW-1, 5)

	n := len(values)
	gap := 1
	barW := chartW
	if n > 1 {
		barW = (chartW - (n - 1)) / n
	}
	if n > 1 && barW < 2 {
		n = max((chartW+1)/3, 2)
		values, labels = downsample(values, labels, n)
		barW = 2
	}
	if n == 1 {
		gap = 0
	}
	barW = min(barW, 6)
	axisLen := n*barW + (n-1)*gap

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface)
	surface := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		rowTop := axis.ceiling * float64(row) / float64(chartH)
		rowBottom := axis.ceiling * float64(row-1) / float64(chartH)

		// Brighter toward the top of the chart.
		barColor := t.Accent
		switch pct := float64(row) / float64(chartH); {
		case pct > 0.8:
			barColor = t.AccentBright
		case pct > 0.5:
			barColor = color
		}
		barStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)

		blank, fill := surface.Render, " "
		if target > 0 && target > rowBottom && target <= rowTop {
			blank, fill = markerStyle.Render, "┄"
		}

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", yLabelW, tickLabels[row])))
		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank(strings.Repeat(fill, gap)))
			}
			switch {
			case v >= rowTop:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := int((v - rowBottom) / (rowTop - rowBottom) * 8)
				idx = min(max(idx, 1), 8)
				b.WriteString(barStyle.Render(strings.Repeat(string(blocks[idx]), barW)))
			default:
				b.WriteString(blank(strings.Repeat(fill, barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└", yLabelW, "$0")))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(surface.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(xAxisLabels(labels, barW+gap, axisLen)))
	}

	return b.String()
}

// xAxisLabels places labels under their bars, skipping any that would
// collide. The last label is always shown when it fits.
func xAxisLabels(labels []string, pitch, axisLen int) string {
	n := len(labels)
	buf := []byte(strings.Repeat(" ", axisLen))

	const minSpacing = 8
	step := max(1, (n*minSpacing)/(axisLen+1))

	lastEnd := -1
	for i := 0; i < n; i += step {
		pos := i * pitch
		lbl := labels[i]
		end := pos + len(lbl)
		if pos <= lastEnd {
			continue
		}
		if end > axisLen {
			end = axisLen
			if end-pos < 3 {
				continue
			}
			lbl = lbl[:end-pos]
		}
		copy(buf[pos:end], lbl)
		lastEnd = end + 1
	}

	if n > 1 {
		lbl := labels[n-1]
		pos := (n - 1) * pitch
		end := pos + len(lbl)
		if end > axisLen {
			pos, end = axisLen-len(lbl), axisLen
		}
		if pos >= 0 && pos > lastEnd {
			copy(buf[pos:end], lbl)
		}
	}

	return strings.TrimRight(string(buf), " ")
}

// chartTickStep computes a 1-2-5 tick interval targeting about five ticks.
func chartTickStep(top float64) float64 {
	if top <= 0 {
		return 1
	}
	rough := top / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))

	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

// formatChartLabel renders an axis amount as compact dollars, e.g. "$12k".
func formatChartLabel(v float64) string {
	unit := func(div float64, suffix string) string {
		if v == math.Trunc(v/div)*div {
			return fmt.Sprintf("$%.0f%s", v/div, suffix)
		}
		return fmt.Sprintf("$%.1f%s", v/div, suffix)
	}
	switch {
	case v >= 1e9:
		return unit(1e9, "B")
	case v >= 1e6:
		return unit(1e6, "M")
	case v >= 1e3:
		return unit(1e3, "k")
	case v >= 1:
		return fmt.Sprintf("$%.0f", v)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}
