// Package chart renders projections and budget breakdowns as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/model"
)

// ErrNothingToPlot is returned when every value of a chart is zero.
var ErrNothingToPlot = errors.New("chart: nothing to plot")

// File names written by Export.
const (
	ProjectionFile  = "projection.png"
	ExpensesFile    = "expenses.png"
	InvestmentsFile = "investments.png"
)

var assetColors = map[model.AssetClass]drawing.Color{
	model.AssetStocks:       drawing.ColorFromHex("4385be"),
	model.AssetBonds:        drawing.ColorFromHex("8b7ec8"),
	model.AssetRealEstate:   drawing.ColorFromHex("da702c"),
	model.AssetCrypto:       drawing.ColorFromHex("d0a215"),
	model.AssetFixedDeposit: drawing.ColorFromHex("3aa99f"),
}

var (
	cashColor     = drawing.ColorFromHex("879a39")
	netWorthColor = drawing.ColorFromHex("100f0f")
	targetColor   = drawing.ColorFromHex("d14d41")
)

// RenderProjection renders a line chart of cash balance, each funded asset
// and net worth by month, with the savings target as a dashed line.
// Month 0 (all zero) is included so a one-month horizon still has a range.
func RenderProjection(snaps []model.MonthlySnapshot, target float64) ([]byte, error) {
	if len(snaps) == 0 {
		return nil, ErrNothingToPlot
	}

	n := len(snaps) + 1
	months := make([]float64, n)
	cash := make([]float64, n)
	netWorth := make([]float64, n)
	assets := make(map[model.AssetClass][]float64)

	lo, hi := min(0, target), max(0, target)
	for i, s := range snaps {
		months[i+1] = float64(s.Month)
		cash[i+1] = s.CashBalance
		netWorth[i+1] = s.NetWorth
		lo = min(lo, s.CashBalance, s.NetWorth)
		hi = max(hi, s.CashBalance, s.NetWorth)
	}
	for _, a := range model.AssetClasses {
		ys := make([]float64, n)
		var funded bool
		for i, s := range snaps {
			ys[i+1] = s.AssetValues[a]
			funded = funded || ys[i+1] != 0
			lo, hi = min(lo, ys[i+1]), max(hi, ys[i+1])
		}
		if funded {
			assets[a] = ys
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Cash",
			Style:   chart.Style{StrokeColor: cashColor, StrokeWidth: 2},
			XValues: months,
			YValues: cash,
		},
	}
	for _, a := range model.AssetClasses {
		ys, ok := assets[a]
		if !ok {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    cli.CategoryLabel(string(a)),
			Style:   chart.Style{StrokeColor: assetColors[a], StrokeWidth: 1.5},
			XValues: months,
			YValues: ys,
		})
	}
	series = append(series,
		chart.ContinuousSeries{
			Name:    "Net Worth",
			Style:   chart.Style{StrokeColor: netWorthColor, StrokeWidth: 2.5},
			XValues: months,
			YValues: netWorth,
		},
		chart.ContinuousSeries{
			Name: "Savings Target",
			Style: chart.Style{
				StrokeColor:     targetColor,
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: []float64{0, float64(snaps[len(snaps)-1].Month)},
			YValues: []float64{target, target},
		},
	)

	pad := (hi - lo) * 0.05
	graph := chart.Chart{
		Title:  "Financial Projection",
		Width:  900,
		Height: 420,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name: "Month",
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return cli.FormatMoneyShort(f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: rendering projection: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPie renders a pie chart of the non-zero amounts. labels and amounts
// are parallel.
func RenderPie(title string, labels []string, amounts []float64) ([]byte, error) {
	var values []chart.Value
	for i, v := range amounts {
		if v <= 0 || i >= len(labels) {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s", cli.CategoryLabel(labels[i]), cli.FormatMoneyShort(v)),
			Value: v,
		})
	}
	if len(values) == 0 {
		return nil, ErrNothingToPlot
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  512,
		Height: 512,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: rendering %s: %w", title, err)
	}
	return buf.Bytes(), nil
}

// Export writes the projection chart and both breakdown pies into dir and
// returns the paths written. A pie with nothing to plot is skipped.
func Export(dir string, in model.BudgetInput, snaps []model.MonthlySnapshot) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chart: creating %s: %w", dir, err)
	}

	var written []string
	write := func(name string, png []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return fmt.Errorf("chart: writing %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	png, err := RenderProjection(snaps, in.SavingsTarget)
	if err != nil {
		return written, err
	}
	if err := write(ProjectionFile, png); err != nil {
		return written, err
	}

	expKeys := make([]string, len(model.ExpenseCategories))
	expVals := make([]float64, len(model.ExpenseCategories))
	for i, c := range model.ExpenseCategories {
		expKeys[i], expVals[i] = string(c), in.Expenses[c]
	}
	invKeys := make([]string, len(model.AssetClasses))
	invVals := make([]float64, len(model.AssetClasses))
	for i, a := range model.AssetClasses {
		invKeys[i], invVals[i] = string(a), in.Investments[a]
	}

	pies := []struct {
		file, title string
		keys        []string
		vals        []float64
	}{
		{ExpensesFile, "Monthly Expenses", expKeys, expVals},
		{InvestmentsFile, "Monthly Investments", invKeys, invVals},
	}
	for _, p := range pies {
		png, err := RenderPie(p.title, p.keys, p.vals)
		if errors.Is(err, ErrNothingToPlot) {
			continue
		}
		if err != nil {
			return written, err
		}
		if err := write(p.file, png); err != nil {
			return written, err
		}
	}

	return written, nil
}
