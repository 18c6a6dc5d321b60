package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/finplan/internal/model"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{800, "$800.00"},
		{1234.5, "$1,234.50"},
		{9600, "$9,600.00"},
		{1234567.891, "$1,234,567.89"},
		{-800, "-$800.00"},
		{0.005, "$0.01"},
		{-0.001, "$0.00"},
	}
	for _, tc := range tests {
		if got := FormatMoney(tc.in); got != tc.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatMoneyShort(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{950, "$950"},
		{9600, "$9,600"},
		{12500, "$12.5K"},
		{1234567, "$1.2M"},
		{2_500_000_000, "$2.5B"},
		{-12500, "-$12.5K"},
	}
	for _, tc := range tests {
		if got := FormatMoneyShort(tc.in); got != tc.want {
			t.Errorf("FormatMoneyShort(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tc := range tests {
		if got := FormatNumber(tc.in); got != tc.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPercentAndRate(t *testing.T) {
	if got := FormatPercent(0.2); got != "20.0%" {
		t.Errorf("FormatPercent(0.2) = %q", got)
	}
	if got := FormatRate(0.004); got != "0.40%/mo" {
		t.Errorf("FormatRate(0.004) = %q", got)
	}
	if got := FormatRate(-0.01); got != "-1.00%/mo" {
		t.Errorf("FormatRate(-0.01) = %q", got)
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(12000, 10000); got != "+$2,000.00" {
		t.Errorf("FormatDelta positive = %q", got)
	}
	if got := FormatDelta(9600, 10000); got != "-$400.00" {
		t.Errorf("FormatDelta negative = %q", got)
	}
}

func TestFormatMonths(t *testing.T) {
	tests := map[int]string{0: "0m", 7: "7m", 12: "1y", 30: "2y 6m", 600: "50y"}
	for in, want := range tests {
		if got := FormatMonths(in); got != want {
			t.Errorf("FormatMonths(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCategoryLabel(t *testing.T) {
	tests := map[string]string{
		"housing":       "Housing",
		"real_estate":   "Real Estate",
		"fixed_deposit": "Fixed Deposit",
	}
	for in, want := range tests {
		if got := CategoryLabel(in); got != want {
			t.Errorf("CategoryLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("empty sparkline = %q", got)
	}
	got := []rune(RenderSparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}))
	if len(got) != 8 || got[0] != '▁' || got[7] != '█' {
		t.Errorf("sparkline = %q", string(got))
	}
	neg := []rune(RenderSparkline([]float64{-100, 0, 100}))
	if neg[0] != '▁' || neg[2] != '█' {
		t.Errorf("negative sparkline = %q", string(neg))
	}
}

func TestRenderTableContainsCells(t *testing.T) {
	out := RenderTable(SummaryTable(model.Summary{
		GrossIncome:   5000,
		TaxRate:       0.2,
		NetCashFlow:   800,
		HorizonMonths: 12,
		SavingsTarget: 10000,
		FinalNetWorth: 19200,
		TargetMonth:   7,
	}))
	for _, want := range []string{"Gross Income", "$5,000.00", "20.0%", "$800.00", "month 7", "+$9,200.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary table missing %q", want)
		}
	}
}

func TestRatesTableShowsSource(t *testing.T) {
	out := RenderTable(RatesTable([]model.RateQuote{
		{Asset: model.AssetStocks, Symbol: "SPY", Rate: 0.01, Source: model.RateSourceDefault, AsOf: time.Now()},
		{Asset: model.AssetCrypto, Rate: 0.02, Source: model.RateSourcePolicy},
	}))
	for _, want := range []string{"SPY", "1.00%/mo", "default", "Crypto", "policy"} {
		if !strings.Contains(out, want) {
			t.Errorf("rates table missing %q", want)
		}
	}
}

func TestBreakdownSkipsZeros(t *testing.T) {
	tbl := BreakdownTable("Investments", []string{"stocks", "bonds", "crypto"}, []float64{500, 300, 0})
	if len(tbl.Rows) != 4 { // two entries, separator, total
		t.Fatalf("rows = %d, want 4", len(tbl.Rows))
	}
	if tbl.Rows[0][2] != "62.5%" {
		t.Errorf("stocks share = %q", tbl.Rows[0][2])
	}
	if tbl.Rows[3][1] != "$800.00" {
		t.Errorf("total = %q", tbl.Rows[3][1])
	}
}

func TestMonthlyTableOmitsEmptyAssets(t *testing.T) {
	tbl := MonthlyTable([]model.MonthlySnapshot{
		{Month: 1, CashBalance: 800, AssetValues: map[model.AssetClass]float64{model.AssetStocks: 500}, NetWorth: 1300},
	})
	want := []string{"Month", "Cash", "Stocks", "Net Worth"}
	if strings.Join(tbl.Headers, ",") != strings.Join(want, ",") {
		t.Errorf("headers = %v, want %v", tbl.Headers, want)
	}
}

func TestFallbackNotes(t *testing.T) {
	notes := FallbackNotes([]model.RateQuote{
		{Asset: model.AssetStocks, Symbol: "SPY", Rate: 0.01, Source: model.RateSourceDefault},
		{Asset: model.AssetBonds, Symbol: "AGG", Rate: 0.003, Source: model.RateSourceLive},
	})
	if len(notes) != 1 || !strings.Contains(notes[0], "SPY") {
		t.Errorf("notes = %v", notes)
	}
}
