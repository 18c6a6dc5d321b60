package chart

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/finplan/internal/model"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleSnapshots() []model.MonthlySnapshot {
	snaps := make([]model.MonthlySnapshot, 12)
	for i := range snaps {
		m := float64(i + 1)
		snaps[i] = model.MonthlySnapshot{
			Month:       i + 1,
			CashBalance: 800 * m,
			AssetValues: map[model.AssetClass]float64{
				model.AssetStocks: 500 * m,
				model.AssetBonds:  300 * m,
			},
			NetWorth: 1600 * m,
		}
	}
	return snaps
}

func TestRenderProjection(t *testing.T) {
	png, err := RenderProjection(sampleSnapshots(), 10000)
	if err != nil {
		t.Fatalf("RenderProjection: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestRenderProjectionSingleMonth(t *testing.T) {
	snaps := sampleSnapshots()[:1]
	if _, err := RenderProjection(snaps, 0); err != nil {
		t.Fatalf("RenderProjection(1 month): %v", err)
	}
}

func TestRenderProjectionEmpty(t *testing.T) {
	if _, err := RenderProjection(nil, 100); !errors.Is(err, ErrNothingToPlot) {
		t.Errorf("err = %v, want ErrNothingToPlot", err)
	}
}

func TestRenderPie(t *testing.T) {
	png, err := RenderPie("Investments", []string{"stocks", "bonds", "crypto"}, []float64{500, 300, 0})
	if err != nil {
		t.Fatalf("RenderPie: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("output is not a PNG")
	}

	if _, err := RenderPie("Empty", []string{"stocks"}, []float64{0}); !errors.Is(err, ErrNothingToPlot) {
		t.Errorf("all-zero pie err = %v", err)
	}
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	in := model.BudgetInput{
		GrossIncome:   5000,
		TaxRate:       0.2,
		Expenses:      map[model.ExpenseCategory]float64{model.ExpenseHousing: 1200, model.ExpenseFood: 500},
		Investments:   map[model.AssetClass]float64{},
		HorizonMonths: 12,
		SavingsTarget: 10000,
	}

	paths, err := Export(dir, in, sampleSnapshots())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	// No investments, so no investments pie.
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want projection and expenses", paths)
	}
	for _, name := range []string{ProjectionFile, ExpensesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, InvestmentsFile)); !os.IsNotExist(err) {
		t.Errorf("investments pie should be skipped, stat err = %v", err)
	}
}
