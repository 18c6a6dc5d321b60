package projection

import (
	"testing"

	"github.com/theirongolddev/finplan/internal/model"
)

func TestSummarize_ReferenceScenario(t *testing.T) {
	in := scenarioInput(12)
	snaps, err := Project(in, scenarioRates())
	if err != nil {
		t.Fatal(err)
	}

	s := Summarize(in, snaps)

	assertClose(t, s.AfterTaxIncome, 4000, "AfterTaxIncome")
	assertClose(t, s.NetCashFlow, 800, "NetCashFlow")
	if s.HorizonMonths != 12 {
		t.Errorf("HorizonMonths = %d, want 12", s.HorizonMonths)
	}
	assertClose(t, s.FinalNetWorth, snaps[11].NetWorth, "FinalNetWorth")
	assertClose(t, s.FinalCash, 9600, "FinalCash")
	assertClose(t, s.TargetGap, snaps[11].NetWorth-10000, "TargetGap")
	if !s.TargetReached() {
		t.Error("TargetReached = false, want true")
	}

	// 1600/month plus growth crosses 10000 in month 7.
	if s.TargetMonth != 7 {
		t.Errorf("TargetMonth = %d, want 7", s.TargetMonth)
	}
}

func TestSummarize_TargetNotReached(t *testing.T) {
	in := scenarioInput(3)
	in.SavingsTarget = 1_000_000
	snaps, err := Project(in, scenarioRates())
	if err != nil {
		t.Fatal(err)
	}

	s := Summarize(in, snaps)
	if s.TargetReached() {
		t.Error("TargetReached = true, want false")
	}
	if s.TargetMonth != 0 {
		t.Errorf("TargetMonth = %d, want 0", s.TargetMonth)
	}
	if s.TargetGap >= 0 {
		t.Errorf("TargetGap = %f, want negative", s.TargetGap)
	}
}

func TestSummarize_NoSnapshots(t *testing.T) {
	in := scenarioInput(0)
	s := Summarize(in, nil)
	if s.FinalNetWorth != 0 || s.FinalCash != 0 {
		t.Errorf("final values = %f/%f, want zero", s.FinalNetWorth, s.FinalCash)
	}
	if s.TargetGap != -in.SavingsTarget {
		t.Errorf("TargetGap = %f, want %f", s.TargetGap, -in.SavingsTarget)
	}
}

func TestSeries(t *testing.T) {
	snaps, err := Project(scenarioInput(4), scenarioRates())
	if err != nil {
		t.Fatal(err)
	}

	nw := NetWorthSeries(snaps)
	cash := CashSeries(snaps)
	stocks := AssetSeries(snaps, model.AssetStocks)
	if len(nw) != 4 || len(cash) != 4 || len(stocks) != 4 {
		t.Fatalf("series lengths = %d/%d/%d, want 4", len(nw), len(cash), len(stocks))
	}
	for i, s := range snaps {
		if nw[i] != s.NetWorth || cash[i] != s.CashBalance || stocks[i] != s.AssetValues[model.AssetStocks] {
			t.Errorf("series[%d] does not match snapshot", i)
		}
	}
}
