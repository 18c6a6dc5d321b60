package projection

import "github.com/theirongolddev/finplan/internal/model"

// Summarize computes the headline figures for a projection produced by
// Project from the same input. An empty snapshot slice yields zero final values.
func Summarize(in model.BudgetInput, snapshots []model.MonthlySnapshot) model.Summary {
	s := model.Summary{
		GrossIncome:     in.GrossIncome,
		TaxRate:         in.TaxRate,
		AfterTaxIncome:  AfterTaxIncome(in),
		TotalExpenses:   TotalExpenses(in),
		TotalInvestment: TotalInvestment(in),
		NetCashFlow:     NetCashFlow(in),
		HorizonMonths:   in.HorizonMonths,
		SavingsTarget:   in.SavingsTarget,
	}

	if len(snapshots) == 0 {
		s.TargetGap = -in.SavingsTarget
		return s
	}

	last := snapshots[len(snapshots)-1]
	s.FinalNetWorth = last.NetWorth
	s.FinalCash = last.CashBalance
	s.TargetGap = last.NetWorth - in.SavingsTarget

	for _, snap := range snapshots {
		if snap.NetWorth >= in.SavingsTarget {
			s.TargetMonth = snap.Month
			break
		}
	}

	return s
}

// Series extracts one value per month from snapshots, in month order.
func Series(snapshots []model.MonthlySnapshot, pick func(model.MonthlySnapshot) float64) []float64 {
	out := make([]float64, len(snapshots))
	for i, s := range snapshots {
		out[i] = pick(s)
	}
	return out
}

// NetWorthSeries returns net worth per month.
func NetWorthSeries(snapshots []model.MonthlySnapshot) []float64 {
	return Series(snapshots, func(s model.MonthlySnapshot) float64 { return s.NetWorth })
}

// CashSeries returns the cash balance per month.
func CashSeries(snapshots []model.MonthlySnapshot) []float64 {
	return Series(snapshots, func(s model.MonthlySnapshot) float64 { return s.CashBalance })
}

// AssetSeries returns the compounded value of one asset class per month.
func AssetSeries(snapshots []model.MonthlySnapshot, a model.AssetClass) []float64 {
	return Series(snapshots, func(s model.MonthlySnapshot) float64 { return s.AssetValues[a] })
}
