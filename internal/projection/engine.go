// Package projection computes month-by-month cash and net-worth trajectories
// from a budget and a set of monthly growth rates.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/theirongolddev/finplan/internal/model"
)

var (
	// ErrPrecondition is wrapped by every input violation Project reports.
	ErrPrecondition = errors.New("projection: precondition violated")
	// ErrInvalidHorizon indicates a horizon outside 1..model.MaxHorizonMonths.
	ErrInvalidHorizon = fmt.Errorf("%w: horizon must be between 1 and %d months", ErrPrecondition, model.MaxHorizonMonths)
	// ErrInvalidTaxRate indicates a tax rate outside [0, 1].
	ErrInvalidTaxRate = fmt.Errorf("%w: tax rate must be within [0, 1]", ErrPrecondition)
	// ErrNegativeAmount indicates a negative income, expense, contribution or target.
	ErrNegativeAmount = fmt.Errorf("%w: amounts must not be negative", ErrPrecondition)
	// ErrNonFiniteAmount indicates a NaN or infinite amount.
	ErrNonFiniteAmount = fmt.Errorf("%w: amounts must be finite", ErrPrecondition)
	// ErrMissingRate indicates an allocated asset class without a growth rate.
	ErrMissingRate = fmt.Errorf("%w: missing growth rate", ErrPrecondition)
	// ErrInvalidRate indicates a NaN or infinite growth rate.
	ErrInvalidRate = fmt.Errorf("%w: growth rate must be finite", ErrPrecondition)
)

// Project returns one snapshot per month, 1..in.HorizonMonths, in order.
//
// Sums are always taken in model.AssetClasses / model.ExpenseCategories order
// so identical inputs produce bit-identical output.
func Project(in model.BudgetInput, rates model.GrowthRates) ([]model.MonthlySnapshot, error) {
	if err := checkPreconditions(in, rates); err != nil {
		return nil, err
	}

	flow := NetCashFlow(in)

	snapshots := make([]model.MonthlySnapshot, 0, in.HorizonMonths)
	cash := 0.0
	for m := 1; m <= in.HorizonMonths; m++ {
		cash += flow

		values := make(map[model.AssetClass]float64, len(model.AssetClasses))
		netWorth := cash
		for _, a := range model.AssetClasses {
			v := AnnuityFutureValue(in.Investments[a], rates[a], m)
			values[a] = v
			netWorth += v
		}

		snapshots = append(snapshots, model.MonthlySnapshot{
			Month:       m,
			CashBalance: cash,
			AssetValues: values,
			NetWorth:    netWorth,
		})
	}

	return snapshots, nil
}

// AnnuityFutureValue is the value after m periods of a level contribution c
// per period compounding at rate r (ordinary annuity). A zero rate
// accumulates linearly.
func AnnuityFutureValue(c, r float64, m int) float64 {
	if r == 0 {
		return c * float64(m)
	}
	return c * (math.Pow(1+r, float64(m)) - 1) / r
}

// AfterTaxIncome returns gross income net of the flat tax rate.
func AfterTaxIncome(in model.BudgetInput) float64 {
	return in.GrossIncome * (1 - in.TaxRate)
}

// TotalExpenses sums the monthly expense items.
func TotalExpenses(in model.BudgetInput) float64 {
	total := 0.0
	for _, c := range model.ExpenseCategories {
		total += in.Expenses[c]
	}
	return total
}

// TotalInvestment sums the monthly investment contributions.
func TotalInvestment(in model.BudgetInput) float64 {
	total := 0.0
	for _, a := range model.AssetClasses {
		total += in.Investments[a]
	}
	return total
}

// NetCashFlow is after-tax income minus expenses and contributions.
// A negative value is a valid state, not an error.
func NetCashFlow(in model.BudgetInput) float64 {
	return AfterTaxIncome(in) - TotalExpenses(in) - TotalInvestment(in)
}

func checkPreconditions(in model.BudgetInput, rates model.GrowthRates) error {
	if in.HorizonMonths < 1 || in.HorizonMonths > model.MaxHorizonMonths {
		return fmt.Errorf("%w (got %d)", ErrInvalidHorizon, in.HorizonMonths)
	}
	if in.TaxRate < 0 || in.TaxRate > 1 || math.IsNaN(in.TaxRate) {
		return fmt.Errorf("%w (got %g)", ErrInvalidTaxRate, in.TaxRate)
	}
	if err := in.Validate(); err != nil {
		if errors.Is(err, model.ErrNonFiniteAmount) {
			return fmt.Errorf("%w: %v", ErrNonFiniteAmount, err)
		}
		return fmt.Errorf("%w: %v", ErrNegativeAmount, err)
	}
	for _, a := range model.AssetClasses {
		if in.Investments[a] == 0 {
			continue
		}
		r, ok := rates[a]
		if !ok {
			return fmt.Errorf("%w for %s", ErrMissingRate, a)
		}
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("%w for %s (got %g)", ErrInvalidRate, a, r)
		}
	}
	return nil
}
