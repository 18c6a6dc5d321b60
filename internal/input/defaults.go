// Package input collects a BudgetInput from defaults, scenario files, an
// interactive form and command-line overrides.
package input

import (
	"github.com/theirongolddev/finplan/internal/config"
	"github.com/theirongolddev/finplan/internal/model"
)

// Default returns the starting budget shown to a new user.
func Default() model.BudgetInput {
	return model.BudgetInput{
		GrossIncome: 5000,
		TaxRate:     0.20,
		Expenses: map[model.ExpenseCategory]float64{
			model.ExpenseHousing:       1200,
			model.ExpenseFood:          500,
			model.ExpenseTransport:     300,
			model.ExpenseUtilities:     200,
			model.ExpenseEntertainment: 200,
			model.ExpenseOther:         200,
		},
		Investments: map[model.AssetClass]float64{
			model.AssetStocks:       500,
			model.AssetBonds:        300,
			model.AssetRealEstate:   0,
			model.AssetCrypto:       0,
			model.AssetFixedDeposit: 0,
		},
		HorizonMonths: 12,
		SavingsTarget: 10000,
	}
}

// FromConfig returns Default with the [general] horizon and target applied.
func FromConfig(cfg config.Config) model.BudgetInput {
	in := Default()
	if cfg.General.HorizonMonths > 0 {
		in.HorizonMonths = cfg.General.HorizonMonths
	}
	if cfg.General.SavingsTarget > 0 {
		in.SavingsTarget = cfg.General.SavingsTarget
	}
	return in
}

// Overrides holds values set explicitly on the command line. Nil fields are
// left alone.
type Overrides struct {
	Income     *float64
	TaxPercent *float64
	Months     *int
	Target     *float64
}

// Apply returns a copy of in with the overrides applied.
func (o Overrides) Apply(in model.BudgetInput) model.BudgetInput {
	out := in.Clone()
	if o.Income != nil {
		out.GrossIncome = *o.Income
	}
	if o.TaxPercent != nil {
		out.TaxRate = *o.TaxPercent / 100
	}
	if o.Months != nil {
		out.HorizonMonths = *o.Months
	}
	if o.Target != nil {
		out.SavingsTarget = *o.Target
	}
	return out
}
