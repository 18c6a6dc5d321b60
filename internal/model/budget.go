// Package model defines domain types for finplan budgets and projections.
package model

import (
	"errors"
	"fmt"
	"math"
)

// ExpenseCategory is one of the fixed recurring expense buckets.
type ExpenseCategory string

const (
	ExpenseHousing       ExpenseCategory = "housing"
	ExpenseFood          ExpenseCategory = "food"
	ExpenseTransport     ExpenseCategory = "transport"
	ExpenseUtilities     ExpenseCategory = "utilities"
	ExpenseEntertainment ExpenseCategory = "entertainment"
	ExpenseOther         ExpenseCategory = "other"
)

// ExpenseCategories lists every category in display and summation order.
var ExpenseCategories = []ExpenseCategory{
	ExpenseHousing,
	ExpenseFood,
	ExpenseTransport,
	ExpenseUtilities,
	ExpenseEntertainment,
	ExpenseOther,
}

// AssetClass is one of the fixed investment vehicles.
type AssetClass string

const (
	AssetStocks       AssetClass = "stocks"
	AssetBonds        AssetClass = "bonds"
	AssetRealEstate   AssetClass = "real_estate"
	AssetCrypto       AssetClass = "crypto"
	AssetFixedDeposit AssetClass = "fixed_deposit"
)

// AssetClasses lists every asset class in display and summation order.
var AssetClasses = []AssetClass{
	AssetStocks,
	AssetBonds,
	AssetRealEstate,
	AssetCrypto,
	AssetFixedDeposit,
}

// Tradable reports whether the asset class has a market price that can be
// looked up. The others are always assigned a policy rate.
func (a AssetClass) Tradable() bool {
	return a == AssetStocks || a == AssetBonds
}

// ParseAssetClass returns the asset class named s.
func ParseAssetClass(s string) (AssetClass, bool) {
	for _, a := range AssetClasses {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// ParseExpenseCategory returns the expense category named s.
func ParseExpenseCategory(s string) (ExpenseCategory, bool) {
	for _, c := range ExpenseCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// MaxHorizonMonths caps a projection at fifty years.
const MaxHorizonMonths = 600

// Input validation errors. Validate wraps them with the offending field.
var (
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrNonFiniteAmount = errors.New("amount must be a finite number")
	ErrTaxRateRange    = errors.New("tax rate must be between 0 and 1")
	ErrHorizonRange    = fmt.Errorf("horizon must be between 1 and %d months", MaxHorizonMonths)
)

// BudgetInput holds the parameters of one projection. It is built fresh for
// every computation and treated as immutable.
type BudgetInput struct {
	GrossIncome   float64                     `json:"gross_income"`
	TaxRate       float64                     `json:"tax_rate"` // fraction, 0.2 = 20%
	Expenses      map[ExpenseCategory]float64 `json:"expenses"`
	Investments   map[AssetClass]float64      `json:"investments"`
	HorizonMonths int                         `json:"horizon_months"`
	SavingsTarget float64                     `json:"savings_target"`
}

// Validate reports the first precondition the input violates.
func (in BudgetInput) Validate() error {
	if in.HorizonMonths < 1 || in.HorizonMonths > MaxHorizonMonths {
		return fmt.Errorf("horizon_months=%d: %w", in.HorizonMonths, ErrHorizonRange)
	}
	if !(in.TaxRate >= 0 && in.TaxRate <= 1) {
		return fmt.Errorf("tax_rate=%g: %w", in.TaxRate, ErrTaxRateRange)
	}
	if err := checkAmount("gross_income", in.GrossIncome); err != nil {
		return err
	}
	if err := checkAmount("savings_target", in.SavingsTarget); err != nil {
		return err
	}
	for _, c := range ExpenseCategories {
		if err := checkAmount("expense "+string(c), in.Expenses[c]); err != nil {
			return err
		}
	}
	for _, a := range AssetClasses {
		if err := checkAmount("investment "+string(a), in.Investments[a]); err != nil {
			return err
		}
	}
	return nil
}

func checkAmount(field string, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fmt.Errorf("%s=%g: %w", field, v, ErrNonFiniteAmount)
	case v < 0:
		return fmt.Errorf("%s: %w", field, ErrNegativeAmount)
	}
	return nil
}

// Clone returns a deep copy so callers can derive variants without sharing maps.
func (in BudgetInput) Clone() BudgetInput {
	out := in
	out.Expenses = make(map[ExpenseCategory]float64, len(in.Expenses))
	for k, v := range in.Expenses {
		out.Expenses[k] = v
	}
	out.Investments = make(map[AssetClass]float64, len(in.Investments))
	for k, v := range in.Investments {
		out.Investments[k] = v
	}
	return out
}
