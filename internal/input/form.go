package input

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/model"
)

// Accepted ranges for interactive entry.
const (
	MinMonths = 1
	MaxMonths = model.MaxHorizonMonths
)

// FormValues holds the form's text fields. Expenses and Investments are
// parallel to model.ExpenseCategories and model.AssetClasses.
type FormValues struct {
	Income      string
	TaxPercent  string
	Expenses    []string
	Investments []string
	Months      string
	Target      string
}

// NewFormValues pre-fills the form from in.
func NewFormValues(in model.BudgetInput) *FormValues {
	v := &FormValues{
		Income:      formatAmount(in.GrossIncome),
		TaxPercent:  formatAmount(in.TaxRate * 100),
		Expenses:    make([]string, len(model.ExpenseCategories)),
		Investments: make([]string, len(model.AssetClasses)),
		Months:      strconv.Itoa(in.HorizonMonths),
		Target:      formatAmount(in.SavingsTarget),
	}
	for i, c := range model.ExpenseCategories {
		v.Expenses[i] = formatAmount(in.Expenses[c])
	}
	for i, a := range model.AssetClasses {
		v.Investments[i] = formatAmount(in.Investments[a])
	}
	return v
}

// Input converts the form into a validated budget.
func (v *FormValues) Input() (model.BudgetInput, error) {
	var in model.BudgetInput
	var err error

	if in.GrossIncome, err = parseAmount("income", v.Income); err != nil {
		return in, err
	}
	pct, err := parsePercent(v.TaxPercent)
	if err != nil {
		return in, err
	}
	in.TaxRate = pct / 100

	in.Expenses = make(map[model.ExpenseCategory]float64, len(model.ExpenseCategories))
	for i, c := range model.ExpenseCategories {
		if in.Expenses[c], err = parseAmount(string(c), at(v.Expenses, i)); err != nil {
			return in, err
		}
	}
	in.Investments = make(map[model.AssetClass]float64, len(model.AssetClasses))
	for i, a := range model.AssetClasses {
		if in.Investments[a], err = parseAmount(string(a), at(v.Investments, i)); err != nil {
			return in, err
		}
	}

	if in.HorizonMonths, err = parseMonths(v.Months); err != nil {
		return in, err
	}
	if in.SavingsTarget, err = parseAmount("savings target", v.Target); err != nil {
		return in, err
	}

	return in, in.Validate()
}

func at(vals []string, i int) string {
	if i < len(vals) {
		return vals[i]
	}
	return ""
}

// NewForm builds the interactive budget form bound to v.
func NewForm(v *FormValues) *huh.Form {
	if len(v.Expenses) < len(model.ExpenseCategories) {
		v.Expenses = append(v.Expenses, make([]string, len(model.ExpenseCategories)-len(v.Expenses))...)
	}
	if len(v.Investments) < len(model.AssetClasses) {
		v.Investments = append(v.Investments, make([]string, len(model.AssetClasses)-len(v.Investments))...)
	}

	income := huh.NewGroup(
		huh.NewInput().
			Title("Monthly income (before tax, $)").
			Value(&v.Income).
			Validate(validateAmount),
		huh.NewInput().
			Title("Tax rate (%)").
			Value(&v.TaxPercent).
			Validate(validatePercent),
	).Title("Income")

	expenseFields := make([]huh.Field, 0, len(model.ExpenseCategories))
	for i, c := range model.ExpenseCategories {
		expenseFields = append(expenseFields, huh.NewInput().
			Title(cli.CategoryLabel(string(c))+" ($)").
			Value(&v.Expenses[i]).
			Validate(validateAmount))
	}

	investFields := make([]huh.Field, 0, len(model.AssetClasses))
	for i, a := range model.AssetClasses {
		investFields = append(investFields, huh.NewInput().
			Title(cli.CategoryLabel(string(a))+" ($/month)").
			Value(&v.Investments[i]).
			Validate(validateAmount))
	}

	horizon := huh.NewGroup(
		huh.NewInput().
			Title("Projection period (months)").
			Description(fmt.Sprintf("%d to %d", MinMonths, MaxMonths)).
			Value(&v.Months).
			Validate(validateMonths),
		huh.NewInput().
			Title("Savings target at end of period ($)").
			Value(&v.Target).
			Validate(validateAmount),
	).Title("Horizon")

	return huh.NewForm(
		income,
		huh.NewGroup(expenseFields...).Title("Monthly expenses"),
		huh.NewGroup(investFields...).Title("Monthly investments"),
		horizon,
	).WithShowHelp(true)
}

var (
	errNotNumber = errors.New("enter a number")
	errNegative  = errors.New("must not be negative")
	errNotFinite = errors.New("must be a finite number")
)

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	return strings.ReplaceAll(s, ",", "")
}

func parseAmount(field, s string) (float64, error) {
	s = cleanNumber(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, errNotNumber)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %w", field, errNotFinite)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s: %w", field, errNegative)
	}
	return v, nil
}

func parsePercent(s string) (float64, error) {
	v, err := parseAmount("tax rate", s)
	if err != nil {
		return 0, err
	}
	if v > 100 {
		return 0, errors.New("tax rate: must be between 0 and 100")
	}
	return v, nil
}

func parseMonths(s string) (int, error) {
	n, err := strconv.Atoi(cleanNumber(s))
	if err != nil {
		return 0, fmt.Errorf("months: %w", errors.New("enter a whole number"))
	}
	if n < MinMonths || n > MaxMonths {
		return 0, fmt.Errorf("months: must be between %d and %d", MinMonths, MaxMonths)
	}
	return n, nil
}

func validateAmount(s string) error {
	_, err := parseAmount("value", s)
	return err
}

func validatePercent(s string) error {
	_, err := parsePercent(s)
	return err
}

func validateMonths(s string) error {
	_, err := parseMonths(s)
	return err
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
