package cli

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/finplan/internal/model"
)

// SummaryTable builds the headline figures of a projection.
func SummaryTable(s model.Summary) Table {
	target := "not reached"
	if s.TargetMonth > 0 {
		target = fmt.Sprintf("month %d", s.TargetMonth)
	}

	rows := [][]string{
		{"Gross Income", FormatMoney(s.GrossIncome)},
		{"Tax Rate", FormatPercent(s.TaxRate)},
		{"After-tax Income", FormatMoney(s.AfterTaxIncome)},
		{"---"},
		{"Total Expenses", FormatMoney(s.TotalExpenses)},
		{"Total Investment", FormatMoney(s.TotalInvestment)},
		{"Net Cash Flow", FormatMoney(s.NetCashFlow)},
		{"---"},
		{"Horizon", FormatMonths(s.HorizonMonths)},
		{"Final Cash", FormatMoney(s.FinalCash)},
		{"Final Net Worth", FormatMoney(s.FinalNetWorth)},
		{"Savings Target", FormatMoney(s.SavingsTarget)},
		{"Target Gap", FormatDelta(s.FinalNetWorth, s.SavingsTarget)},
		{"Target Reached", target},
	}

	return Table{
		Title:   "Monthly Budget",
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}
}

// RatesTable lists each asset's growth rate and where it came from.
func RatesTable(quotes []model.RateQuote) Table {
	rows := make([][]string, 0, len(quotes))
	for _, q := range quotes {
		symbol := q.Symbol
		if symbol == "" {
			symbol = "-"
		}
		rows = append(rows, []string{
			CategoryLabel(string(q.Asset)),
			symbol,
			FormatRate(q.Rate),
			string(q.Source),
		})
	}
	return Table{
		Title:   "Growth Rates",
		Headers: []string{"Asset", "Symbol", "Rate", "Source"},
		Rows:    rows,
	}
}

// BreakdownTable lists non-zero amounts in category order with their share
// of the total.
func BreakdownTable(title string, keys []string, amounts []float64) Table {
	var total float64
	for _, v := range amounts {
		total += v
	}

	rows := make([][]string, 0, len(keys)+2)
	for i, k := range keys {
		if i >= len(amounts) || amounts[i] == 0 {
			continue
		}
		share := "-"
		if total > 0 {
			share = FormatPercent(amounts[i] / total)
		}
		rows = append(rows, []string{CategoryLabel(k), FormatMoney(amounts[i]), share})
	}
	rows = append(rows, []string{"---"}, []string{"Total", FormatMoney(total), ""})

	return Table{
		Title:   title,
		Headers: []string{"Category", "Monthly", "Share"},
		Rows:    rows,
	}
}

// ExpenseBreakdown is BreakdownTable over an input's expenses.
func ExpenseBreakdown(in model.BudgetInput) Table {
	keys := make([]string, len(model.ExpenseCategories))
	amounts := make([]float64, len(model.ExpenseCategories))
	for i, c := range model.ExpenseCategories {
		keys[i] = string(c)
		amounts[i] = in.Expenses[c]
	}
	return BreakdownTable("Expenses", keys, amounts)
}

// InvestmentBreakdown is BreakdownTable over an input's investments.
func InvestmentBreakdown(in model.BudgetInput) Table {
	keys := make([]string, len(model.AssetClasses))
	amounts := make([]float64, len(model.AssetClasses))
	for i, a := range model.AssetClasses {
		keys[i] = string(a)
		amounts[i] = in.Investments[a]
	}
	return BreakdownTable("Investments", keys, amounts)
}

// MonthlyTable lists every snapshot. Assets with no contribution are omitted.
func MonthlyTable(snaps []model.MonthlySnapshot) Table {
	var assets []model.AssetClass
	for _, a := range model.AssetClasses {
		for _, s := range snaps {
			if s.AssetValues[a] != 0 {
				assets = append(assets, a)
				break
			}
		}
	}

	headers := []string{"Month", "Cash"}
	for _, a := range assets {
		headers = append(headers, CategoryLabel(string(a)))
	}
	headers = append(headers, "Net Worth")

	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		row := []string{strconv.Itoa(s.Month), FormatMoney(s.CashBalance)}
		for _, a := range assets {
			row = append(row, FormatMoney(s.AssetValues[a]))
		}
		row = append(row, FormatMoney(s.NetWorth))
		rows = append(rows, row)
	}

	return Table{
		Title:   "Projection",
		Headers: headers,
		Rows:    rows,
	}
}

// FallbackNotes returns one line per quote that fell back to a default rate.
func FallbackNotes(quotes []model.RateQuote) []string {
	var notes []string
	for _, q := range quotes {
		if q.Fallback() {
			notes = append(notes, fmt.Sprintf("%s (%s): market data unavailable, using default %s",
				CategoryLabel(string(q.Asset)), q.Symbol, FormatRate(q.Rate)))
		}
	}
	return notes
}
