package model

import "time"

// GrowthRates maps each asset class to its monthly growth rate.
// Zero and negative rates are valid.
type GrowthRates map[AssetClass]float64

// MonthlySnapshot is one month of a projection.
type MonthlySnapshot struct {
	Month       int                    `json:"month"` // 1-based
	CashBalance float64                `json:"cash_balance"`
	AssetValues map[AssetClass]float64 `json:"asset_values"`
	NetWorth    float64                `json:"net_worth"`
}

// Summary holds the headline figures of a projection, used by every
// presenter and by the advisory prompt.
type Summary struct {
	GrossIncome     float64 `json:"gross_income"`
	TaxRate         float64 `json:"tax_rate"`
	AfterTaxIncome  float64 `json:"after_tax_income"`
	TotalExpenses   float64 `json:"total_expenses"`
	TotalInvestment float64 `json:"total_investment"`
	NetCashFlow     float64 `json:"net_cash_flow"`
	HorizonMonths   int     `json:"horizon_months"`
	SavingsTarget   float64 `json:"savings_target"`
	FinalNetWorth   float64 `json:"final_net_worth"`
	FinalCash       float64 `json:"final_cash"`
	TargetGap       float64 `json:"target_gap"`   // final net worth minus target
	TargetMonth     int     `json:"target_month"` // first month at or above target, 0 if never
}

// TargetReached reports whether the projection ends at or above the target.
func (s Summary) TargetReached() bool {
	return s.TargetGap >= 0
}

// RateSource records where a growth rate came from.
type RateSource string

const (
	RateSourceLive    RateSource = "live"    // fetched from the market-data provider just now
	RateSourceCached  RateSource = "cached"  // fetched earlier, still within the cache TTL
	RateSourceDefault RateSource = "default" // lookup unavailable, configured fallback used
	RateSourcePolicy  RateSource = "policy"  // non-tradable asset, fixed rate by policy
)

// RateQuote is the resolved monthly growth rate of one asset class.
type RateQuote struct {
	Asset  AssetClass `json:"asset"`
	Symbol string     `json:"symbol,omitempty"`
	Rate   float64    `json:"rate"`
	Source RateSource `json:"source"`
	AsOf   time.Time  `json:"as_of"`
}

// Fallback reports whether the quote is a substitute for a live market rate.
func (q RateQuote) Fallback() bool {
	return q.Source == RateSourceDefault
}

// RatesFromQuotes collects quotes into a GrowthRates map.
func RatesFromQuotes(quotes []RateQuote) GrowthRates {
	rates := make(GrowthRates, len(quotes))
	for _, q := range quotes {
		rates[q.Asset] = q.Rate
	}
	return rates
}
