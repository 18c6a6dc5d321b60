// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatMoney formats a dollar amount with two decimals and comma separators.
// e.g., 1234.5 -> "$1,234.50", -800 -> "-$800.00"
func FormatMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	s := d.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + "$" + s
	}
	return sign + "$" + FormatNumber(n) + "." + frac
}

// FormatMoneyShort formats a dollar amount compactly for cards and axes.
// e.g., 1234567 -> "$1.2M", 12500 -> "$12.5K", 950 -> "$950"
func FormatMoneyShort(v float64) string {
	if v < 0 {
		return "-" + FormatMoneyShort(-v)
	}

	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.1fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return "$" + FormatNumber(decimal.NewFromFloat(v).Round(0).IntPart())
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatRate formats a monthly growth rate with enough precision for
// fractional percents. e.g., 0.004 -> "0.40%/mo"
func FormatRate(r float64) string {
	return fmt.Sprintf("%.2f%%/mo", r*100)
}

// FormatDelta formats a money delta with an explicit sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatMoney(delta)
	}
	return "-" + FormatMoney(-delta)
}

// FormatMonths formats a horizon as years and months.
// e.g., 12 -> "1y", 30 -> "2y 6m", 7 -> "7m"
func FormatMonths(n int) string {
	if n <= 0 {
		return "0m"
	}
	years, months := n/12, n%12
	switch {
	case years == 0:
		return fmt.Sprintf("%dm", months)
	case months == 0:
		return fmt.Sprintf("%dy", years)
	default:
		return fmt.Sprintf("%dy %dm", years, months)
	}
}

// CategoryLabel turns a category or asset key into a display label.
// e.g., "fixed_deposit" -> "Fixed Deposit"
func CategoryLabel(key string) string {
	// Casers carry state; one per call.
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
