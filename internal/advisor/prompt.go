package advisor

import (
	"context"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finplan/internal/model"
)

var promptTemplate = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"money":   money,
	"percent": percent,
}).Parse(`You are a budgeting coach. Use concise bullet points.

Gross income: ${{money .GrossIncome}}
Tax rate: {{percent .TaxRate}}%
After-tax income: ${{money .AfterTaxIncome}}
Expenses: ${{money .TotalExpenses}}
Investments: ${{money .TotalInvestment}}
Net cash flow: ${{money .NetCashFlow}}/mo
Savings target after {{.HorizonMonths}} months: ${{money .SavingsTarget}}
Projected net worth: ${{money .FinalNetWorth}}

Advise: (1) expense cuts, (2) investment allocation, (3) reaching savings target.
`))

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(frac float64) string {
	return decimal.NewFromFloat(frac).Shift(2).Round(2).String()
}

// BuildPrompt renders the advisory prompt for a projection summary.
func BuildPrompt(s model.Summary) string {
	var sb strings.Builder
	// The template only formats fields of a value type; it cannot fail.
	_ = promptTemplate.Execute(&sb, s)
	return sb.String()
}

// Advise builds the prompt from s and asks c for a completion.
// Failures come back as *Error naming the backend. An empty completion is
// ("", nil): nothing to show.
func Advise(ctx context.Context, c Completer, s model.Summary) (string, error) {
	text, err := c.Complete(ctx, BuildPrompt(s))
	if err != nil {
		return "", &Error{Backend: c.Name(), Err: err}
	}
	return strings.TrimSpace(text), nil
}
