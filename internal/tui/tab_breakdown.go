package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/tui/components"
	"github.com/theirongolddev/finplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// renderShareCard renders one bar per non-zero amount, scaled as a share of
// the total. keys and amounts are parallel.
func renderShareCard(title string, keys []string, amounts []float64, outerW int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(outerW)

	nameStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface)
	amountStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var total float64
	for _, v := range amounts {
		total += v
	}

	var body strings.Builder
	if total <= 0 {
		body.WriteString(mutedStyle.Render("Nothing budgeted."))
		return components.ContentCard(title, body.String(), outerW)
	}

	const nameW, amountW = 14, 11
	barW := innerW - nameW - amountW - 7 // spaces + "100%"
	if barW < 6 {
		barW = 6
	}

	for i, key := range keys {
		v := amounts[i]
		if v <= 0 {
			continue
		}
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, cli.CategoryLabel(key))))
		body.WriteString(spaceStyle.Render(" "))
		body.WriteString(components.ProgressBar(v/total, barW))
		body.WriteString(amountStyle.Render(fmt.Sprintf(" %*s", amountW, cli.FormatMoney(v))))
		body.WriteString("\n")
	}
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(fmt.Sprintf("%-*s", innerW-amountW-1, "Total")))
	body.WriteString(amountStyle.Render(fmt.Sprintf(" %*s", amountW, cli.FormatMoney(total))))

	return components.ContentCard(title, body.String(), outerW)
}

func (a App) renderExpenseCard(outerW int) string {
	keys := make([]string, len(model.ExpenseCategories))
	vals := make([]float64, len(model.ExpenseCategories))
	for i, c := range model.ExpenseCategories {
		keys[i], vals[i] = string(c), a.budget.Expenses[c]
	}
	return renderShareCard("Expense Breakdown", keys, vals, outerW)
}

func (a App) renderInvestmentCard(outerW int) string {
	keys := make([]string, len(model.AssetClasses))
	vals := make([]float64, len(model.AssetClasses))
	for i, c := range model.AssetClasses {
		keys[i], vals[i] = string(c), a.budget.Investments[c]
	}
	return renderShareCard("Investment Breakdown", keys, vals, outerW)
}

// renderHoldingsCard compares what goes into each funded asset over the
// horizon with its projected value.
func (a App) renderHoldingsCard(cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface)
	gainStyle := lipgloss.NewStyle().Foreground(t.Gain).Background(t.Surface)
	lossStyle := lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface)

	title := "Projected Holdings"
	if len(a.snapshots) == 0 {
		return components.ContentCard(title, mutedStyle.Render("No projection."), cw)
	}
	last := a.snapshots[len(a.snapshots)-1]
	title = fmt.Sprintf("Projected Holdings after %s", cli.FormatMonths(last.Month))

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-14s %13s %13s %13s", "Asset", "Contributed", "Value", "Growth")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", min(innerW, 56))))
	body.WriteString("\n")

	var funded int
	for _, asset := range model.AssetClasses {
		monthly := a.budget.Investments[asset]
		if monthly == 0 {
			continue
		}
		funded++
		contributed := monthly * float64(last.Month)
		value := last.AssetValues[asset]
		growth := value - contributed

		growthStyle := gainStyle
		if growth < 0 {
			growthStyle = lossStyle
		}
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-14s", cli.CategoryLabel(string(asset)))))
		body.WriteString(rowStyle.Render(fmt.Sprintf(" %13s %13s", cli.FormatMoney(contributed), cli.FormatMoney(value))))
		body.WriteString(growthStyle.Render(fmt.Sprintf(" %13s", cli.FormatDelta(value, contributed))))
		body.WriteString("\n")
	}
	if funded == 0 {
		return components.ContentCard(title, mutedStyle.Render("No investments funded."), cw)
	}

	return components.ContentCard(title, strings.TrimSuffix(body.String(), "\n"), cw)
}

func (a App) renderBreakdownTab(cw int) string {
	var b strings.Builder
	if a.isCompactLayout() {
		b.WriteString(a.renderExpenseCard(cw))
		b.WriteString("\n")
		b.WriteString(a.renderInvestmentCard(cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			a.renderExpenseCard(halves[0]),
			a.renderInvestmentCard(halves[1]),
		}))
	}
	b.WriteString("\n")
	b.WriteString(a.renderHoldingsCard(cw))
	return b.String()
}
