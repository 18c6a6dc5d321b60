package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/projection"
	"github.com/theirongolddev/finplan/internal/tui/components"
	"github.com/theirongolddev/finplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active

	if a.projErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface)
		hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		return components.ContentCard("Projection unavailable",
			errStyle.Render(a.projErr.Error())+"\n"+hintStyle.Render("Press e to edit the budget."), cw)
	}

	s := a.summary
	var b strings.Builder

	// Row 1: the five headline metrics
	flowTone := t.Gain
	if s.NetCashFlow < 0 {
		flowTone = t.Loss
	}
	share := func(v float64) string {
		if s.AfterTaxIncome <= 0 {
			return ""
		}
		return cli.FormatPercent(v/s.AfterTaxIncome) + " of take-home"
	}
	cards := []components.Metric{
		{Label: "Income (gross)", Value: cli.FormatMoney(s.GrossIncome), Delta: "tax " + cli.FormatPercent(s.TaxRate)},
		{Label: "After-tax income", Value: cli.FormatMoney(s.AfterTaxIncome), Delta: "per month"},
		{Label: "Expenses", Value: cli.FormatMoney(s.TotalExpenses), Delta: share(s.TotalExpenses)},
		{Label: "Investments", Value: cli.FormatMoney(s.TotalInvestment), Delta: share(s.TotalInvestment)},
		{Label: "Net cash flow", Value: cli.FormatMoney(s.NetCashFlow) + "/mo", Delta: "cash " + cli.FormatMoneyShort(s.FinalCash), Tone: flowTone},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: net worth chart + target progress
	chartH := 10
	if a.isCompactLayout() {
		chartH = 8
	}
	if a.isCompactLayout() {
		b.WriteString(a.renderNetWorthCard(cw, chartH))
		b.WriteString("\n")
		b.WriteString(a.renderTargetCard(cw))
	} else {
		widths := components.LayoutRow(cw, 3)
		chartW := widths[0] + widths[1]
		b.WriteString(components.CardRow([]string{
			a.renderNetWorthCard(chartW, chartH),
			a.renderTargetCard(widths[2]),
		}))
	}
	b.WriteString("\n")

	// Row 3: rates and where they came from
	b.WriteString(a.renderRatesCard(cw))

	return b.String()
}

func (a App) renderNetWorthCard(outerW, chartH int) string {
	t := theme.Active
	values := projection.NetWorthSeries(a.snapshots)
	labels := make([]string, len(a.snapshots))
	for i, snap := range a.snapshots {
		labels[i] = strconv.Itoa(snap.Month)
	}
	title := "Net Worth Growth"
	if a.budget.SavingsTarget > 0 {
		title += "  ┄ target " + cli.FormatMoneyShort(a.budget.SavingsTarget)
	}
	chart := components.BarChart(values, labels, t.Blue, a.budget.SavingsTarget,
		components.CardInnerWidth(outerW), chartH)
	return components.ContentCard(title, chart, outerW)
}

func (a App) renderTargetCard(outerW int) string {
	t := theme.Active
	s := a.summary
	innerW := components.CardInnerWidth(outerW)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	gainStyle := lipgloss.NewStyle().Foreground(t.Gain).Background(t.Surface)
	lossStyle := lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface)

	row := func(label, value string, style lipgloss.Style) string {
		return labelStyle.Render(fmt.Sprintf("%-16s", label)) + style.Render(value) + "\n"
	}

	var b strings.Builder
	barW := innerW - 8 - 1 - 6 - 2 - 17
	if barW < 6 {
		barW = 6
	}
	b.WriteString(components.TargetBar("Target", s.FinalNetWorth, s.SavingsTarget, 8, barW))
	b.WriteString("\n\n")
	b.WriteString(row("Final net worth", cli.FormatMoney(s.FinalNetWorth), valueStyle))
	b.WriteString(row("Final cash", cli.FormatMoney(s.FinalCash), valueStyle))

	gapStyle := gainStyle
	if !s.TargetReached() {
		gapStyle = lossStyle
	}
	b.WriteString(row("Vs. target", cli.FormatDelta(s.FinalNetWorth, s.SavingsTarget), gapStyle))

	reached := "not within " + cli.FormatMonths(s.HorizonMonths)
	reachedStyle := lossStyle
	if s.TargetMonth > 0 {
		reached = fmt.Sprintf("month %d", s.TargetMonth)
		reachedStyle = gainStyle
	}
	b.WriteString(row("Target reached", reached, reachedStyle))

	return components.ContentCard("Savings Target", strings.TrimSuffix(b.String(), "\n"), outerW)
}

func (a App) renderRatesCard(cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface)
	sourceStyles := map[model.RateSource]lipgloss.Style{
		model.RateSourceLive:    lipgloss.NewStyle().Foreground(t.Gain).Background(t.Surface),
		model.RateSourceCached:  lipgloss.NewStyle().Foreground(t.Blue).Background(t.Surface),
		model.RateSourcePolicy:  mutedStyle,
		model.RateSourceDefault: lipgloss.NewStyle().Foreground(t.Caution).Background(t.Surface).Bold(true),
	}

	var body strings.Builder
	if len(a.quotes) == 0 {
		body.WriteString(mutedStyle.Render("No rates resolved; projecting with zero growth."))
		return components.ContentCard("Growth Rates", body.String(), cw)
	}

	body.WriteString(headerStyle.Render(fmt.Sprintf("%-14s %-8s %12s  %-8s", "Asset", "Symbol", "Rate", "Source")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", min(innerW, 46))))
	body.WriteString("\n")

	for _, q := range a.quotes {
		symbol := q.Symbol
		if symbol == "" {
			symbol = "-"
		}
		style, ok := sourceStyles[q.Source]
		if !ok {
			style = rowStyle
		}
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-14s", cli.CategoryLabel(string(q.Asset)))))
		body.WriteString(rowStyle.Render(fmt.Sprintf(" %-8s %12s  ", symbol, cli.FormatRate(q.Rate))))
		body.WriteString(style.Render(fmt.Sprintf("%-8s", q.Source)))
		body.WriteString("\n")
	}

	for _, note := range cli.FallbackNotes(a.quotes) {
		body.WriteString(sourceStyles[model.RateSourceDefault].Render("! " + note))
		body.WriteString("\n")
	}

	return components.ContentCard("Growth Rates", strings.TrimSuffix(body.String(), "\n"), cw)
}
