package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/finplan/internal/advisor"
	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/tui/components"
	"github.com/theirongolddev/finplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var backendLabels = map[string]string{
	advisor.BackendOpenAI:     "OpenAI",
	advisor.BackendOpenRouter: "OpenRouter",
	advisor.BackendGemini:     "Gemini",
}

func backendLabel(name string) string {
	if l, ok := backendLabels[name]; ok {
		return l
	}
	return cli.CategoryLabel(name)
}

// status returns a short label for the advice list.
func (st adviceState) status() string {
	switch {
	case st.pending:
		return "asking..."
	case !st.asked:
		return "not asked"
	case st.err != nil:
		return "failed"
	case st.text == "":
		return "no advice"
	default:
		return "ready"
	}
}

func (a App) renderAdviceTab(cw int) string {
	if a.isCompactLayout() {
		return a.renderAdviceMenu(cw) + "\n" + a.renderAdvicePanel(cw)
	}
	widths := components.LayoutRow(cw, 3)
	return components.CardRow([]string{
		a.renderAdviceMenu(widths[0]),
		a.renderAdvicePanel(widths[1] + widths[2]),
	})
}

func (a App) renderAdviceMenu(outerW int) string {
	t := theme.Active

	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	statusStyles := map[string]lipgloss.Style{
		"ready":  lipgloss.NewStyle().Foreground(t.Gain).Background(t.Surface),
		"failed": lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface),
	}

	var b strings.Builder
	for i, name := range advisor.Backends {
		st := a.advice[name]
		label := fmt.Sprintf("%-11s", backendLabel(name))
		if name == a.backend {
			label = selStyle.Render(label)
		} else {
			label = nameStyle.Render(label)
		}
		statusStyle, ok := statusStyles[st.status()]
		if !ok {
			statusStyle = mutedStyle
		}
		b.WriteString(keyStyle.Render(fmt.Sprintf("[%d] ", i+1)))
		b.WriteString(label)
		b.WriteString(statusStyle.Render(" " + st.status()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press 1-3 to ask a backend."))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Only totals and rates are sent."))

	return components.ContentCard("AI Suggestions", b.String(), outerW)
}

func (a App) renderAdvicePanel(outerW int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(outerW)

	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(innerW)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Width(innerW)
	errStyle := lipgloss.NewStyle().Foreground(t.Caution).Background(t.Surface).Width(innerW)

	st := a.advice[a.backend]
	title := backendLabel(a.backend) + " advice"

	var body string
	switch {
	case a.projErr != nil:
		body = errStyle.Render("Fix the budget first (press e): " + a.projErr.Error())
	case st.pending:
		body = mutedStyle.Render(a.spinner.View() + " waiting for " + backendLabel(a.backend) + "...")
	case !st.asked:
		body = mutedStyle.Render(fmt.Sprintf("Press %d for suggestions from %s.", backendIndex(a.backend)+1, backendLabel(a.backend)))
	case st.err != nil:
		body = errStyle.Render(st.err.Error())
	case st.text == "":
		body = mutedStyle.Render(backendLabel(a.backend) + " returned no advice.")
	default:
		body = textStyle.Render(st.text)
	}

	return components.ContentCard(title, body, outerW)
}

func backendIndex(name string) int {
	for i, b := range advisor.Backends {
		if b == name {
			return i
		}
	}
	return 0
}
