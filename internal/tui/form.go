package tui

import (
	"strings"

	"github.com/theirongolddev/finplan/internal/input"
	"github.com/theirongolddev/finplan/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// formHeaderLines is the height of the banner above the form.
const formHeaderLines = 3

// openForm opens the budget form seeded with the current input.
func (a *App) openForm() tea.Cmd {
	return a.showForm(input.NewFormValues(a.budget))
}

// showForm opens the form on vals, keeping whatever the user typed.
func (a *App) showForm(vals *input.FormValues) tea.Cmd {
	a.formVals = vals
	a.form = input.NewForm(vals)
	if a.width > 0 {
		a.form = a.form.WithWidth(a.width).WithHeight(max(a.height-formHeaderLines, minContentHeight))
	}
	return a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		in, err := a.formVals.Input()
		if err != nil {
			a.formErr = err
			reopen := a.showForm(a.formVals)
			return a, reopen
		}
		a.formErr = nil
		a.budget = in
		a.form = nil
		a.formVals = nil
		a.opts.Logger.Debug().Msg("budget edited")
		recompute := a.recompute()
		return a, recompute

	case huh.StateAborted:
		a.form = nil
		a.formVals = nil
		a.formErr = nil
		return a, nil
	}

	return a, cmd
}

func (a App) viewForm() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Bold(true)

	hintStyle := lipgloss.NewStyle().
		Foreground(t.TextDim)

	errStyle := lipgloss.NewStyle().
		Foreground(t.Loss)

	var b strings.Builder
	b.WriteString(titleStyle.Render(" ◈ Edit budget"))
	b.WriteString(hintStyle.Render("  enter next · shift+tab back · esc cancel"))
	b.WriteString("\n")

	switch {
	case a.formErr != nil:
		b.WriteString(errStyle.Render(" " + a.formErr.Error()))
	case a.projErr != nil:
		b.WriteString(errStyle.Render(" " + a.projErr.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(a.form.View())

	return b.String()
}
