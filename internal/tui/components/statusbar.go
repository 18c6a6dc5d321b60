package components

import (
	"strings"

	"github.com/theirongolddev/finplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar. activity is shown in the
// accent color (e.g. a spinner while a request is in flight); info is
// right-aligned.
func RenderStatusBar(width int, activity, info string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	accent := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	left := " [?]help  [e]dit  [r]efresh  [q]uit"
	if activity != "" {
		left += "  " + accent.Render(activity)
	}
	right := ""
	if info != "" {
		right = info + " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
