package tui

import (
	"errors"
	"strings"

	"github.com/theirongolddev/finplan/internal/assistant"
	"github.com/theirongolddev/finplan/internal/tui/components"
	"github.com/theirongolddev/finplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderChatTab(cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	whoStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	botStyle := lipgloss.NewStyle().Foreground(t.Magenta).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(innerW - 2)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Caution).Background(t.Surface).Width(innerW)

	// The log holds two messages: the last thing sent and the last reply.
	var log strings.Builder
	if a.lastSent == "" {
		log.WriteString(mutedStyle.Render("No messages yet. Type a question and press Enter."))
	} else {
		log.WriteString(whoStyle.Render("You"))
		log.WriteString("\n")
		log.WriteString(textStyle.Render("  " + a.lastSent))
		log.WriteString("\n\n")
		log.WriteString(botStyle.Render("Assistant"))
		log.WriteString("\n")
		switch {
		case a.chatPending:
			log.WriteString(mutedStyle.Render("  " + a.spinner.View() + " waiting..."))
		case a.replyReady:
			log.WriteString(textStyle.Render("  " + a.lastReply))
		default:
			log.WriteString(mutedStyle.Render("  no reply yet (ctrl+r to check again)"))
		}
	}
	if a.chatErr != nil {
		log.WriteString("\n\n")
		log.WriteString(errStyle.Render(chatNotice(a.chatErr)))
	}

	title := "Financial Assistant"
	if a.session.Active() {
		title += "  · conversation " + shortID(a.session.ConversationID)
	}

	prompt := a.chatInput.View()
	if !a.chatInput.Focused() {
		prompt = mutedStyle.Render("Press Enter or i to type, Esc to leave the input.")
	}

	return components.ContentCard(title, log.String(), cw) + "\n" +
		components.ContentCard("", prompt, cw)
}

// chatNotice turns a chat failure into the inline message shown to the user.
func chatNotice(err error) string {
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		return "Assistant not configured: set BOTPRESS_TOKEN and BOTPRESS_BOT_ID or run finplan setup."
	case errors.Is(err, assistant.ErrUnauthorized):
		return "Assistant rejected the token or bot id."
	case errors.Is(err, assistant.ErrRateLimited):
		return "Assistant is rate limited; try again shortly."
	default:
		return "Assistant error: " + err.Error()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
