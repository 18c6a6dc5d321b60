// Package tui provides the interactive Bubble Tea dashboard for finplan.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/finplan/internal/advisor"
	"github.com/theirongolddev/finplan/internal/assistant"
	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/input"
	"github.com/theirongolddev/finplan/internal/marketdata"
	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/projection"
	"github.com/theirongolddev/finplan/internal/tui/components"
	"github.com/theirongolddev/finplan/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// Request timeouts for the external collaborators.
const (
	ratesTimeout  = 20 * time.Second
	adviceTimeout = 30 * time.Second
	chatTimeout   = 20 * time.Second
)

// RatesLoadedMsg is sent when rate resolution finishes.
type RatesLoadedMsg struct {
	Quotes   []model.RateQuote
	LoadTime time.Duration
}

// AdviceMsg carries one advisory backend's answer or failure.
type AdviceMsg struct {
	Backend string
	Text    string
	Err     error
}

// ChatMsg carries the outcome of one chat exchange. Session is the session
// the exchange ran in, possibly newly started.
type ChatMsg struct {
	Session  *assistant.Session
	Sent     string
	Reply    string
	HasReply bool
	Err      error
}

// RateResolver resolves growth rates. *marketdata.Resolver implements it.
type RateResolver interface {
	Resolve(ctx context.Context) []model.RateQuote
	Refresh(ctx context.Context) []model.RateQuote
}

// ChatClient is the assistant conversation API. *assistant.Client
// implements it.
type ChatClient interface {
	Start(ctx context.Context, s *assistant.Session) (*assistant.Session, error)
	Send(ctx context.Context, s *assistant.Session, text string) error
	LatestReply(ctx context.Context, s *assistant.Session) (string, bool, error)
}

// AdvisorFunc builds the named advisory backend.
type AdvisorFunc func(ctx context.Context, backend string) (advisor.Completer, error)

// Options wires the dashboard to its collaborators.
type Options struct {
	Input    model.BudgetInput
	Rates    RateResolver
	Advisors AdvisorFunc
	// Chat is nil when the assistant is not configured.
	Chat     ChatClient
	Logger   zerolog.Logger
}

// adviceState is one backend's last result.
type adviceState struct {
	text    string
	err     error
	pending bool
	asked   bool
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	budget    model.BudgetInput
	quotes    []model.RateQuote
	snapshots []model.MonthlySnapshot
	summary   model.Summary
	projErr   error
	loaded    bool
	loadTime  time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Budget form (huh)
	form     *huh.Form
	formVals *input.FormValues
	formErr  error

	// One external request at a time.
	busy    bool
	spinner spinner.Model

	// Advice tab
	backend string
	advice  map[string]adviceState

	// Chat tab
	chatInput   textinput.Model
	session     *assistant.Session
	lastSent    string
	lastReply   string
	replyReady  bool
	chatPending bool
	chatErr     error
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	ti := textinput.New()
	ti.Placeholder = "Ask the assistant about your budget..."
	ti.CharLimit = 500
	ti.Width = 60

	return App{
		opts:      opts,
		budget:    opts.Input.Clone(),
		spinner:   sp,
		backend:   advisor.BackendOpenAI,
		advice:    make(map[string]adviceState),
		chatInput: ti,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		resolveRatesCmd(a.opts.Rates, false),
	)
}

// recompute projects the current input with the resolved rates. A
// precondition failure reopens the form with the error shown.
func (a *App) recompute() tea.Cmd {
	snaps, err := projection.Project(a.budget, model.RatesFromQuotes(a.quotes))
	if err != nil {
		a.projErr = err
		a.opts.Logger.Warn().Err(err).Msg("projection rejected input")
		return a.openForm()
	}
	a.projErr = nil
	a.snapshots = snaps
	a.summary = projection.Summarize(a.budget, snaps)
	a.opts.Logger.Debug().
		Int("months", len(snaps)).
		Float64("final_net_worth", a.summary.FinalNetWorth).
		Msg("projection updated")
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.form != nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				return a.switchTab(tab)
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case RatesLoadedMsg:
		a.busy = false
		a.quotes = msg.Quotes
		a.loadTime = msg.LoadTime
		a.loaded = true
		counts := marketdata.CountBySource(msg.Quotes)
		a.opts.Logger.Info().
			Int("live", counts[model.RateSourceLive]).
			Int("cached", counts[model.RateSourceCached]).
			Int("default", counts[model.RateSourceDefault]).
			Dur("took", msg.LoadTime).
			Msg("rates resolved")
		cmd := a.recompute()
		return a, cmd

	case AdviceMsg:
		a.busy = false
		a.advice[msg.Backend] = adviceState{text: msg.Text, err: msg.Err, asked: true}
		if msg.Err != nil {
			a.opts.Logger.Warn().Err(msg.Err).Str("backend", msg.Backend).Msg("advice failed")
		}
		return a, nil

	case ChatMsg:
		a.busy = false
		a.chatPending = false
		if msg.Session.Active() {
			a.session = msg.Session
		}
		a.chatErr = msg.Err
		if msg.Sent != "" {
			a.lastSent = msg.Sent
		}
		if msg.Err == nil {
			a.lastReply, a.replyReady = msg.Reply, msg.HasReply
		}
		if msg.Err != nil {
			a.opts.Logger.Warn().Err(msg.Err).Msg("chat failed")
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// Forward unhandled messages to the form (cursor blinks, etc.) and the
	// chat input.
	if a.form != nil {
		return a.updateForm(msg)
	}
	if a.activeTab == tabChat {
		var cmd tea.Cmd
		a.chatInput, cmd = a.chatInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

// Tab indexes, in components.Tabs order.
const (
	tabOverview = iota
	tabBreakdown
	tabAdvice
	tabChat
)

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}

	// The budget form intercepts all keys.
	if a.form != nil {
		if key == "esc" {
			a.form, a.formVals, a.formErr = nil, nil, nil
			return a, nil
		}
		return a.updateForm(msg)
	}

	// A focused chat input takes everything but navigation and submit.
	if a.activeTab == tabChat && a.chatInput.Focused() {
		switch key {
		case "esc":
			a.chatInput.Blur()
			return a, nil
		case "enter":
			return a.submitChat()
		case "tab":
			return a.switchTab((a.activeTab + 1) % len(components.Tabs))
		case "shift+tab":
			return a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
		}
		var cmd tea.Cmd
		a.chatInput, cmd = a.chatInput.Update(msg)
		return a, cmd
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "e":
		cmd := a.openForm()
		return a, cmd
	case "r":
		if a.busy {
			return a, nil
		}
		a.busy = true
		return a, resolveRatesCmd(a.opts.Rates, true)
	case "left", "shift+tab":
		return a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
	case "right", "tab":
		return a.switchTab((a.activeTab + 1) % len(components.Tabs))
	}

	if a.activeTab == tabAdvice {
		if i := strings.Index("123", key); i >= 0 && len(key) == 1 && i < len(advisor.Backends) {
			return a.requestAdvice(advisor.Backends[i])
		}
	}
	if a.activeTab == tabChat {
		switch key {
		case "enter", "i":
			a.chatInput.Focus()
			return a, textinput.Blink
		case "ctrl+r":
			return a.pollReply()
		}
	}

	if len(msg.Runes) == 1 {
		if tab := components.TabIdxByKey(msg.Runes[0]); tab >= 0 {
			return a.switchTab(tab)
		}
	}
	return a, nil
}

func (a App) switchTab(tab int) (tea.Model, tea.Cmd) {
	a.activeTab = tab
	if tab == tabChat {
		a.chatInput.Focus()
		return a, textinput.Blink
	}
	a.chatInput.Blur()
	return a, nil
}

func (a App) requestAdvice(backend string) (tea.Model, tea.Cmd) {
	a.backend = backend
	if a.busy || a.projErr != nil {
		return a, nil
	}
	a.busy = true
	st := a.advice[backend]
	st.pending = true
	a.advice[backend] = st
	a.opts.Logger.Debug().Str("backend", backend).Msg("requesting advice")
	return a, adviceCmd(a.opts.Advisors, backend, a.summary)
}

func (a App) submitChat() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.chatInput.Value())
	if a.busy || text == "" {
		return a, nil
	}
	if a.opts.Chat == nil {
		a.chatErr = assistant.ErrNotConfigured
		return a, nil
	}
	a.busy = true
	a.chatPending = true
	a.chatErr = nil
	a.lastSent = text
	a.chatInput.Reset()
	return a, chatCmd(a.opts.Chat, a.session, text)
}

func (a App) pollReply() (tea.Model, tea.Cmd) {
	if a.busy || a.opts.Chat == nil || !a.session.Active() {
		return a, nil
	}
	a.busy = true
	a.chatPending = true
	return a, replyCmd(a.opts.Chat, a.session)
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.form != nil {
		return a.viewForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  finplan needs at least %d columns.\n  Current width: %d\n",
		a.width,
		minTerminalWidth,
		a.width,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	spinnerStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ finplan"))
	b.WriteString(subtitleStyle.Render(" · Budget Projection"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Resolving growth rates..."))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o b a c", "Jump to tab"},
			{"← → Tab", "Previous / Next tab"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"e", "Edit budget"},
			{"r", "Refresh market rates"},
			{"1 2 3", "Advice from OpenAI / OpenRouter / Gemini"},
			{"Enter", "Send chat message"},
			{"^r", "Check for assistant reply"},
			{"Esc", "Leave chat input"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + scenario pill
	pillStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	pillAccent := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	pill := pillStyle.Render(" ") +
		pillAccent.Render(cli.FormatMonths(a.budget.HorizonMonths)) +
		pillStyle.Render(" │ target ") +
		pillAccent.Render(cli.FormatMoneyShort(a.budget.SavingsTarget)) +
		pillStyle.Render(" │ tax ") +
		pillAccent.Render(cli.FormatPercent(a.budget.TaxRate)) +
		pillStyle.Render(" ")

	pillRow := lipgloss.NewStyle().
		Background(t.Surface).
		Width(w)

	header := components.RenderTabBar(a.activeTab, w) + "\n" + pillRow.Render(pill)

	// 2. Status bar
	activity := ""
	if a.busy {
		activity = a.spinner.View() + " working"
	}
	info := fmt.Sprintf("rates %.1fs", a.loadTime.Seconds())
	if a.projErr == nil && a.budget.SavingsTarget > 0 {
		info = components.CompactTargetBar("target", a.summary.FinalNetWorth, a.budget.SavingsTarget, 24) + "  " + info
	}
	statusBar := components.RenderStatusBar(w, activity, info)

	// 3. Content zone height
	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := h - headerH - statusH
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabBreakdown:
		content = a.renderBreakdownTab(cw)
	case tabAdvice:
		content = a.renderAdviceTab(cw)
	case tabChat:
		content = a.renderChatTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines
	content = padHeight(truncateHeight(content, contentH), contentH)

	// 6. Fill each line to full width with background
	content = fillLinesWithBackground(content, cw, t.Background)

	// 7. Center when w > cw
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

// resolveRatesCmd resolves rates; refresh bypasses cached entries.
func resolveRatesCmd(r RateResolver, refresh bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		if r == nil {
			return RatesLoadedMsg{LoadTime: time.Since(start)}
		}
		ctx, cancel := context.WithTimeout(context.Background(), ratesTimeout)
		defer cancel()

		var quotes []model.RateQuote
		if refresh {
			quotes = r.Refresh(ctx)
		} else {
			quotes = r.Resolve(ctx)
		}
		return RatesLoadedMsg{Quotes: quotes, LoadTime: time.Since(start)}
	}
}

func adviceCmd(build AdvisorFunc, backend string, s model.Summary) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), adviceTimeout)
		defer cancel()

		if build == nil {
			return AdviceMsg{Backend: backend, Err: &advisor.Error{Backend: backend, Err: advisor.ErrUnknownBackend}}
		}
		c, err := build(ctx, backend)
		if err != nil {
			return AdviceMsg{Backend: backend, Err: err}
		}
		text, err := advisor.Advise(ctx, c, s)
		return AdviceMsg{Backend: backend, Text: text, Err: err}
	}
}

// chatCmd starts the conversation if needed, sends text and reads the
// latest reply.
func chatCmd(c ChatClient, s *assistant.Session, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
		defer cancel()

		active, err := c.Start(ctx, s)
		if err != nil {
			return ChatMsg{Sent: text, Err: err}
		}
		if err := c.Send(ctx, active, text); err != nil {
			return ChatMsg{Session: active, Sent: text, Err: err}
		}
		reply, ok, err := c.LatestReply(ctx, active)
		return ChatMsg{Session: active, Sent: text, Reply: reply, HasReply: ok, Err: err}
	}
}

func replyCmd(c ChatClient, s *assistant.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
		defer cancel()

		reply, ok, err := c.LatestReply(ctx, s)
		return ChatMsg{Session: s, Reply: reply, HasReply: ok, Err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)

		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
