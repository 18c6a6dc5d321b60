package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/theirongolddev/finplan/internal/advisor"
	"github.com/theirongolddev/finplan/internal/assistant"
	"github.com/theirongolddev/finplan/internal/input"
	"github.com/theirongolddev/finplan/internal/model"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

type fakeRates struct {
	resolves, refreshes int
}

func (f *fakeRates) quotes() []model.RateQuote {
	return []model.RateQuote{
		{Asset: model.AssetStocks, Symbol: "SPY", Rate: 0.01, Source: model.RateSourceLive},
		{Asset: model.AssetBonds, Symbol: "AGG", Rate: 0.003, Source: model.RateSourceDefault},
		{Asset: model.AssetRealEstate, Rate: 0.004, Source: model.RateSourcePolicy},
		{Asset: model.AssetCrypto, Rate: 0.02, Source: model.RateSourcePolicy},
		{Asset: model.AssetFixedDeposit, Rate: 0.003, Source: model.RateSourcePolicy},
	}
}

func (f *fakeRates) Resolve(context.Context) []model.RateQuote {
	f.resolves++
	return f.quotes()
}

func (f *fakeRates) Refresh(context.Context) []model.RateQuote {
	f.refreshes++
	return f.quotes()
}

type fakeCompleter struct {
	name, text string
	err        error
}

func (f fakeCompleter) Complete(context.Context, string) (string, error) { return f.text, f.err }
func (f fakeCompleter) Name() string                                    { return f.name }

type fakeChat struct {
	starts, sends int
	reply         string
}

func (f *fakeChat) Start(_ context.Context, s *assistant.Session) (*assistant.Session, error) {
	if s.Active() {
		return s, nil
	}
	f.starts++
	return &assistant.Session{ID: "local", ConversationID: "conv-12345678"}, nil
}

func (f *fakeChat) Send(_ context.Context, s *assistant.Session, text string) error {
	if !s.Active() {
		return assistant.ErrNoSession
	}
	f.sends++
	return nil
}

func (f *fakeChat) LatestReply(context.Context, *assistant.Session) (string, bool, error) {
	if f.reply == "" {
		return "", false, nil
	}
	return f.reply, true, nil
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return next, cmd
}

// loadedApp returns an App that has resolved rates and projected the
// default budget.
func loadedApp(t *testing.T, opts Options) App {
	t.Helper()
	if opts.Rates == nil {
		opts.Rates = &fakeRates{}
	}
	if opts.Input.HorizonMonths == 0 && opts.Input.Expenses == nil {
		opts.Input = input.Default()
	}
	opts.Logger = zerolog.Nop()

	a := NewApp(opts)
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 130, Height: 45})
	msg := resolveRatesCmd(opts.Rates, false)()
	a, _ = update(t, a, msg)
	return a
}

func TestRatesLoadedProjectsBudget(t *testing.T) {
	rates := &fakeRates{}
	a := loadedApp(t, Options{Rates: rates})

	if !a.loaded {
		t.Fatal("app should be loaded after RatesLoadedMsg")
	}
	if rates.resolves != 1 || rates.refreshes != 0 {
		t.Errorf("resolves=%d refreshes=%d, want 1/0", rates.resolves, rates.refreshes)
	}
	if len(a.snapshots) != 12 {
		t.Fatalf("snapshots = %d, want 12", len(a.snapshots))
	}
	if a.summary.AfterTaxIncome != 4000 {
		t.Errorf("after-tax income = %v, want 4000", a.summary.AfterTaxIncome)
	}
	if a.summary.NetCashFlow != 600 {
		t.Errorf("net cash flow = %v, want 600", a.summary.NetCashFlow)
	}
	if a.form != nil {
		t.Error("valid input should not open the form")
	}
}

func TestRefreshKeyBypassesCache(t *testing.T) {
	rates := &fakeRates{}
	a := loadedApp(t, Options{Rates: rates})

	a, cmd := update(t, a, keyRunes("r"))
	if cmd == nil || !a.busy {
		t.Fatal("r should start a refresh")
	}
	if _, again := update(t, a, keyRunes("r")); again != nil {
		t.Error("second r while busy should be ignored")
	}

	a, _ = update(t, a, cmd())
	if rates.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", rates.refreshes)
	}
	if a.busy {
		t.Error("busy should clear after the refresh lands")
	}
}

func TestInvalidInputOpensForm(t *testing.T) {
	in := input.Default()
	in.HorizonMonths = 0
	a := loadedApp(t, Options{Input: in})

	if a.projErr == nil {
		t.Fatal("projErr should be set for a zero horizon")
	}
	if a.form == nil {
		t.Fatal("form should reopen on a precondition failure")
	}
	if !strings.Contains(a.View(), "Edit budget") {
		t.Error("view should show the budget form")
	}
}

func TestEditKeyOpensAndEscCloses(t *testing.T) {
	a := loadedApp(t, Options{})

	a, cmd := update(t, a, keyRunes("e"))
	if a.form == nil || a.formVals == nil {
		t.Fatal("e should open the budget form")
	}
	if cmd == nil {
		t.Error("opening the form should return its init command")
	}

	a, _ = update(t, a, keyEsc)
	if a.form != nil {
		t.Error("esc should close the form")
	}
}

func TestAdviceOneRequestAtATime(t *testing.T) {
	var built []string
	a := loadedApp(t, Options{
		Advisors: func(_ context.Context, backend string) (advisor.Completer, error) {
			built = append(built, backend)
			return fakeCompleter{name: backend, text: "  Spend less on food.  "}, nil
		},
	})
	a, _ = update(t, a, keyRunes("a"))
	if a.activeTab != tabAdvice {
		t.Fatalf("activeTab = %d, want advice", a.activeTab)
	}

	a, cmd := update(t, a, keyRunes("1"))
	if cmd == nil || !a.busy {
		t.Fatal("1 should request OpenAI advice")
	}
	if !a.advice[advisor.BackendOpenAI].pending {
		t.Error("OpenAI should be pending")
	}

	a, second := update(t, a, keyRunes("2"))
	if second != nil {
		t.Error("a second request while busy should be ignored")
	}
	if a.advice[advisor.BackendOpenRouter].pending {
		t.Error("OpenRouter should not be pending")
	}

	a, _ = update(t, a, cmd())
	if a.busy {
		t.Error("busy should clear when advice arrives")
	}
	st := a.advice[advisor.BackendOpenAI]
	if st.text != "Spend less on food." || st.err != nil {
		t.Errorf("advice = %q, %v", st.text, st.err)
	}
	if len(built) != 1 || built[0] != advisor.BackendOpenAI {
		t.Errorf("built backends = %v, want [openai]", built)
	}

	a.backend = advisor.BackendOpenAI
	if !strings.Contains(a.View(), "Spend less on food.") {
		t.Error("advice panel should show the advice text")
	}
}

func TestAdviceFailureIsInlineNotice(t *testing.T) {
	a := loadedApp(t, Options{
		Advisors: func(_ context.Context, backend string) (advisor.Completer, error) {
			return fakeCompleter{name: backend, err: advisor.ErrUnauthorized}, nil
		},
	})
	a, _ = update(t, a, keyRunes("a"))
	a, cmd := update(t, a, keyRunes("3"))
	a, _ = update(t, a, cmd())

	st := a.advice[advisor.BackendGemini]
	var advErr *advisor.Error
	if !errors.As(st.err, &advErr) || advErr.Backend != advisor.BackendGemini {
		t.Fatalf("err = %v, want *advisor.Error for gemini", st.err)
	}
	if st.status() != "failed" {
		t.Errorf("status = %q, want failed", st.status())
	}
	if !strings.Contains(a.View(), "advice unavailable") {
		t.Error("view should show the failure inline")
	}
}

func TestAdviceEmptyIsNothingToShow(t *testing.T) {
	a := loadedApp(t, Options{
		Advisors: func(_ context.Context, backend string) (advisor.Completer, error) {
			return fakeCompleter{name: backend}, nil
		},
	})
	a, _ = update(t, a, keyRunes("a"))
	a, cmd := update(t, a, keyRunes("2"))
	a, _ = update(t, a, cmd())

	if got := a.advice[advisor.BackendOpenRouter].status(); got != "no advice" {
		t.Errorf("status = %q, want no advice", got)
	}
	if !strings.Contains(a.View(), "returned no advice") {
		t.Error("view should show the empty notice")
	}
}

func TestChatStartsSessionOnce(t *testing.T) {
	chat := &fakeChat{reply: "Cut dining out."}
	a := loadedApp(t, Options{Chat: chat})

	a, _ = update(t, a, keyRunes("c"))
	if a.activeTab != tabChat || !a.chatInput.Focused() {
		t.Fatal("c should open the chat tab with the input focused")
	}

	send := func(text string) App {
		t.Helper()
		a.chatInput.SetValue(text)
		next, cmd := update(t, a, keyEnter)
		if cmd == nil {
			t.Fatalf("enter with %q should send", text)
		}
		next, _ = update(t, next, cmd())
		return next
	}

	a = send("How do I save more?")
	a = send("And invest?")

	if chat.starts != 1 {
		t.Errorf("starts = %d, want 1", chat.starts)
	}
	if chat.sends != 2 {
		t.Errorf("sends = %d, want 2", chat.sends)
	}
	if !a.session.Active() {
		t.Fatal("session should be active")
	}
	if a.lastSent != "And invest?" || a.lastReply != "Cut dining out." || !a.replyReady {
		t.Errorf("log = %q / %q (ready=%v)", a.lastSent, a.lastReply, a.replyReady)
	}
	view := a.View()
	for _, want := range []string{"And invest?", "Cut dining out."} {
		if !strings.Contains(view, want) {
			t.Errorf("chat view missing %q", want)
		}
	}
}

func TestChatNoReplyYet(t *testing.T) {
	a := loadedApp(t, Options{Chat: &fakeChat{}})
	a, _ = update(t, a, keyRunes("c"))
	a.chatInput.SetValue("hello")
	a, cmd := update(t, a, keyEnter)
	a, _ = update(t, a, cmd())

	if a.replyReady {
		t.Error("no reply should be ready")
	}
	if !strings.Contains(a.View(), "no reply yet") {
		t.Error("view should say no reply yet")
	}
}

func TestChatNotConfigured(t *testing.T) {
	a := loadedApp(t, Options{})
	a, _ = update(t, a, keyRunes("c"))
	a.chatInput.SetValue("hello")

	a, cmd := update(t, a, keyEnter)
	if cmd != nil {
		t.Error("nothing should be sent without a chat client")
	}
	if !errors.Is(a.chatErr, assistant.ErrNotConfigured) {
		t.Errorf("chatErr = %v, want ErrNotConfigured", a.chatErr)
	}
	if !strings.Contains(a.View(), "Assistant not configured") {
		t.Error("view should show the configuration notice")
	}
}

func TestChatBlankMessageIgnored(t *testing.T) {
	chat := &fakeChat{}
	a := loadedApp(t, Options{Chat: chat})
	a, _ = update(t, a, keyRunes("c"))
	a.chatInput.SetValue("   ")

	if _, cmd := update(t, a, keyEnter); cmd != nil {
		t.Error("blank message should not be sent")
	}
	if chat.starts != 0 {
		t.Error("blank message should not start a conversation")
	}
}

func TestFocusedChatInputTakesLetters(t *testing.T) {
	a := loadedApp(t, Options{})
	a, _ = update(t, a, keyRunes("c"))

	a, cmd := update(t, a, keyRunes("q"))
	if a.chatInput.Value() != "q" {
		t.Errorf("input = %q, want q", a.chatInput.Value())
	}
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Error("q in the chat input should not quit")
		}
	}

	a, _ = update(t, a, keyEsc)
	if a.chatInput.Focused() {
		t.Error("esc should blur the input")
	}
	a, _ = update(t, a, keyRunes("o"))
	if a.activeTab != tabOverview {
		t.Errorf("activeTab = %d, want overview", a.activeTab)
	}
}

func TestViewStates(t *testing.T) {
	a := NewApp(Options{Input: input.Default(), Logger: zerolog.Nop()})
	if a.View() != "" {
		t.Error("view before the first WindowSizeMsg should be empty")
	}

	a, _ = update(t, a, tea.WindowSizeMsg{Width: 70, Height: 30})
	if !strings.Contains(a.View(), "Terminal too narrow") {
		t.Error("narrow terminal should show the too-narrow view")
	}

	a, _ = update(t, a, tea.WindowSizeMsg{Width: 130, Height: 45})
	if !strings.Contains(a.View(), "Resolving growth rates") {
		t.Error("unloaded app should show the loading view")
	}

	loaded := loadedApp(t, Options{})
	for _, width := range []int{100, 130} {
		loaded, _ = update(t, loaded, tea.WindowSizeMsg{Width: width, Height: 60})
		view := loaded.View()
		for _, want := range []string{"Overview", "Net Worth Growth", "Savings Target", "Growth Rates", "market data unavailable"} {
			if !strings.Contains(view, want) {
				t.Errorf("width %d: overview missing %q", width, want)
			}
		}
		if got := len(strings.Split(view, "\n")); got != 60 {
			t.Errorf("width %d: view has %d lines, want 60", width, got)
		}
	}

	loaded, _ = update(t, loaded, keyRunes("b"))
	view := loaded.View()
	for _, want := range []string{"Expense Breakdown", "Investment Breakdown", "Projected Holdings"} {
		if !strings.Contains(view, want) {
			t.Errorf("breakdown missing %q", want)
		}
	}

	loaded, _ = update(t, loaded, keyRunes("?"))
	if !strings.Contains(loaded.View(), "Keyboard Shortcuts") {
		t.Error("? should show help")
	}
}
