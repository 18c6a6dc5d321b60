package cmd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/config"
	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues holds the wizard's text fields. Blank secret fields keep the
// stored value.
type setupValues struct {
	alphaVantageKey string
	openAIKey       string
	openRouterKey   string
	geminiKey       string
	botpressToken   string
	botpressBotID   string

	horizon string
	target  string
	theme   string
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	v := setupValues{
		botpressBotID: cfg.Botpress.BotID,
		horizon:       strconv.Itoa(cfg.General.HorizonMonths),
		target:        strconv.FormatFloat(cfg.General.SavingsTarget, 'f', -1, 64),
		theme:         cfg.Appearance.Theme,
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.Names()))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(cli.CategoryLabel(strings.ReplaceAll(name, "-", "_")), name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to finplan").
				Description("Keys are optional. Without them rates fall back to defaults\n"+
					"and the advice and chat features stay off.\n"+
					"Leave a key blank to keep the current value."),
			secretInput("Alpha Vantage API key", "growth rates", cfg.AlphaVantage.APIKey, &v.alphaVantageKey),
			secretInput("OpenAI API key", "advice", cfg.OpenAI.APIKey, &v.openAIKey),
			secretInput("OpenRouter API key", "advice", cfg.OpenRouter.APIKey, &v.openRouterKey),
			secretInput("Gemini API key", "advice", cfg.Gemini.APIKey, &v.geminiKey),
		),
		huh.NewGroup(
			secretInput("Botpress token", "assistant chat", cfg.Botpress.Token, &v.botpressToken),
			huh.NewInput().
				Title("Botpress bot id").
				Value(&v.botpressBotID),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Default horizon (months)").
				Description(fmt.Sprintf("1 to %d", model.MaxHorizonMonths)).
				Value(&v.horizon).
				Validate(validateHorizon),
			huh.NewInput().
				Title("Default savings target").
				Value(&v.target).
				Validate(validateTarget),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.theme),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("running setup: %w", err)
	}

	keep := func(dst *string, val string) {
		if val = strings.TrimSpace(val); val != "" {
			*dst = val
		}
	}
	keep(&cfg.AlphaVantage.APIKey, v.alphaVantageKey)
	keep(&cfg.OpenAI.APIKey, v.openAIKey)
	keep(&cfg.OpenRouter.APIKey, v.openRouterKey)
	keep(&cfg.Gemini.APIKey, v.geminiKey)
	keep(&cfg.Botpress.Token, v.botpressToken)
	cfg.Botpress.BotID = strings.TrimSpace(v.botpressBotID)
	horizon, err := parseHorizon(v.horizon)
	if err != nil {
		return fmt.Errorf("setup: horizon: %w", err)
	}
	target, err := parseTarget(v.target)
	if err != nil {
		return fmt.Errorf("setup: savings target: %w", err)
	}
	cfg.General.HorizonMonths = horizon
	cfg.General.SavingsTarget = target
	cfg.Appearance.Theme = v.theme

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `finplan setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func secretInput(title, purpose, current string, dst *string) *huh.Input {
	desc := "For " + purpose + "."
	if current != "" {
		desc += " Current: " + config.MaskSecret(current)
	}
	return huh.NewInput().
		Title(title).
		Description(desc).
		EchoMode(huh.EchoModePassword).
		Value(dst)
}

var (
	errSetupHorizon = fmt.Errorf("enter a whole number of months from 1 to %d", model.MaxHorizonMonths)
	errSetupTarget  = errors.New("enter an amount of 0 or more")
)

func parseHorizon(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > model.MaxHorizonMonths {
		return 0, errSetupHorizon
	}
	return n, nil
}

func parseTarget(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, errSetupTarget
	}
	return f, nil
}

func validateHorizon(s string) error {
	_, err := parseHorizon(s)
	return err
}

func validateTarget(s string) error {
	_, err := parseTarget(s)
	return err
}
