package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/finplan/internal/advisor"
	"github.com/theirongolddev/finplan/internal/assistant"
	"github.com/theirongolddev/finplan/internal/config"
	"github.com/theirongolddev/finplan/internal/logging"
	"github.com/theirongolddev/finplan/internal/tui"
	"github.com/theirongolddev/finplan/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	flagTUILogFile string
	flagTUITheme   string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive budget dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&flagTUILogFile, "log-file", "", "Write logs to this file (stderr belongs to the dashboard)")
	tuiCmd.Flags().StringVar(&flagTUITheme, "theme", "", "Color theme: "+fmt.Sprint(theme.Names()))
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	themeName := appCfg.Appearance.Theme
	if flagTUITheme != "" {
		themeName = flagTUITheme
	}
	theme.SetActive(themeName)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	tuiLogger := logging.Silent()
	if flagTUILogFile != "" {
		l, f, err := logging.NewFile(logLevel(), flagTUILogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		tuiLogger = l
	}
	logger = tuiLogger

	in, err := loadInput(cmd)
	if err != nil {
		return err
	}

	rates := openRates()
	defer rates.Close()

	opts := tui.Options{
		Input: in,
		Rates: rates.resolver,
		Advisors: func(ctx context.Context, backend string) (advisor.Completer, error) {
			return advisor.New(ctx, backend, appCfg, tuiLogger)
		},
		Logger: tuiLogger,
	}

	chat, err := assistant.NewClient(
		config.GetBotpressToken(appCfg),
		config.GetBotpressBotID(appCfg),
		assistant.WithBaseURL(appCfg.Botpress.BaseURL),
		assistant.WithLogger(tuiLogger),
	)
	if err == nil {
		opts.Chat = chat
	} else {
		tuiLogger.Info().Err(err).Msg("assistant chat disabled")
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
