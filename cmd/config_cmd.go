// Package cmd implements the finplan CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/config"
	"github.com/theirongolddev/finplan/internal/model"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Cache dir:   %s\n", config.CacheDir())
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Horizon:        %s\n", cli.FormatMonths(cfg.General.HorizonMonths))
	fmt.Printf("    Savings target: %s\n", cli.FormatMoney(cfg.General.SavingsTarget))
	fmt.Printf("    Log level:      %s\n", cfg.General.LogLevel)
	fmt.Println()

	fmt.Println("  [Rates]")
	fmt.Printf("    Cache TTL: %s\n", config.CacheTTL(cfg))
	for _, a := range model.AssetClasses {
		sym := config.LookupSymbol(cfg, a)
		if sym == "" {
			sym = "-"
		}
		fmt.Printf("    %-14s %-6s default %s\n",
			cli.CategoryLabel(string(a)), sym, cli.FormatRate(config.LookupDefaultRate(cfg, a)))
	}
	fmt.Println()

	fmt.Println("  [Alpha Vantage]")
	fmt.Printf("    API key:  %s\n", config.MaskSecret(config.GetAlphaVantageKey(cfg)))
	fmt.Printf("    Base URL: %s\n", cfg.AlphaVantage.BaseURL)
	fmt.Println()

	fmt.Println("  [OpenAI]")
	fmt.Printf("    API key: %s\n", config.MaskSecret(config.GetOpenAIKey(cfg)))
	fmt.Printf("    Model:   %s (temperature %.1f)\n", cfg.OpenAI.Model, cfg.OpenAI.Temperature)
	fmt.Println()

	fmt.Println("  [OpenRouter]")
	fmt.Printf("    API key: %s\n", config.MaskSecret(config.GetOpenRouterKey(cfg)))
	fmt.Printf("    Model:   %s\n", cfg.OpenRouter.Model)
	fmt.Println()

	fmt.Println("  [Gemini]")
	fmt.Printf("    API key: %s\n", config.MaskSecret(config.GetGeminiKey(cfg)))
	fmt.Printf("    Model:   %s\n", cfg.Gemini.Model)
	fmt.Println()

	fmt.Println("  [Botpress]")
	fmt.Printf("    Token:  %s\n", config.MaskSecret(config.GetBotpressToken(cfg)))
	botID := config.GetBotpressBotID(cfg)
	if botID == "" {
		botID = "(not set)"
	}
	fmt.Printf("    Bot id: %s\n", botID)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Schedule: %s\n", cfg.Daemon.RefreshCron)
	fmt.Println()

	fmt.Println("  Run `finplan setup` to reconfigure.")
	return nil
}
