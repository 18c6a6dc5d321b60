package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/finplan/internal/config"
	"github.com/theirongolddev/finplan/internal/input"
	"github.com/theirongolddev/finplan/internal/logging"
	"github.com/theirongolddev/finplan/internal/marketdata"
	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/store"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagScenario string
	flagOffline  bool
	flagNoCache  bool
	flagLogLevel string
	flagQuiet    bool

	flagIncome float64
	flagTax    float64
	flagMonths int
	flagTarget float64
)

// Loaded once per invocation by PersistentPreRunE.
var (
	appCfg config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "finplan",
	Short: "Personal budget projection CLI",
	Long: "Project a monthly budget forward: after-tax cash flow, compounding investments\n" +
		"and progress toward a savings target, with optional AI suggestions.",
	PersistentPreRunE: setupCommand,
	RunE:              runProject,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/finplan/config.toml)")
	pf.StringVarP(&flagScenario, "scenario", "s", "", "YAML scenario file with the budget inputs")
	pf.BoolVar(&flagOffline, "offline", false, "Skip live rate lookups, use cache and defaults")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite rate cache")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")

	pf.Float64Var(&flagIncome, "income", 0, "Monthly gross income")
	pf.Float64Var(&flagTax, "tax", 0, "Tax rate in percent (0-100)")
	pf.IntVarP(&flagMonths, "months", "m", 0, "Projection horizon in months")
	pf.Float64Var(&flagTarget, "target", 0, "Savings target")

	addProjectFlags(rootCmd)
}

func setupCommand(cmd *cobra.Command, _ []string) error {
	config.SetPath(flagConfig)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appCfg = cfg

	logger = logging.NewConsole(logLevel(), os.Stderr).With().Str("cmd", cmd.Name()).Logger()
	return nil
}

// logLevel resolves the level from --quiet, --log-level and the config file.
func logLevel() string {
	switch {
	case flagQuiet:
		return "error"
	case flagLogLevel != "":
		return flagLogLevel
	default:
		return appCfg.General.LogLevel
	}
}

// progress prints a status line to stderr unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}

// loadInput builds the budget from config defaults, the scenario file and
// any explicitly set override flags, in that order.
func loadInput(cmd *cobra.Command) (model.BudgetInput, error) {
	in := input.FromConfig(appCfg)

	if flagScenario != "" {
		var err error
		in, err = input.LoadScenario(flagScenario, in)
		if err != nil {
			return in, err
		}
	}

	var ov input.Overrides
	flags := cmd.Flags()
	if flags.Changed("income") {
		ov.Income = &flagIncome
	}
	if flags.Changed("tax") {
		ov.TaxPercent = &flagTax
	}
	if flags.Changed("months") {
		ov.Months = &flagMonths
	}
	if flags.Changed("target") {
		ov.Target = &flagTarget
	}
	return ov.Apply(in), nil
}

// rateStack is a resolver plus the cache behind it, if one could be opened.
type rateStack struct {
	resolver *marketdata.Resolver
	cache    *store.Cache
}

func (r *rateStack) Close() {
	if r.cache != nil {
		_ = r.cache.Close()
	}
}

// openRates wires the Alpha Vantage provider to the rate cache. A cache
// that fails to open is logged and skipped.
func openRates() *rateStack {
	rs := &rateStack{}

	if !flagNoCache {
		cache, err := store.Open(store.DefaultPath(config.CacheDir()))
		if err != nil {
			logger.Warn().Err(err).Msg("rate cache unavailable, continuing without it")
			progress("Cache unavailable, looking rates up directly")
		} else {
			rs.cache = cache
		}
	}

	provider := marketdata.NewAlphaVantage(config.GetAlphaVantageKey(appCfg),
		marketdata.WithBaseURL(appCfg.AlphaVantage.BaseURL),
		marketdata.WithLogger(logger),
	)

	rc := marketdata.ResolverConfig{
		Defaults: make(map[model.AssetClass]float64, len(model.AssetClasses)),
		Symbols:  make(map[model.AssetClass]string, len(model.AssetClasses)),
		CacheTTL: config.CacheTTL(appCfg),
		Offline:  flagOffline,
		Logger:   logger,
	}
	for _, a := range model.AssetClasses {
		rc.Defaults[a] = config.LookupDefaultRate(appCfg, a)
		if sym := config.LookupSymbol(appCfg, a); sym != "" {
			rc.Symbols[a] = sym
		}
	}
	// Assigning a nil *store.Cache would make a non-nil interface.
	if rs.cache != nil {
		rc.Cache = rs.cache
	}

	rs.resolver = marketdata.NewResolver(provider, rc)
	return rs
}
