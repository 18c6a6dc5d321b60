package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/marketdata"
	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagRatesRefresh bool
	flagRatesCached  bool
	flagRatesPurge   time.Duration
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show resolved growth rates and where they came from",
	RunE:  runRates,
}

func init() {
	ratesCmd.Flags().BoolVar(&flagRatesRefresh, "refresh", false, "Bypass the cache and look every rate up again")
	ratesCmd.Flags().BoolVar(&flagRatesCached, "cached", false, "List the cache contents instead of resolving")
	ratesCmd.Flags().DurationVar(&flagRatesPurge, "purge", 0, "Delete cache entries older than this (e.g. 720h)")
	rootCmd.AddCommand(ratesCmd)
}

func runRates(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rates := openRates()
	defer rates.Close()

	if flagRatesPurge > 0 {
		if rates.cache == nil {
			return errors.New("purge needs the rate cache")
		}
		n, err := rates.cache.PurgeOlderThan(time.Now().Add(-flagRatesPurge))
		if err != nil {
			return err
		}
		progress("Purged %d cached rates", n)
	}

	if flagRatesCached {
		return printCachedRates(rates.cache)
	}

	start := time.Now()
	var quotes []model.RateQuote
	if flagRatesRefresh {
		progress("Refreshing growth rates...")
		quotes = rates.resolver.Refresh(ctx)
		recordRefresh(rates.cache, start, quotes)
	} else {
		progress("Resolving growth rates...")
		quotes = rates.resolver.Resolve(ctx)
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.RatesTable(quotes)))
	for _, note := range cli.FallbackNotes(quotes) {
		fmt.Println(cli.RenderNote(note))
	}

	counts := marketdata.CountBySource(quotes)
	fmt.Println(cli.RenderMuted(fmt.Sprintf("  %d live · %d cached · %d default · %d policy  (%s)",
		counts[model.RateSourceLive], counts[model.RateSourceCached],
		counts[model.RateSourceDefault], counts[model.RateSourcePolicy],
		time.Since(start).Round(time.Millisecond))))

	if rates.cache != nil {
		if run, ok, err := rates.cache.LastRefresh(); err == nil && ok {
			fmt.Println(cli.RenderMuted("  Last refresh: " + run.StartedAt.Local().Format(time.RFC1123)))
		}
	}
	fmt.Println()
	return nil
}

func recordRefresh(cache *store.Cache, start time.Time, quotes []model.RateQuote) {
	if cache == nil {
		return
	}
	counts := marketdata.CountBySource(quotes)
	run := store.RefreshRun{
		StartedAt:      start,
		LiveQuotes:     counts[model.RateSourceLive],
		FallbackQuotes: counts[model.RateSourceDefault],
	}
	if err := cache.RecordRefresh(run); err != nil {
		logger.Warn().Err(err).Msg("recording refresh")
	}
}

func printCachedRates(cache *store.Cache) error {
	if cache == nil {
		return errors.New("rate cache disabled or unavailable")
	}
	entries, err := cache.AllRates()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("\n  No cached rates. Run `finplan rates` online first.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Symbol,
			cli.FormatRate(e.MonthlyReturn),
			fmt.Sprintf("%.2f", e.PreviousClose),
			fmt.Sprintf("%.2f", e.LatestClose),
			e.ObservedOn,
			e.FetchedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Cached Rates",
		Headers: []string{"Symbol", "Monthly", "Prev Close", "Close", "Observed", "Fetched"},
		Rows:    rows,
	}))
	return nil
}
