package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/theirongolddev/finplan/internal/chart"
	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/input"
	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/projection"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagChartDir    string
	flagInteractive bool
	flagMonthly     bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project the budget and print the summary",
	RunE:  runProject,
}

func init() {
	addProjectFlags(projectCmd)
	rootCmd.AddCommand(projectCmd)
}

// addProjectFlags registers the project flags on cmd. The root command
// shares them since it runs a projection by default.
func addProjectFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagChartDir, "chart", "", "Write PNG charts into this directory")
	cmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Enter the budget in an interactive form")
	cmd.Flags().BoolVar(&flagMonthly, "monthly", true, "Print the month-by-month table")
}

// projected bundles everything a command needs after projecting.
type projected struct {
	input     model.BudgetInput
	quotes    []model.RateQuote
	snapshots []model.MonthlySnapshot
	summary   model.Summary
}

// runProjection collects the budget, resolves rates and projects.
func runProjection(ctx context.Context, cmd *cobra.Command) (*projected, error) {
	in, err := loadInput(cmd)
	if err != nil {
		return nil, err
	}

	if flagInteractive {
		in, err = collectInteractive(in)
		if err != nil {
			return nil, err
		}
	}

	// Bad input fails before any network lookups.
	if err := in.Validate(); err != nil {
		return nil, err
	}

	rates := openRates()
	defer rates.Close()

	progress("Resolving growth rates...")
	quotes := rates.resolver.Resolve(ctx)

	snaps, err := projection.Project(in, model.RatesFromQuotes(quotes))
	if err != nil {
		return nil, err
	}

	return &projected{
		input:     in,
		quotes:    quotes,
		snapshots: snaps,
		summary:   projection.Summarize(in, snaps),
	}, nil
}

// collectInteractive runs the budget form until it yields a valid input.
func collectInteractive(in model.BudgetInput) (model.BudgetInput, error) {
	vals := input.NewFormValues(in)
	for {
		if err := input.NewForm(vals).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return in, errors.New("input cancelled")
			}
			return in, fmt.Errorf("running form: %w", err)
		}
		out, err := vals.Input()
		if err == nil {
			return out, nil
		}
		fmt.Fprintln(os.Stderr, cli.RenderNote(err.Error()))
	}
}

func runProject(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := runProjection(ctx, cmd)
	if err != nil {
		return err
	}

	s := p.summary
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET PROJECTION  %s", cli.FormatMonths(s.HorizonMonths))))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.SummaryTable(s)))
	fmt.Print(cli.RenderTable(cli.RatesTable(p.quotes)))
	for _, note := range cli.FallbackNotes(p.quotes) {
		fmt.Println(cli.RenderNote(note))
	}

	fmt.Print(cli.RenderTable(cli.ExpenseBreakdown(p.input)))
	fmt.Print(cli.RenderTable(cli.InvestmentBreakdown(p.input)))
	if flagMonthly {
		fmt.Print(cli.RenderTable(cli.MonthlyTable(p.snapshots)))
	}

	fmt.Printf("  Net worth  %s  %s\n",
		cli.RenderSparkline(projection.NetWorthSeries(p.snapshots)),
		cli.RenderMoney(s.FinalNetWorth))
	fmt.Printf("  Target     %s\n", cli.RenderProgressBar(s.FinalNetWorth, s.SavingsTarget, 30))
	fmt.Println()

	if flagChartDir != "" {
		written, err := chart.Export(flagChartDir, p.input, p.snapshots)
		for _, path := range written {
			progress("Wrote %s", path)
		}
		if err != nil {
			return err
		}
	}

	return nil
}
