package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/theirongolddev/finplan/internal/advisor"
	"github.com/theirongolddev/finplan/internal/cli"

	"github.com/spf13/cobra"
)

var flagBackend string

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Ask an AI backend for suggestions on the projected budget",
	Long: "Project the budget, then send the headline figures to one advisory backend.\n" +
		"Only totals and rates leave the machine.",
	RunE: runAdvise,
}

func init() {
	adviseCmd.Flags().StringVarP(&flagBackend, "backend", "b", advisor.BackendOpenAI,
		"Advisory backend: "+strings.Join(advisor.Backends, ", "))
	addProjectFlags(adviseCmd)
	rootCmd.AddCommand(adviseCmd)
}

func runAdvise(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := runProjection(ctx, cmd)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.SummaryTable(p.summary)))

	c, err := advisor.New(ctx, flagBackend, appCfg, logger)
	if err != nil {
		if errors.Is(err, advisor.ErrUnknownBackend) {
			return err
		}
		fmt.Println(cli.RenderNote(err.Error()))
		return nil
	}

	progress("Asking %s...", c.Name())
	text, err := advisor.Advise(ctx, c, p.summary)
	if err != nil {
		// The projection above still stands; advice is optional.
		fmt.Println(cli.RenderNote(err.Error()))
		return nil
	}

	fmt.Println(cli.RenderTitle("AI SUGGESTIONS  " + c.Name()))
	fmt.Println()
	if strings.TrimSpace(text) == "" {
		fmt.Println(cli.RenderMuted("  Nothing to show: the backend returned no advice."))
		return nil
	}
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		fmt.Println("  " + line)
	}
	fmt.Println()
	return nil
}
