package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"carrental/engine"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run policy iteration and store the policy and value tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := engine.Run(ctx, cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		log.Info().Msgf("run %s converged after %d iterations, results in %s",
			report.RunID, report.Result.Iterations, report.Dir)
		return nil
	},
}

func init() {
	flags := solveCmd.Flags()
	flags.Int("max-cars", 0, "capacity of each location")
	flags.Int("max-move", 0, "maximum cars moved overnight")
	flags.Float64("rental-rate-first", 0, "expected requests per day at the first location")
	flags.Float64("rental-rate-second", 0, "expected requests per day at the second location")
	flags.Float64("return-rate-first", 0, "expected returns per day at the first location")
	flags.Float64("return-rate-second", 0, "expected returns per day at the second location")
	flags.Int("truncation", 0, "count from which probability mass is ignored")
	flags.Float64("rental-credit", 0, "credit earned per rented car")
	flags.Float64("move-cost", 0, "cost per moved car")
	flags.Float64("discount", 0, "discount factor in (0,1)")
	flags.Bool("simplify-returns", true, "use expected return counts instead of summing over returns")
	flags.Float64("tolerance", 0, "policy evaluation stops below this max value change")
	flags.Int("max-sweeps", 0, "cap on evaluation sweeps per iteration")
	flags.Int("max-iterations", 0, "cap on policy iterations")
	flags.Bool("synchronous", false, "evaluate from the previous sweep instead of in place")
	flags.Int("workers", 1, "goroutines per sweep")
	flags.String("output-dir", "results", "directory for run results")
	flags.String("store", "", "SQLite database collecting runs")
	flags.Bool("heatmap", true, "write an HTML page of heatmaps")
	flags.Bool("terminal", false, "print the policy and values to the terminal")

	// Only flags set on the command line override the other sources
	flags.VisitAll(func(f *pflag.Flag) {
		bind(settings, f, strings.ReplaceAll(f.Name, "-", "_"))
	})

	rootCmd.AddCommand(solveCmd)
}
