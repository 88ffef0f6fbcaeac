package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"carrental/experiments"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var experimentVariants = map[string][]experiments.Variant{
	"updates": experiments.UpdateVariants,
	"returns": experiments.ReturnVariants,
}

var compareCmd = &cobra.Command{
	Use:       "compare {updates|returns}",
	Short:     "Solve the configured problem once per variant and summarise the differences.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"updates", "returns"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		name := args[0]
		records, err := experiments.Run(ctx, name, *cfg, experimentVariants[name])
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%-22s iterations=%d sweeps=%d policy_diff=%d max_value_diff=%.4g duration=%v\n",
				r.Variant.Name, r.Iterations, r.Sweeps, r.PolicyDiff, r.MaxValueDiff, r.Duration)
		}
		log.Info().Msgf("%s experiment compared %d variants", name, len(records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
