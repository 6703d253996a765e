package cmd

import (
	"github.com/spf13/cobra"

	"github.com/danpilch/stackprof/pkg/benchmark"
)

var benchOpts = benchmark.DefaultOptions()

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measures the overhead of the capture callback",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.WithField("iterations", benchOpts.Iterations).Debug("Running capture benchmark")
		results, overhead := benchmark.Run(benchmark.DefaultScenarios(), benchOpts)
		benchmark.RenderResults(cmd.OutOrStdout(), benchOpts, results, overhead)
		return nil
	},
}

func init() {
	benchCmd.Flags().IntVar(&benchOpts.Iterations, "iterations", benchOpts.Iterations, "Measured iterations per scenario")
	benchCmd.Flags().IntVar(&benchOpts.Warmup, "warmup", benchOpts.Warmup, "Warmup iterations per scenario")
	benchCmd.Flags().IntVar(&benchOpts.Depth, "depth", benchOpts.Depth, "Length of the synthetic call chain")
}
