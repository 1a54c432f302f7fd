package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poisson-sim/poisson-sim/sim/kernel"
)

var (
	kernelDistances []float64 // distances at which to evaluate the kernels
	kernelProbs     []float64 // probabilities at which to evaluate the quantile
)

// kernelCmd evaluates the fitted kernels of a parameter file without
// running a simulation.
var kernelCmd = &cobra.Command{
	Use:   "kernel",
	Short: "Evaluate the death kernel and birth quantile of a parameter file",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(logLevel)
		if configPath == "" {
			logrus.Fatalf("No parameter file given. Use --config.")
		}
		params, err := LoadParams(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		m, err := params.KernelSource().Build()
		if err != nil {
			logrus.Fatalf("Unable to build kernel: %v", err)
		}
		printKernel(cmd.OutOrStdout(), m, kernelDistances, kernelProbs)
	},
}

func printKernel(w io.Writer, m *kernel.Model, distances, probs []float64) {
	death := m.DeathCurve()
	fmt.Fprintf(w, "death kernel   : %s, %d nodes, cutoff %g\n", death.Method(), death.Nodes(), death.Cutoff())
	if birth := m.BirthCurve(); birth != nil {
		fmt.Fprintf(w, "birth kernel   : %s, %d nodes, cutoff %g\n", birth.Method(), birth.Nodes(), birth.Cutoff())
	}
	q := m.QuantileCurve()
	fmt.Fprintf(w, "birth quantile : %s, %d nodes, max offset %g\n", q.Method(), q.Nodes(), m.BirthCutoff())

	if len(distances) > 0 {
		fmt.Fprintf(w, "\n%12s %14s %14s\n", "distance", "death", "birth")
		for _, x := range distances {
			fmt.Fprintf(w, "%12.6g %14.6g %14.6g\n", x, m.Death(x), m.Birth(x))
		}
	}
	if len(probs) > 0 {
		fmt.Fprintf(w, "\n%12s %14s\n", "u", "offset")
		for _, u := range probs {
			fmt.Fprintf(w, "%12.6g %14.6g\n", u, m.Quantile(u))
		}
	}
}

func init() {
	kernelCmd.Flags().StringVar(&configPath, "config", "", "YAML parameter file")
	kernelCmd.Flags().Float64SliceVar(&kernelDistances, "at", nil, "Comma-separated distances")
	kernelCmd.Flags().Float64SliceVar(&kernelProbs, "u", []float64{0, 0.25, 0.5, 0.75, 1}, "Comma-separated probabilities")
	kernelCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}
