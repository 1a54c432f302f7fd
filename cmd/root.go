package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poisson-sim/poisson-sim/sim"
	"github.com/poisson-sim/poisson-sim/sim/trace"
)

var (
	// CLI flags for the run command
	configPath  string  // YAML parameter file
	seed        int64   // Overrides the file's seed when set
	numEvents   int     // Number of events to perform
	duration    float64 // Simulated time to advance; wins over --events when > 0
	traceLevel  string  // Trace verbosity level
	traceOutput string  // File for trace records (JSON)
	traceLimit  int     // Maximum trace records kept
	resultsPath string  // File for metrics (JSON)
	logLevel    string  // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "poisson-sim",
	Short: "Spatial birth-death point process simulator",
}

// runCmd executes the simulation using parameters from the config file and flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the birth-death simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(logLevel)

		if configPath == "" {
			logrus.Fatalf("No parameter file given. Use --config.")
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}
		params, err := LoadParams(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if cmd.Flags().Changed("seed") {
			params.Seed = seed
		}

		cfg := params.GridConfig()
		cfg.TraceLevel = trace.TraceLevel(traceLevel)
		cfg.TraceLimit = traceLimit

		startTime := time.Now()
		g, err := sim.NewGrid(cfg)
		if err != nil {
			logrus.Fatalf("Unable to build grid: %v", err)
		}

		performed := runGrid(g, numEvents, duration)
		logrus.Infof("Performed %d events, population %d at t=%g", performed, g.TotalPopulation(), g.Time())
		if g.CapReached() {
			logrus.Warnf("Run stopped early: population limit %d exceeded", g.PopulationLimit())
		}

		if err := sim.SaveResults(cmd.OutOrStdout(), g.Output(startTime), resultsPath); err != nil {
			logrus.Fatalf("%v", err)
		}
		if g.Trace != nil {
			if err := writeTrace(cmd.OutOrStdout(), g.Trace, traceOutput); err != nil {
				logrus.Fatalf("%v", err)
			}
		}

		logrus.Info("Simulation complete.")
	},
}

// runGrid advances g by duration when positive, otherwise by events.
func runGrid(g *sim.Grid, events int, duration float64) int {
	if duration > 0 {
		return g.RunFor(duration)
	}
	return g.RunEvents(events)
}

// writeTrace prints the trace summary to w and, when path is non-empty,
// writes the records to that file.
func writeTrace(w io.Writer, st *trace.SimulationTrace, path string) error {
	s := trace.Summarize(st)
	fmt.Fprintln(w, "=== Trajectory Summary ===")
	fmt.Fprintf(w, "Events         : %d (deaths %d, births %d, lost births %d)\n", s.TotalEvents, s.Deaths, s.Births, s.OutOfBounds)
	fmt.Fprintf(w, "Population     : min %d, peak %d\n", s.MinPopulation, s.PeakPopulation)
	fmt.Fprintf(w, "Final time     : %g\n", s.FinalTime)
	if st.Dropped > 0 {
		fmt.Fprintf(w, "Dropped records: %d (trace limit %d)\n", st.Dropped, st.Config.Limit)
	}
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(st.Events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write trace file %s: %w", path, err)
	}
	logrus.Infof("Trace written to: %s", path)
	return nil
}

func setLogLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", name)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML parameter file")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the event stream (overrides the parameter file)")
	runCmd.Flags().IntVar(&numEvents, "events", 1000, "Number of events to perform")
	runCmd.Flags().Float64Var(&duration, "duration", 0, "Simulated time to advance (overrides --events when > 0)")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Trace level (none, events)")
	runCmd.Flags().StringVar(&traceOutput, "trace-output", "", "File to write trace records to")
	runCmd.Flags().IntVar(&traceLimit, "trace-limit", 0, "Maximum trace records to keep (0 keeps all)")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "File to write metrics to")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(kernelCmd)
}
