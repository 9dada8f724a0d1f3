package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/sim/trace"
)

var (
	logLevel string // Log verbosity level
	output   outputOptions

	runFlags    simFlags
	promptFlags simFlags
)

// outputOptions selects what a run leaves behind besides the printed report.
type outputOptions struct {
	traceLevel  string // none, transitions or occupancy
	traceDB     string // SQLite file receiving the trace; empty keeps it in memory
	resultsPath string // JSON report destination; empty skips it
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "procsim",
	Short: "Discrete-event simulator for OS process scheduling",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		// Fatal errors still flush registered trace writers.
		logrus.StandardLogger().ExitFunc = atexit.Exit
		return nil
	},
}

// runCmd executes the simulation using parameters from the config file, the environment and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduling simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := runFlags.resolve(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if _, err := runSimulation(cfg, output, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// promptCmd asks for the parameters on stdin before running
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Ask for the simulation parameters interactively, then run",
	Run: func(cmd *cobra.Command, args []string) {
		base, err := promptFlags.resolve(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		cfg, err := NewPrompter(os.Stdin, os.Stdout).Ask(base)
		if err != nil {
			logrus.Fatalf("Reading parameters: %v", err)
		}
		if _, err := runSimulation(cfg, output, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// runSimulation runs one simulation, prints the report to w and writes the
// optional trace database and JSON results.
func runSimulation(cfg sim.Config, o outputOptions, w io.Writer) (*sim.Report, error) {
	if !trace.IsValidTraceLevel(o.traceLevel) {
		return nil, fmt.Errorf("unknown trace level %q", o.traceLevel)
	}

	observers := sim.MultiObserver{sim.LogObserver{}}
	var st *trace.SimulationTrace
	if level := trace.TraceLevel(o.traceLevel); level != "" && level != trace.TraceLevelNone {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
		observers = append(observers, sim.NewTraceObserver(st))
	} else if o.traceDB != "" {
		logrus.Warnf("--trace-db %s ignored: tracing is disabled", o.traceDB)
	}

	s, err := sim.NewSimulator(cfg, sim.WithObserver(observers))
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	report := s.Run()
	report.Print(w)
	logrus.Infof("Simulation complete in %s", time.Since(startTime))

	if st != nil {
		summary := trace.Summarize(st)
		logrus.Infof("Trace %s: %d transitions across %d processes, %d forced switches",
			st.RunID, summary.TotalTransitions, summary.DistinctProcesses, summary.ForcedSwitches)
		if o.traceDB != "" {
			if err := writeTrace(o.traceDB, st); err != nil {
				return report, err
			}
		}
	}

	if o.resultsPath != "" {
		if err := report.SaveResults(o.resultsPath); err != nil {
			return report, err
		}
	}
	return report, nil
}

func writeTrace(path string, st *trace.SimulationTrace) error {
	w := trace.NewSQLiteWriter(path)
	if err := w.Init(); err != nil {
		return err
	}
	if err := w.Write(st); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	logrus.Infof("Trace %s written to %s", st.RunID, path)
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&output.traceLevel, "trace-level", "none", "Trace verbosity (none, transitions, occupancy)")
	rootCmd.PersistentFlags().StringVar(&output.traceDB, "trace-db", "", "SQLite file to store the trace in")
	rootCmd.PersistentFlags().StringVar(&output.resultsPath, "results-path", "", "File to save the report as JSON")

	runFlags.register(runCmd.Flags())
	promptFlags.register(promptCmd.Flags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(promptCmd)
}
