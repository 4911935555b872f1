package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pegsim",
		Short: "Monte Carlo simulator for reserve-backed stable-value pegs",
		Long: `pegsim simulates a stable unit whose supply reacts to random demand
and reserve price shocks.

It runs single trials, experiments of many independent trials, and
scheduled experiment batches, recording results to SQLite.`,
		SilenceUsage: true,
	}

	defaultConfig := "configs/pegsim.yaml"
	if v := os.Getenv("PEGSIM_CONFIG"); v != "" {
		defaultConfig = v
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.String("config", defaultConfig, "Path to the YAML config")
	pf.String("variant", "", "Variant preset (see 'pegsim variants')")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.Int("steps", 0, "Steps per trial")
	pf.Uint64("seed", 0, "Random seed (0 picks one)")
	pf.String("termination", "", "Invariant violation policy: fail or stop")
	pf.String("sqlite-path", "", "SQLite results database")
	pf.String("trace", "", "Write every step record as JSON lines to this file")

	rootCmd.AddCommand(
		newVersionCmd(),
		newVariantsCmd(),
		newTrialCmd(),
		newExperimentCmd(),
		newScheduleCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pegsim version %s\n", version)
		},
	}
}
