package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"PegSim/internal/config"
)

func newVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the built-in variant presets",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, name := range config.Variants() {
				fmt.Fprintf(out, "%-16s %s\n", name, config.Describe(name))
			}
		},
	}
}
