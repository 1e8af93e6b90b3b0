package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seam",
	Short: "Seam applies versioned schema migrations contributed by application modules.",
	Long: `Seam tracks the evolving shape of application data models across
migrations, computes a dependency-consistent apply order for pending ones,
executes them one transaction each, and records what ran in a ledger table.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
