package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the seam version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("seam %s\n", Version)
	},
}
