package cmd

import (
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/seamdb/seam/internal/wizard"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create seam.toml and a migrations directory",
	Run:   runInit,
}

func runInit(cmd *cobra.Command, args []string) {
	program := tea.NewProgram(wizard.New())
	model, err := program.Run()
	if err != nil {
		log.Fatalf("Init wizard failed: %v", err)
	}

	final, ok := model.(wizard.Model)
	if !ok || final.Result() == nil {
		// User quit before finishing; nothing was written.
		return
	}

	result := final.Result()
	fmt.Printf("Wrote %s\n", result.ConfigPath)
	for _, envFile := range result.EnvFiles {
		fmt.Printf("Wrote %s\n", envFile)
	}
	if result.MigrationsDirCreated {
		fmt.Printf("Created %s/\n", result.MigrationsDir)
	}
}
