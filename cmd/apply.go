package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seamdb/seam/migrations"
)

var (
	applyEnv string
	applyDir string
)

func init() {
	applyCmd.Flags().StringVar(&applyEnv, "env", "", "Environment from seam.toml (default: default_environment)")
	applyCmd.Flags().StringVar(&applyDir, "dir", "", "Directory containing migration manifests")
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply all pending migrations",
	Long: `Apply plans the pending migrations against the ledger and executes them in
order, one transaction per migration. The run holds a database-level lock, so
concurrent replicas serialize instead of double-applying.`,
	Run: runApply,
}

func runApply(cmd *cobra.Command, args []string) {
	env, err := environment(applyEnv)
	if err != nil {
		log.Fatalf("Failed to resolve environment: %v", err)
	}

	ctx := context.Background()
	engine, db, err := openEngine(ctx, env, migrationsDir(applyDir, env))
	if err != nil {
		log.Fatalf("Failed to set up migration engine: %v", err)
	}
	defer func() { _ = db.Close() }()

	report, err := engine.ApplyAll(ctx)
	printReport(report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Apply failed: %v\n", err)
		os.Exit(1)
	}

	if report.Applied() == 0 {
		fmt.Println("Nothing to apply; all migrations are up to date.")
	} else {
		fmt.Printf("Applied %d migration(s).\n", report.Applied())
	}
}

func printReport(report *migrations.ApplyReport) {
	if report == nil {
		return
	}
	for _, res := range report.Results {
		switch res.Status {
		case migrations.StatusApplied:
			fmt.Printf("  ok      %s (%s)\n", res.ID, res.Duration.Round(time.Millisecond))
		case migrations.StatusFailed:
			fmt.Printf("  FAILED  %s: %s\n", res.ID, res.Error)
		case migrations.StatusSkipped:
			fmt.Printf("  skipped %s\n", res.ID)
		}
	}
}
