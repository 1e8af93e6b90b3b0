package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	statusEnv string
	statusDir string
)

func init() {
	statusCmd.Flags().StringVar(&statusEnv, "env", "", "Environment from seam.toml (default: default_environment)")
	statusCmd.Flags().StringVar(&statusDir, "dir", "", "Directory containing migration manifests")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migrations have been applied and which are pending",
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	env, err := environment(statusEnv)
	if err != nil {
		log.Fatalf("Failed to resolve environment: %v", err)
	}

	ctx := context.Background()
	engine, db, err := openEngine(ctx, env, migrationsDir(statusDir, env))
	if err != nil {
		log.Fatalf("Failed to set up migration engine: %v", err)
	}
	defer func() { _ = db.Close() }()

	applied, pending, err := engine.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to read migration status: %v", err)
	}

	entries, err := engine.Ledger().Entries(ctx)
	if err != nil {
		log.Fatalf("Failed to read ledger: %v", err)
	}
	appliedAt := make(map[string]string, len(entries))
	for _, e := range entries {
		appliedAt[e.App+"/"+e.Name] = e.AppliedAt.Format("2006-01-02 15:04:05")
	}

	fmt.Printf("Applied (%d):\n", len(applied))
	for _, id := range applied {
		fmt.Printf("  %s  %s\n", appliedAt[id.String()], id)
	}

	fmt.Printf("Pending (%d):\n", len(pending))
	for _, id := range pending {
		fmt.Printf("  %s\n", id)
	}
}
