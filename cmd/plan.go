package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/seamdb/seam/migrations"
)

var (
	planEnv     string
	planDir     string
	planShowSQL bool
)

func init() {
	planCmd.Flags().StringVar(&planEnv, "env", "", "Environment from seam.toml (default: default_environment)")
	planCmd.Flags().StringVar(&planDir, "dir", "", "Directory containing migration manifests")
	planCmd.Flags().BoolVar(&planShowSQL, "sql", false, "Print the SQL each migration would execute")
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the pending migrations in apply order without executing them",
	Run:   runPlan,
}

func runPlan(cmd *cobra.Command, args []string) {
	env, err := environment(planEnv)
	if err != nil {
		log.Fatalf("Failed to resolve environment: %v", err)
	}

	ctx := context.Background()
	engine, db, err := openEngine(ctx, env, migrationsDir(planDir, env))
	if err != nil {
		log.Fatalf("Failed to set up migration engine: %v", err)
	}
	defer func() { _ = db.Close() }()

	plan, err := engine.Pending(ctx)
	if err != nil {
		log.Fatalf("Failed to plan migrations: %v", err)
	}

	if len(plan) == 0 {
		fmt.Println("No pending migrations.")
		return
	}

	lookup := make(map[migrations.NodeID]*migrations.Node)
	for _, n := range engine.Nodes() {
		lookup[n.ID()] = n
	}

	dialect, err := dialectForEnv(ctx, env)
	if err != nil {
		log.Fatalf("Failed to resolve dialect: %v", err)
	}

	fmt.Printf("Pending migrations (%d):\n", len(plan))
	for _, id := range plan {
		node := lookup[id]
		fmt.Printf("  %s (%d operation(s))\n", id, len(node.Operations))
		for _, op := range node.Operations {
			fmt.Printf("    - %s\n", op.Describe())
			if !planShowSQL {
				continue
			}
			statements, err := migrations.StatementsFor(op, dialect)
			if err != nil {
				fmt.Printf("      ! %v\n", err)
				continue
			}
			for _, stmt := range statements {
				fmt.Printf("      %s\n", stmt.SQL)
			}
		}
	}
}
