package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/seamdb/seam/migrations"
)

func init() {
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff OLD.json NEW.json",
	Short: "Show the operations that transform one model snapshot into another",
	Long: `Diff compares two snapshot files of the same model and prints the
operations a migration would need to carry. Pass "-" for OLD when the model
is new, or for NEW when it is being deleted.`,
	Args: cobra.ExactArgs(2),
	Run:  runDiff,
}

func loadSnapshot(path string) (*migrations.Snapshot, error) {
	if path == "-" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var snapshot migrations.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &snapshot, nil
}

func runDiff(cmd *cobra.Command, args []string) {
	old, err := loadSnapshot(args[0])
	if err != nil {
		log.Fatalf("Failed to load old snapshot: %v", err)
	}
	new, err := loadSnapshot(args[1])
	if err != nil {
		log.Fatalf("Failed to load new snapshot: %v", err)
	}

	ops, err := migrations.DiffSnapshots(old, new)
	if err != nil {
		log.Fatalf("Failed to diff snapshots: %v", err)
	}
	if len(ops) == 0 {
		fmt.Println("Snapshots are identical.")
		return
	}

	for _, op := range ops {
		data, err := migrations.MarshalOperation(op)
		if err != nil {
			log.Fatalf("Failed to encode operation: %v", err)
		}
		fmt.Printf("%s\n  %s\n", op.Describe(), data)
	}
}
