package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/seamdb/seam/database/postgres"
	"github.com/seamdb/seam/internal/manifest"
	"github.com/seamdb/seam/internal/sqlvalidation"
)

var validateFormat string

func init() {
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "Output format: text or json")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [DIR]",
	Short: "Validate migration manifests and the SQL they would generate",
	Long: `Validate checks every manifest in the migrations directory against the
manifest schema, then generates the PostgreSQL DDL for each built-in
operation and parses it with the PostgreSQL parser. Errors are reported with
the migration and operation they came from.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) {
	dir := defaultMigrationsDir
	if len(args) == 1 {
		dir = args[0]
	}

	nodes, err := manifest.LoadDir(dir)
	if err != nil {
		log.Fatalf("Manifest validation failed: %v", err)
	}

	result := sqlvalidation.ValidateNodes(nodes, postgres.NewDialect())

	if validateFormat == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
		fmt.Println(string(data))
	} else {
		for _, issue := range result.Issues {
			fmt.Printf("%s operation %d (%s): %s\n", issue.Node, issue.Operation, issue.Description, issue.Message)
		}
		if result.Valid {
			fmt.Printf("Validated %d manifest(s); no issues found.\n", len(nodes))
		}
	}

	if !result.Valid {
		os.Exit(1)
	}
}
