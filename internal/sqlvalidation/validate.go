// Package sqlvalidation checks the DDL a dialect generates before it is ever
// handed to a transaction, by parsing each statement with the PostgreSQL
// parser.
package sqlvalidation

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/seamdb/seam/migrations"
)

// Issue is one statement that failed to parse.
type Issue struct {
	Node        migrations.NodeID `json:"node"`
	Operation   int               `json:"operation"`
	Description string            `json:"description"`
	SQL         string            `json:"sql"`
	Message     string            `json:"message"`
}

// Result collects the issues found across a node set.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// ValidateStatement parses a single generated statement.
func ValidateStatement(sql string) error {
	if _, err := pg_query.Parse(sql); err != nil {
		return fmt.Errorf("generated SQL does not parse: %w", err)
	}
	return nil
}

// ValidateNodes generates the PostgreSQL DDL for every built-in operation of
// every node and parses it. RunCustom operations carry no SQL and are
// skipped. Operations the dialect rejects outright are reported as issues as
// well, since they would fail identically at apply time.
func ValidateNodes(nodes []*migrations.Node, dialect migrations.Dialect) *Result {
	result := &Result{Valid: true}

	for _, node := range nodes {
		for i, op := range node.Operations {
			if _, ok := op.(*migrations.RunCustom); ok {
				continue
			}

			statements, err := migrations.StatementsFor(op, dialect)
			if err != nil {
				result.Valid = false
				result.Issues = append(result.Issues, Issue{
					Node:        node.ID(),
					Operation:   i,
					Description: op.Describe(),
					Message:     err.Error(),
				})
				continue
			}

			for _, stmt := range statements {
				if err := ValidateStatement(stmt.SQL); err != nil {
					result.Valid = false
					result.Issues = append(result.Issues, Issue{
						Node:        node.ID(),
						Operation:   i,
						Description: stmt.Description,
						SQL:         stmt.SQL,
						Message:     err.Error(),
					})
				}
			}
		}
	}

	return result
}
