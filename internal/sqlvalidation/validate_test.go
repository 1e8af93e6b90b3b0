package sqlvalidation

import (
	"testing"

	"github.com/seamdb/seam/database/postgres"
	"github.com/seamdb/seam/database/sqlite"
	"github.com/seamdb/seam/migrations"
)

func postsSnapshot() migrations.Snapshot {
	return migrations.Snapshot{
		ModelName: "Post",
		TableName: "posts",
		Fields: []migrations.Field{
			{Name: "id", Type: migrations.TypeBigInt, PrimaryKey: true},
			{Name: "title", Type: migrations.TypeText},
		},
	}
}

func TestValidateStatement(t *testing.T) {
	if err := ValidateStatement("CREATE TABLE posts (id bigint PRIMARY KEY)"); err != nil {
		t.Errorf("Expected valid DDL to pass: %v", err)
	}
	if err := ValidateStatement("CREATE TABEL posts"); err == nil {
		t.Error("Expected parse error for malformed DDL")
	}
}

func TestValidateNodes_CleanDDL(t *testing.T) {
	nodes := []*migrations.Node{
		{App: "blog", Name: "0001_initial", Operations: []migrations.Operation{
			&migrations.CreateModel{Snapshot: postsSnapshot()},
			&migrations.AddField{TableName: "posts", Field: migrations.Field{
				Name: "slug", Type: migrations.TypeText, Nullable: true,
			}},
			&migrations.RunCustom{ID: "blog.backfill"}, // skipped: carries no SQL
		}},
	}

	result := ValidateNodes(nodes, postgres.NewDialect())
	if !result.Valid {
		t.Fatalf("Expected clean result, got issues: %+v", result.Issues)
	}
}

func TestValidateNodes_BrokenDefaultExpression(t *testing.T) {
	// The default is a raw SQL fragment; a broken one must surface before
	// apply time.
	badDefault := "now(("
	nodes := []*migrations.Node{
		{App: "blog", Name: "0002_add_created", Operations: []migrations.Operation{
			&migrations.AddField{TableName: "posts", Field: migrations.Field{
				Name: "created_at", Type: migrations.TypeTimestamp, Default: &badDefault,
			}},
		}},
	}

	result := ValidateNodes(nodes, postgres.NewDialect())
	if result.Valid {
		t.Fatal("Expected validation to fail")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("Expected one issue, got %d", len(result.Issues))
	}

	issue := result.Issues[0]
	if issue.Node.String() != "blog/0002_add_created" {
		t.Errorf("Expected issue attributed to blog/0002_add_created, got %s", issue.Node)
	}
	if issue.Operation != 0 {
		t.Errorf("Expected operation index 0, got %d", issue.Operation)
	}
	if issue.SQL == "" || issue.Message == "" {
		t.Errorf("Expected issue to carry SQL and message: %+v", issue)
	}
}

func TestValidateNodes_DialectRejection(t *testing.T) {
	// SQLite cannot change a column in place; the dialect error becomes an
	// issue rather than a hard failure.
	nodes := []*migrations.Node{
		{App: "blog", Name: "0003_alter", Operations: []migrations.Operation{
			&migrations.AlterField{
				TableName: "posts",
				Old:       migrations.Field{Name: "title", Type: migrations.TypeText},
				New:       migrations.Field{Name: "title", Type: migrations.TypeText, Nullable: true},
			},
		}},
	}

	result := ValidateNodes(nodes, sqlite.NewDialect())
	if result.Valid {
		t.Fatal("Expected validation to fail")
	}
	if len(result.Issues) != 1 || result.Issues[0].SQL != "" {
		t.Fatalf("Expected one SQL-less dialect issue, got %+v", result.Issues)
	}
}
