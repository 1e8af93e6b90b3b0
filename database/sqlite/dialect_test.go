package sqlite

import (
	"strings"
	"testing"

	"github.com/seamdb/seam/migrations"
)

func TestColumnType(t *testing.T) {
	d := NewDialect()

	tests := []struct {
		sqlType migrations.SQLType
		want    string
	}{
		{migrations.TypeInt, "integer"},
		{migrations.TypeBigInt, "integer"},
		{migrations.TypeSmallInt, "integer"},
		{migrations.TypeText, "text"},
		{migrations.TypeBool, "boolean"},
		{migrations.TypeFloat, "real"},
		{migrations.TypeDouble, "real"},
		{migrations.TypeTimestamp, "timestamp"},
		{migrations.TypeDate, "date"},
		{migrations.TypeBlob, "blob"},
	}
	for _, tt := range tests {
		got, err := d.ColumnType(tt.sqlType)
		if err != nil {
			t.Errorf("ColumnType(%s) failed: %v", tt.sqlType, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ColumnType(%s) = %q, want %q", tt.sqlType, got, tt.want)
		}
	}

	if _, err := d.ColumnType("varchar"); err == nil {
		t.Error("Expected error for unknown type")
	}
}

func TestCreateTable(t *testing.T) {
	d := NewDialect()
	snapshot := &migrations.Snapshot{
		ModelName: "Post",
		TableName: "posts",
		Fields: []migrations.Field{
			{Name: "id", Type: migrations.TypeBigInt, PrimaryKey: true},
			{Name: "title", Type: migrations.TypeText},
			{Name: "published", Type: migrations.TypeBool, Nullable: true},
		},
	}

	statements, err := d.CreateTable(snapshot)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}

	expected := `CREATE TABLE posts (
  id integer NOT NULL PRIMARY KEY,
  title text NOT NULL,
  published boolean
)`
	if statements[0].SQL != expected {
		t.Errorf("Expected:\n%s\nGot:\n%s", expected, statements[0].SQL)
	}
}

func TestDropTable(t *testing.T) {
	statements, err := NewDialect().DropTable("posts")
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if statements[0].SQL != "DROP TABLE posts" {
		t.Errorf("Unexpected SQL: %s", statements[0].SQL)
	}
}

func TestAlterColumn_RenameOnly(t *testing.T) {
	d := NewDialect()

	old := migrations.Field{Name: "body", Type: migrations.TypeText}
	renamed := migrations.Field{Name: "content", Type: migrations.TypeText}

	statements, err := d.AlterColumn("posts", old, renamed)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if len(statements) != 1 {
		t.Fatalf("Expected one statement, got %d", len(statements))
	}
	if statements[0].SQL != "ALTER TABLE posts RENAME COLUMN body TO content" {
		t.Errorf("Unexpected SQL: %s", statements[0].SQL)
	}
}

func TestAlterColumn_RejectsInPlaceChanges(t *testing.T) {
	d := NewDialect()

	old := migrations.Field{Name: "body", Type: migrations.TypeText}
	changed := migrations.Field{Name: "body", Type: migrations.TypeText, Nullable: true}

	_, err := d.AlterColumn("posts", old, changed)
	if err == nil {
		t.Fatal("Expected error for in-place column change")
	}
	if !strings.Contains(err.Error(), "custom operation") {
		t.Errorf("Expected the error to suggest a custom operation, got %q", err.Error())
	}
}

func TestAlterColumn_NoChanges(t *testing.T) {
	f := migrations.Field{Name: "body", Type: migrations.TypeText}
	statements, err := NewDialect().AlterColumn("posts", f, f)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if len(statements) != 0 {
		t.Errorf("Expected no statements for identical fields, got %v", statements)
	}
}

func TestPlaceholder(t *testing.T) {
	if got := NewDialect().Placeholder(2); got != "?" {
		t.Errorf("Expected ?, got %s", got)
	}
}
