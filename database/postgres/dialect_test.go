package postgres

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
		{migrations.TypeBigInt, "bigint"},
		{migrations.TypeSmallInt, "smallint"},
		{migrations.TypeText, "text"},
		{migrations.TypeBool, "boolean"},
		{migrations.TypeFloat, "real"},
		{migrations.TypeDouble, "double precision"},
		{migrations.TypeTimestamp, "timestamp with time zone"},
		{migrations.TypeDate, "date"},
		{migrations.TypeBlob, "bytea"},
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
	def := "now()"
	snapshot := &migrations.Snapshot{
		ModelName: "User",
		TableName: "users",
		Fields: []migrations.Field{
			{Name: "id", Type: migrations.TypeBigInt, PrimaryKey: true},
			{Name: "email", Type: migrations.TypeText, Unique: true},
			{Name: "bio", Type: migrations.TypeText, Nullable: true},
			{Name: "created_at", Type: migrations.TypeTimestamp, Default: &def},
		},
	}

	statements, err := d.CreateTable(snapshot)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if len(statements) != 1 {
		t.Fatalf("Expected one statement, got %d", len(statements))
	}

	expected := `CREATE TABLE users (
  id bigint NOT NULL PRIMARY KEY,
  email text NOT NULL UNIQUE,
  bio text,
  created_at timestamp with time zone NOT NULL DEFAULT now()
)`
	if statements[0].SQL != expected {
		t.Errorf("Expected:\n%s\nGot:\n%s", expected, statements[0].SQL)
	}
}

func TestDropTable(t *testing.T) {
	statements, err := NewDialect().DropTable("users")
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if statements[0].SQL != "DROP TABLE users CASCADE" {
		t.Errorf("Unexpected SQL: %s", statements[0].SQL)
	}
}

func TestAddAndDropColumn(t *testing.T) {
	d := NewDialect()

	statements, err := d.AddColumn("users", migrations.Field{
		Name: "age", Type: migrations.TypeInt, Nullable: true,
	})
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if statements[0].SQL != "ALTER TABLE users ADD COLUMN age integer" {
		t.Errorf("Unexpected SQL: %s", statements[0].SQL)
	}

	statements, err = d.DropColumn("users", "age")
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if statements[0].SQL != "ALTER TABLE users DROP COLUMN age" {
		t.Errorf("Unexpected SQL: %s", statements[0].SQL)
	}
}

func TestAlterColumn(t *testing.T) {
	d := NewDialect()
	def := "0"

	old := migrations.Field{Name: "score", Type: migrations.TypeInt, Nullable: true}
	updated := migrations.Field{Name: "rating", Type: migrations.TypeBigInt, Default: &def, Unique: true}

	statements, err := d.AlterColumn("players", old, updated)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}

	expected := []string{
		"ALTER TABLE players RENAME COLUMN score TO rating",
		"ALTER TABLE players ALTER COLUMN rating TYPE bigint",
		"ALTER TABLE players ALTER COLUMN rating SET NOT NULL",
		"ALTER TABLE players ALTER COLUMN rating SET DEFAULT 0",
		"ALTER TABLE players ADD CONSTRAINT players_rating_key UNIQUE (rating)",
	}
	if len(statements) != len(expected) {
		t.Fatalf("Expected %d statements, got %d: %v", len(expected), len(statements), statements)
	}
	for i, want := range expected {
		if statements[i].SQL != want {
			t.Errorf("Statement %d: expected %q, got %q", i, want, statements[i].SQL)
		}
	}
}

func TestAlterColumn_NoChanges(t *testing.T) {
	f := migrations.Field{Name: "score", Type: migrations.TypeInt}
	statements, err := NewDialect().AlterColumn("players", f, f)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if len(statements) != 0 {
		t.Errorf("Expected no statements for identical fields, got %v", statements)
	}
}

func TestAlterColumn_DropDefaultAndUnique(t *testing.T) {
	d := NewDialect()
	def := "''"

	old := migrations.Field{Name: "email", Type: migrations.TypeText, Unique: true, Default: &def}
	updated := migrations.Field{Name: "email", Type: migrations.TypeText}

	statements, err := d.AlterColumn("users", old, updated)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}

	var sqls []string
	for _, s := range statements {
		sqls = append(sqls, s.SQL)
	}
	joined := strings.Join(sqls, "\n")
	if !strings.Contains(joined, "DROP DEFAULT") {
		t.Errorf("Expected DROP DEFAULT, got:\n%s", joined)
	}
	if !strings.Contains(joined, "DROP CONSTRAINT users_email_key") {
		t.Errorf("Expected DROP CONSTRAINT, got:\n%s", joined)
	}
}

func TestPlaceholder(t *testing.T) {
	d := NewDialect()
	if got := d.Placeholder(1); got != "$1" {
		t.Errorf("Expected $1, got %s", got)
	}
	if got := d.Placeholder(3); got != "$3" {
		t.Errorf("Expected $3, got %s", got)
	}
}
