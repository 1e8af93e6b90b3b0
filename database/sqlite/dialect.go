// Package sqlite implements the SQLite DDL dialect, also used for libSQL
// connections.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/seamdb/seam/migrations"
)

// Dialect implements migrations.Dialect for SQLite.
type Dialect struct{}

// NewDialect creates a new SQLite dialect.
func NewDialect() *Dialect {
	return &Dialect{}
}

var _ migrations.Dialect = (*Dialect)(nil)

// Name returns the dialect name.
func (d *Dialect) Name() string {
	return "sqlite"
}

// ColumnType maps an abstract field type to the SQLite type. SQLite's type
// affinity makes the integer family collapse to INTEGER.
func (d *Dialect) ColumnType(t migrations.SQLType) (string, error) {
	switch t {
	case migrations.TypeInt, migrations.TypeBigInt, migrations.TypeSmallInt:
		return "integer", nil
	case migrations.TypeText:
		return "text", nil
	case migrations.TypeBool:
		return "boolean", nil
	case migrations.TypeFloat, migrations.TypeDouble:
		return "real", nil
	case migrations.TypeTimestamp:
		return "timestamp", nil
	case migrations.TypeDate:
		return "date", nil
	case migrations.TypeBlob:
		return "blob", nil
	default:
		return "", fmt.Errorf("sqlite dialect does not support type %q", t)
	}
}

func (d *Dialect) formatColumnDefinition(f migrations.Field) (string, error) {
	typeName, err := d.ColumnType(f.Type)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(f.Name)
	sb.WriteString(" ")
	sb.WriteString(typeName)

	if !f.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if f.PrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}
	if f.Unique && !f.PrimaryKey {
		sb.WriteString(" UNIQUE")
	}
	if f.Default != nil {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(*f.Default)
	}

	return sb.String(), nil
}

// CreateTable generates the CREATE TABLE statement for a snapshot.
func (d *Dialect) CreateTable(s *migrations.Snapshot) ([]migrations.Statement, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", s.TableName))

	for i, f := range s.Fields {
		def, err := d.formatColumnDefinition(f)
		if err != nil {
			return nil, err
		}
		sb.WriteString("  ")
		sb.WriteString(def)
		if i < len(s.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(")")

	return []migrations.Statement{{
		Description: fmt.Sprintf("Create table %s", s.TableName),
		SQL:         sb.String(),
	}}, nil
}

// DropTable generates the DROP TABLE statement. SQLite has no CASCADE; the
// statement fails if other tables reference this one.
func (d *Dialect) DropTable(tableName string) ([]migrations.Statement, error) {
	return []migrations.Statement{{
		Description: fmt.Sprintf("Drop table %s", tableName),
		SQL:         fmt.Sprintf("DROP TABLE %s", tableName),
	}}, nil
}

// AddColumn generates the ALTER TABLE ... ADD COLUMN statement.
func (d *Dialect) AddColumn(tableName string, f migrations.Field) ([]migrations.Statement, error) {
	def, err := d.formatColumnDefinition(f)
	if err != nil {
		return nil, err
	}
	return []migrations.Statement{{
		Description: fmt.Sprintf("Add column %s to table %s", f.Name, tableName),
		SQL:         fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", tableName, def),
	}}, nil
}

// DropColumn generates the ALTER TABLE ... DROP COLUMN statement
// (SQLite 3.35.0+).
func (d *Dialect) DropColumn(tableName, fieldName string) ([]migrations.Statement, error) {
	return []migrations.Statement{{
		Description: fmt.Sprintf("Drop column %s from table %s", fieldName, tableName),
		SQL:         fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", tableName, fieldName),
	}}, nil
}

// AlterColumn supports renames via ALTER TABLE ... RENAME COLUMN. SQLite
// cannot change a column's type, nullability, default, or uniqueness in
// place; those require rebuilding the table, which needs the full table
// shape and is rejected here with an explicit error rather than a lossy
// approximation.
func (d *Dialect) AlterColumn(tableName string, old, new migrations.Field) ([]migrations.Statement, error) {
	renamed := old
	renamed.Name = new.Name

	if !renamed.Equal(new) {
		return nil, fmt.Errorf(
			"sqlite cannot alter column %s.%s in place; create a new field and copy data with a custom operation instead",
			tableName, old.Name)
	}
	if old.Name == new.Name {
		return nil, nil
	}

	return []migrations.Statement{{
		Description: fmt.Sprintf("Rename column %s.%s to %s", tableName, old.Name, new.Name),
		SQL:         fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", tableName, old.Name, new.Name),
	}}, nil
}

// Placeholder returns the SQLite parameter placeholder.
func (d *Dialect) Placeholder(_ int) string {
	return "?"
}
