// Package postgres implements the PostgreSQL DDL dialect.
package postgres

import (
	"fmt"
	"strings"

	"github.com/seamdb/seam/migrations"
)

// Dialect implements migrations.Dialect for PostgreSQL.
type Dialect struct{}

// NewDialect creates a new PostgreSQL dialect.
func NewDialect() *Dialect {
	return &Dialect{}
}

var _ migrations.Dialect = (*Dialect)(nil)

// Name returns the dialect name.
func (d *Dialect) Name() string {
	return "postgres"
}

// ColumnType maps an abstract field type to the PostgreSQL type.
func (d *Dialect) ColumnType(t migrations.SQLType) (string, error) {
	switch t {
	case migrations.TypeInt:
		return "integer", nil
	case migrations.TypeBigInt:
		return "bigint", nil
	case migrations.TypeSmallInt:
		return "smallint", nil
	case migrations.TypeText:
		return "text", nil
	case migrations.TypeBool:
		return "boolean", nil
	case migrations.TypeFloat:
		return "real", nil
	case migrations.TypeDouble:
		return "double precision", nil
	case migrations.TypeTimestamp:
		return "timestamp with time zone", nil
	case migrations.TypeDate:
		return "date", nil
	case migrations.TypeBlob:
		return "bytea", nil
	default:
		return "", fmt.Errorf("postgres dialect does not support type %q", t)
	}
}

// formatColumnDefinition renders a field for CREATE TABLE / ADD COLUMN.
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

// DropTable generates the DROP TABLE statement.
func (d *Dialect) DropTable(tableName string) ([]migrations.Statement, error) {
	return []migrations.Statement{{
		Description: fmt.Sprintf("Drop table %s", tableName),
		SQL:         fmt.Sprintf("DROP TABLE %s CASCADE", tableName),
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

// DropColumn generates the ALTER TABLE ... DROP COLUMN statement.
func (d *Dialect) DropColumn(tableName, fieldName string) ([]migrations.Statement, error) {
	return []migrations.Statement{{
		Description: fmt.Sprintf("Drop column %s from table %s", fieldName, tableName),
		SQL:         fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", tableName, fieldName),
	}}, nil
}

// AlterColumn generates one statement per changed aspect of the column:
// rename, type, nullability, default, uniqueness.
func (d *Dialect) AlterColumn(tableName string, old, new migrations.Field) ([]migrations.Statement, error) {
	var steps []migrations.Statement

	name := old.Name
	if old.Name != new.Name {
		steps = append(steps, migrations.Statement{
			Description: fmt.Sprintf("Rename column %s.%s to %s", tableName, old.Name, new.Name),
			SQL:         fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", tableName, old.Name, new.Name),
		})
		name = new.Name
	}

	if old.Type != new.Type {
		typeName, err := d.ColumnType(new.Type)
		if err != nil {
			return nil, err
		}
		steps = append(steps, migrations.Statement{
			Description: fmt.Sprintf("Change type of %s.%s from %s to %s", tableName, name, old.Type, new.Type),
			SQL:         fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", tableName, name, typeName),
		})
	}

	if old.Nullable != new.Nullable {
		var sql string
		if new.Nullable {
			sql = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", tableName, name)
		} else {
			sql = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", tableName, name)
		}
		steps = append(steps, migrations.Statement{
			Description: fmt.Sprintf("Change nullability of %s.%s to %t", tableName, name, new.Nullable),
			SQL:         sql,
		})
	}

	if !defaultsEqual(old.Default, new.Default) {
		var sql string
		if new.Default == nil {
			sql = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", tableName, name)
		} else {
			sql = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", tableName, name, *new.Default)
		}
		steps = append(steps, migrations.Statement{
			Description: fmt.Sprintf("Change default of %s.%s", tableName, name),
			SQL:         sql,
		})
	}

	if old.Unique != new.Unique {
		constraint := fmt.Sprintf("%s_%s_key", tableName, name)
		var sql string
		if new.Unique {
			sql = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)", tableName, constraint, name)
		} else {
			sql = fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", tableName, constraint)
		}
		steps = append(steps, migrations.Statement{
			Description: fmt.Sprintf("Change uniqueness of %s.%s to %t", tableName, name, new.Unique),
			SQL:         sql,
		})
	}

	return steps, nil
}

// Placeholder returns the PostgreSQL parameter placeholder ($1, $2, ...).
func (d *Dialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

func defaultsEqual(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
