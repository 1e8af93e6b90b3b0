package migrations

import "fmt"

// Statement is one executable SQL statement together with a human-readable
// description for reports.
type Statement struct {
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// Dialect is the backend adapter: it turns abstract operations into
// database-specific DDL. The core never inspects the generated SQL; it only
// hands statements to the node's transaction in order.
type Dialect interface {
	// Name returns the dialect name (e.g. "postgres", "sqlite").
	Name() string

	// ColumnType maps an abstract field type to the concrete SQL type.
	ColumnType(t SQLType) (string, error)

	// CreateTable generates the statements creating the snapshot's table.
	CreateTable(s *Snapshot) ([]Statement, error)

	// DropTable generates the statements dropping a table.
	DropTable(tableName string) ([]Statement, error)

	// AddColumn generates the statements adding a column.
	AddColumn(tableName string, f Field) ([]Statement, error)

	// DropColumn generates the statements dropping a column.
	DropColumn(tableName, fieldName string) ([]Statement, error)

	// AlterColumn generates the statements changing a column from old to
	// new. Dialects without ALTER COLUMN support may rebuild the table.
	AlterColumn(tableName string, old, new Field) ([]Statement, error)

	// Placeholder returns the parameter placeholder for the given 1-based
	// position ($1 for PostgreSQL, ? for SQLite).
	Placeholder(position int) string
}

// StatementsFor generates the dialect statements for one operation.
// RunCustom yields no statements: the executor resolves and invokes the
// registered action instead.
func StatementsFor(op Operation, dialect Dialect) ([]Statement, error) {
	switch o := op.(type) {
	case *CreateModel:
		if err := o.Snapshot.Validate(); err != nil {
			return nil, err
		}
		return dialect.CreateTable(&o.Snapshot)
	case *DeleteModel:
		return dialect.DropTable(o.TableName)
	case *AddField:
		return dialect.AddColumn(o.TableName, o.Field)
	case *RemoveField:
		return dialect.DropColumn(o.TableName, o.FieldName)
	case *AlterField:
		return dialect.AlterColumn(o.TableName, o.Old, o.New)
	case *RunCustom:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind())
	}
}
