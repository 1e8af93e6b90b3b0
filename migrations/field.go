package migrations

import "fmt"

// SQLType is the abstract column type carried by a Field. Dialects map each
// value to a concrete database type.
type SQLType string

const (
	TypeInt       SQLType = "int"
	TypeBigInt    SQLType = "bigint"
	TypeSmallInt  SQLType = "smallint"
	TypeText      SQLType = "text"
	TypeBool      SQLType = "bool"
	TypeFloat     SQLType = "float"
	TypeDouble    SQLType = "double"
	TypeTimestamp SQLType = "timestamp"
	TypeDate      SQLType = "date"
	TypeBlob      SQLType = "blob"
)

// KnownTypes lists every SQLType understood by the shipped dialects.
var KnownTypes = []SQLType{
	TypeInt, TypeBigInt, TypeSmallInt, TypeText, TypeBool,
	TypeFloat, TypeDouble, TypeTimestamp, TypeDate, TypeBlob,
}

// Valid reports whether t is one of the known abstract types.
func (t SQLType) Valid() bool {
	for _, k := range KnownTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Field describes one column of a model as of one migration. Fields are
// immutable once constructed; a migration that changes a field carries a new
// Field value, not a mutation of the old one.
type Field struct {
	Name       string  `json:"name"`
	Type       SQLType `json:"type"`
	Nullable   bool    `json:"nullable"`
	PrimaryKey bool    `json:"primary_key"`
	Unique     bool    `json:"unique,omitempty"`
	Default    *string `json:"default,omitempty"` // raw SQL literal
}

// Validate checks that the field has a name and a known type.
func (f Field) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("field has no name")
	}
	if !f.Type.Valid() {
		return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
	}
	return nil
}

// Equal reports whether two fields describe the same column shape.
func (f Field) Equal(other Field) bool {
	if f.Name != other.Name ||
		f.Type != other.Type ||
		f.Nullable != other.Nullable ||
		f.PrimaryKey != other.PrimaryKey ||
		f.Unique != other.Unique {
		return false
	}
	if (f.Default == nil) != (other.Default == nil) {
		return false
	}
	if f.Default != nil && *f.Default != *other.Default {
		return false
	}
	return true
}
