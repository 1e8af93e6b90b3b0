package migrations

import "fmt"

// Snapshot is the immutable description of one model's shape as of one
// migration. A later migration that alters the model owns a new Snapshot;
// the old one is never mutated, so the diff between two sequential snapshots
// of the same model is a straightforward set comparison.
type Snapshot struct {
	ModelName string  `json:"model_name"`
	TableName string  `json:"table_name"`
	Fields    []Field `json:"fields"`
}

// Validate checks the snapshot invariants: non-empty names, unique field
// names, known field types, and exactly one primary key field.
func (s *Snapshot) Validate() error {
	if s.ModelName == "" {
		return fmt.Errorf("snapshot has no model name")
	}
	if s.TableName == "" {
		return fmt.Errorf("snapshot %s has no table name", s.ModelName)
	}

	seen := make(map[string]bool, len(s.Fields))
	primaryKeys := 0
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("snapshot %s has a field with no name", s.ModelName)
		}
		if seen[f.Name] {
			return fmt.Errorf("snapshot %s has duplicate field %q", s.ModelName, f.Name)
		}
		seen[f.Name] = true

		if !f.Type.Valid() {
			return fmt.Errorf("snapshot %s field %q has unknown type %q", s.ModelName, f.Name, f.Type)
		}
		if f.PrimaryKey {
			primaryKeys++
		}
	}

	if primaryKeys != 1 {
		return fmt.Errorf("snapshot %s must have exactly one primary key field, has %d", s.ModelName, primaryKeys)
	}
	return nil
}

// FieldByName returns the field with the given name, if present.
func (s *Snapshot) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// DiffSnapshots compares two sequential snapshots of the same model and
// returns the operations that transform old into new. A nil old snapshot
// yields a CreateModel; a nil new snapshot yields a DeleteModel. The
// operation set has no rename-model variant, so snapshots naming different
// tables cannot be diffed and are rejected.
func DiffSnapshots(old, new *Snapshot) ([]Operation, error) {
	if old == nil && new == nil {
		return nil, nil
	}
	if old == nil {
		return []Operation{&CreateModel{Snapshot: *new}}, nil
	}
	if new == nil {
		return []Operation{&DeleteModel{TableName: old.TableName}}, nil
	}
	if old.TableName != new.TableName {
		return nil, fmt.Errorf("snapshots of %s name different tables (%s, %s); a table rename needs a custom operation",
			new.ModelName, old.TableName, new.TableName)
	}

	var ops []Operation

	// Added and altered fields, in new-snapshot declaration order.
	for _, f := range new.Fields {
		oldField, exists := old.FieldByName(f.Name)
		if !exists {
			ops = append(ops, &AddField{TableName: new.TableName, Field: f})
			continue
		}
		if !oldField.Equal(f) {
			ops = append(ops, &AlterField{TableName: new.TableName, Old: oldField, New: f})
		}
	}

	// Removed fields, in old-snapshot declaration order.
	for _, f := range old.Fields {
		if _, exists := new.FieldByName(f.Name); !exists {
			ops = append(ops, &RemoveField{TableName: new.TableName, FieldName: f.Name})
		}
	}

	return ops, nil
}
