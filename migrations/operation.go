package migrations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Operation is one atomic schema change or custom action within a migration
// node. Operations are data: the closed set of implementations below carries
// everything needed for planning and diffing, and only the executor turns an
// operation into effects. RunCustom is the single escape hatch and even it
// holds just a stable id; the behavior is resolved from an ActionRegistry at
// execution time so operations stay serializable.
type Operation interface {
	// Kind returns the stable tag used in the JSON envelope.
	Kind() string
	// Describe returns a one-line human-readable summary for reports.
	Describe() string
}

// CreateModel creates the table described by the snapshot.
type CreateModel struct {
	Snapshot Snapshot `json:"snapshot"`
}

// DeleteModel drops a table.
type DeleteModel struct {
	TableName string `json:"table_name"`
}

// AddField adds a column to a table.
type AddField struct {
	TableName string `json:"table_name"`
	Field     Field  `json:"field"`
}

// RemoveField drops a column from a table.
type RemoveField struct {
	TableName string `json:"table_name"`
	FieldName string `json:"field_name"`
}

// AlterField changes the shape of an existing column. Both the old and the
// new field are carried so dialects can compute the minimal change set.
type AlterField struct {
	TableName string `json:"table_name"`
	Old       Field  `json:"old"`
	New       Field  `json:"new"`
}

// RunCustom invokes a registered action inside the node's transaction. The
// id must be stable across builds: it is all the planner and the serialized
// form ever see of the action.
type RunCustom struct {
	ID string `json:"id"`
}

func (o *CreateModel) Kind() string { return "create_model" }
func (o *DeleteModel) Kind() string { return "delete_model" }
func (o *AddField) Kind() string    { return "add_field" }
func (o *RemoveField) Kind() string { return "remove_field" }
func (o *AlterField) Kind() string  { return "alter_field" }
func (o *RunCustom) Kind() string   { return "run_custom" }

func (o *CreateModel) Describe() string {
	return fmt.Sprintf("Create model %s (table %s)", o.Snapshot.ModelName, o.Snapshot.TableName)
}

func (o *DeleteModel) Describe() string {
	return fmt.Sprintf("Delete table %s", o.TableName)
}

func (o *AddField) Describe() string {
	return fmt.Sprintf("Add field %s to table %s", o.Field.Name, o.TableName)
}

func (o *RemoveField) Describe() string {
	return fmt.Sprintf("Remove field %s from table %s", o.FieldName, o.TableName)
}

func (o *AlterField) Describe() string {
	return fmt.Sprintf("Alter field %s on table %s", o.New.Name, o.TableName)
}

func (o *RunCustom) Describe() string {
	return fmt.Sprintf("Run custom action %q", o.ID)
}

// operationEnvelope is the serialized form of an operation: the variant tag
// plus the variant's own fields, flattened.
type operationEnvelope struct {
	Op string `json:"op"`
}

// MarshalOperation encodes an operation as a tagged JSON object.
func MarshalOperation(op Operation) ([]byte, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(op.Kind())
	if err != nil {
		return nil, err
	}
	fields["op"] = tag
	return json.Marshal(fields)
}

// UnmarshalOperation decodes a tagged JSON object into the matching variant.
func UnmarshalOperation(data []byte) (Operation, error) {
	var envelope operationEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse operation: %w", err)
	}

	var op Operation
	switch envelope.Op {
	case "create_model":
		op = &CreateModel{}
	case "delete_model":
		op = &DeleteModel{}
	case "add_field":
		op = &AddField{}
	case "remove_field":
		op = &RemoveField{}
	case "alter_field":
		op = &AlterField{}
	case "run_custom":
		op = &RunCustom{}
	case "":
		return nil, fmt.Errorf("operation is missing the \"op\" tag")
	default:
		return nil, fmt.Errorf("unknown operation kind %q", envelope.Op)
	}

	if err := json.Unmarshal(data, op); err != nil {
		return nil, fmt.Errorf("failed to parse %s operation: %w", envelope.Op, err)
	}
	return op, nil
}

// Action is the fixed calling convention for custom migration logic. The
// transaction is the one wrapping the whole node, so an action's effects
// commit or roll back together with the node's schema changes. Actions run
// to completion or fail; there is no partial-effect recovery, and a failure
// aborts the node's transaction unmodified.
type Action func(ctx context.Context, tx *sql.Tx) error

// ActionRegistry resolves RunCustom ids to registered actions. Application
// modules register their actions at startup, before Apply runs.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewActionRegistry creates an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]Action)}
}

// Register binds an action to a stable id. Registering the same id twice is
// a programming error and fails.
func (r *ActionRegistry) Register(id string, action Action) error {
	if id == "" {
		return fmt.Errorf("action id must not be empty")
	}
	if action == nil {
		return fmt.Errorf("action %q must not be nil", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[id]; exists {
		return fmt.Errorf("action %q is already registered", id)
	}
	r.actions[id] = action
	return nil
}

// Resolve returns the action registered under id.
func (r *ActionRegistry) Resolve(id string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[id]
	if !ok {
		return nil, fmt.Errorf("no action registered for id %q", id)
	}
	return action, nil
}

// IDs returns the registered action ids in sorted order.
func (r *ActionRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.actions))
	for id := range r.actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
