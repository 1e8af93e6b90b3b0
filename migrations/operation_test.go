package migrations

import (
	"context"
	"database/sql"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestOperationRoundTrip(t *testing.T) {
	def := "now()"
	ops := []Operation{
		&CreateModel{Snapshot: *userSnapshot()},
		&DeleteModel{TableName: "users"},
		&AddField{TableName: "users", Field: Field{Name: "bio", Type: TypeText, Nullable: true}},
		&RemoveField{TableName: "users", FieldName: "bio"},
		&AlterField{
			TableName: "users",
			Old:       Field{Name: "created_at", Type: TypeTimestamp},
			New:       Field{Name: "created_at", Type: TypeTimestamp, Default: &def},
		},
		&RunCustom{ID: "blog.backfill_slugs"},
	}

	for _, op := range ops {
		t.Run(op.Kind(), func(t *testing.T) {
			data, err := MarshalOperation(op)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}

			var tagged map[string]json.RawMessage
			if err := json.Unmarshal(data, &tagged); err != nil {
				t.Fatalf("Marshaled operation is not a JSON object: %v", err)
			}
			var tag string
			if err := json.Unmarshal(tagged["op"], &tag); err != nil || tag != op.Kind() {
				t.Fatalf("Expected op tag %q, got %q (%v)", op.Kind(), tag, err)
			}

			decoded, err := UnmarshalOperation(data)
			if err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if !reflect.DeepEqual(decoded, op) {
				t.Errorf("Round trip changed the operation:\nbefore: %#v\nafter:  %#v", op, decoded)
			}
		})
	}
}

func TestUnmarshalOperationErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "missing tag",
			data:    `{"table_name": "users"}`,
			wantErr: "missing",
		},
		{
			name:    "unknown kind",
			data:    `{"op": "rename_model"}`,
			wantErr: "unknown operation kind",
		},
		{
			name:    "not json",
			data:    `{`,
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalOperation([]byte(tt.data))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestActionRegistry(t *testing.T) {
	registry := NewActionRegistry()
	noop := func(ctx context.Context, tx *sql.Tx) error { return nil }

	if err := registry.Register("blog.backfill_slugs", noop); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if err := registry.Register("auth.seed_roles", noop); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	if err := registry.Register("blog.backfill_slugs", noop); err == nil {
		t.Error("Expected duplicate registration to fail")
	}
	if err := registry.Register("", noop); err == nil {
		t.Error("Expected empty id registration to fail")
	}
	if err := registry.Register("nil.action", nil); err == nil {
		t.Error("Expected nil action registration to fail")
	}

	if _, err := registry.Resolve("blog.backfill_slugs"); err != nil {
		t.Errorf("Failed to resolve registered action: %v", err)
	}
	if _, err := registry.Resolve("missing"); err == nil {
		t.Error("Expected resolving an unregistered id to fail")
	}

	ids := registry.IDs()
	expected := []string{"auth.seed_roles", "blog.backfill_slugs"}
	if !reflect.DeepEqual(ids, expected) {
		t.Errorf("Expected ids %v, got %v", expected, ids)
	}
}
