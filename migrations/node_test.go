package migrations

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestNodeJSONRoundTrip(t *testing.T) {
	original := &Node{
		App:          "blog",
		Name:         "0002_add_author",
		Dependencies: []NodeID{{App: "auth", Name: "0001_initial"}},
		Operations: []Operation{
			&AddField{TableName: "posts", Field: Field{Name: "author_id", Type: TypeBigInt}},
			&RunCustom{ID: "blog.backfill_authors"},
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal node: %v", err)
	}

	var decoded Node
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal node: %v", err)
	}
	if !reflect.DeepEqual(&decoded, original) {
		t.Errorf("Round trip changed the node:\nbefore: %#v\nafter:  %#v", original, &decoded)
	}
}

func TestNodeUnmarshalRejectsUnknownOperation(t *testing.T) {
	data := []byte(`{
		"app": "blog",
		"name": "0001_initial",
		"operations": [{"op": "rename_model"}]
	}`)

	var n Node
	err := json.Unmarshal(data, &n)
	if err == nil {
		t.Fatal("Expected error for unknown operation kind")
	}
	if !strings.Contains(err.Error(), "blog/0001_initial") {
		t.Errorf("Expected error to name the migration, got %q", err.Error())
	}
}

func TestNodeValidate(t *testing.T) {
	valid := &Node{
		App:  "blog",
		Name: "0001_initial",
		Operations: []Operation{
			&CreateModel{Snapshot: *userSnapshot()},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid node, got %v", err)
	}

	if err := (&Node{Name: "0001_initial"}).Validate(); err == nil {
		t.Error("Expected error for node without app")
	}
	if err := (&Node{App: "blog"}).Validate(); err == nil {
		t.Error("Expected error for node without name")
	}

	broken := &Node{
		App:  "blog",
		Name: "0001_initial",
		Operations: []Operation{
			&CreateModel{Snapshot: Snapshot{ModelName: "User"}},
		},
	}
	err := broken.Validate()
	if err == nil {
		t.Fatal("Expected error for invalid snapshot")
	}
	if !strings.Contains(err.Error(), "blog/0001_initial") {
		t.Errorf("Expected error to name the migration, got %q", err.Error())
	}
}

func TestNodeValidate_FieldCarryingOperations(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
	}{
		{
			name: "add field without name",
			op:   &AddField{TableName: "posts", Field: Field{Type: TypeText}},
		},
		{
			name: "add field with unknown type",
			op:   &AddField{TableName: "posts", Field: Field{Name: "title", Type: "varchar"}},
		},
		{
			name: "alter field with invalid old shape",
			op: &AlterField{
				TableName: "posts",
				Old:       Field{Type: TypeText},
				New:       Field{Name: "title", Type: TypeText},
			},
		},
		{
			name: "alter field with unknown new type",
			op: &AlterField{
				TableName: "posts",
				Old:       Field{Name: "title", Type: TypeText},
				New:       Field{Name: "title", Type: "varchar"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Node{App: "blog", Name: "0002_change", Operations: []Operation{tt.op}}
			err := n.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), "blog/0002_change") {
				t.Errorf("Expected error to name the migration, got %q", err.Error())
			}
		})
	}
}

func TestNodeIDString(t *testing.T) {
	nodeID := NodeID{App: "blog", Name: "0001_initial"}
	if nodeID.String() != "blog/0001_initial" {
		t.Errorf("Expected blog/0001_initial, got %s", nodeID.String())
	}
}
