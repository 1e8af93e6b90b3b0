package migrations

import (
	"encoding/json"
	"fmt"
)

// NodeID is the global identity of a migration node: the contributing app
// plus the migration name. The pair must be unique across the whole graph.
type NodeID struct {
	App  string `json:"app"`
	Name string `json:"name"`
}

func (id NodeID) String() string {
	return id.App + "/" + id.Name
}

// Less orders ids lexicographically by (app, name). The planner uses this
// ordering to break ties, which is what makes plans reproducible.
func (id NodeID) Less(other NodeID) bool {
	if id.App != other.App {
		return id.App < other.App
	}
	return id.Name < other.Name
}

// Node is one named, app-scoped unit of schema change: an ordered list of
// operations plus the node's declared dependencies. Nodes are constructed by
// application modules at registration time and immutable thereafter.
type Node struct {
	App          string      `json:"app"`
	Name         string      `json:"name"`
	Dependencies []NodeID    `json:"dependencies,omitempty"`
	Operations   []Operation `json:"operations"`
}

// ID returns the node's global identity.
func (n *Node) ID() NodeID {
	return NodeID{App: n.App, Name: n.Name}
}

// Validate checks the node's own invariants (graph-level invariants such as
// identity uniqueness are the planner's job). Snapshots and field-carrying
// operations are validated here so a malformed field fails at registration
// rather than mid-transaction at apply time.
func (n *Node) Validate() error {
	if n.App == "" {
		return fmt.Errorf("migration node has no app")
	}
	if n.Name == "" {
		return fmt.Errorf("migration node in app %s has no name", n.App)
	}
	for i, op := range n.Operations {
		var err error
		switch o := op.(type) {
		case *CreateModel:
			err = o.Snapshot.Validate()
		case *AddField:
			err = o.Field.Validate()
		case *AlterField:
			if err = o.Old.Validate(); err == nil {
				err = o.New.Validate()
			}
		}
		if err != nil {
			return fmt.Errorf("migration %s operation %d: %w", n.ID(), i, err)
		}
	}
	return nil
}

// MarshalJSON encodes the node with tagged operation objects.
func (n *Node) MarshalJSON() ([]byte, error) {
	ops := make([]json.RawMessage, len(n.Operations))
	for i, op := range n.Operations {
		data, err := MarshalOperation(op)
		if err != nil {
			return nil, fmt.Errorf("migration %s operation %d: %w", n.ID(), i, err)
		}
		ops[i] = data
	}

	type alias struct {
		App          string            `json:"app"`
		Name         string            `json:"name"`
		Dependencies []NodeID          `json:"dependencies,omitempty"`
		Operations   []json.RawMessage `json:"operations"`
	}
	return json.Marshal(alias{
		App:          n.App,
		Name:         n.Name,
		Dependencies: n.Dependencies,
		Operations:   ops,
	})
}

// UnmarshalJSON decodes a node, dispatching each operation on its "op" tag.
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias struct {
		App          string            `json:"app"`
		Name         string            `json:"name"`
		Dependencies []NodeID          `json:"dependencies,omitempty"`
		Operations   []json.RawMessage `json:"operations"`
	}
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ops := make([]Operation, len(raw.Operations))
	for i, rawOp := range raw.Operations {
		op, err := UnmarshalOperation(rawOp)
		if err != nil {
			return fmt.Errorf("migration %s/%s operation %d: %w", raw.App, raw.Name, i, err)
		}
		ops[i] = op
	}

	n.App = raw.App
	n.Name = raw.Name
	n.Dependencies = raw.Dependencies
	n.Operations = ops
	return nil
}

// AppMigrations is the interface application modules implement to contribute
// their migration history. Migrations() must return nodes in declaration
// order: the planner chains each node to its predecessor within the app
// unless the node declares an intra-app dependency of its own.
type AppMigrations interface {
	AppName() string
	Migrations() []*Node
}
