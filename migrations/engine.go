package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// Engine is the process-level entry point: it collects the migration nodes
// contributed by every registered application module, plans the pending
// sequence against the ledger, and drives the executor. Frameworks call
// ApplyAll once at startup; an administrative command may call it again at
// any time.
type Engine struct {
	db       *sql.DB
	dialect  Dialect
	ledger   *SQLLedger
	actions  *ActionRegistry
	executor *Executor
	nodes    []*Node
}

// NewEngine creates an engine over the given connection. Each provider's
// Migrations() must return nodes in declaration order.
func NewEngine(db *sql.DB, dialect Dialect, lock RunLock, actions *ActionRegistry, providers ...AppMigrations) (*Engine, error) {
	if actions == nil {
		actions = NewActionRegistry()
	}

	var nodes []*Node
	for _, p := range providers {
		for _, contributed := range p.Migrations() {
			// Copy before filling in the app: the provider's nodes are
			// immutable after registration.
			node := *contributed
			if node.App == "" {
				node.App = p.AppName()
			}
			if node.App != p.AppName() {
				return nil, fmt.Errorf("migration %s contributed by app %s", node.ID(), p.AppName())
			}
			if err := node.Validate(); err != nil {
				return nil, err
			}
			nodes = append(nodes, &node)
		}
	}

	ledger := NewSQLLedger(db, dialect)
	return &Engine{
		db:       db,
		dialect:  dialect,
		ledger:   ledger,
		actions:  actions,
		executor: NewExecutor(db, dialect, ledger, actions, lock),
		nodes:    nodes,
	}, nil
}

// Nodes returns all known migration nodes.
func (e *Engine) Nodes() []*Node {
	return e.nodes
}

// Ledger exposes the engine's ledger for status reporting.
func (e *Engine) Ledger() *SQLLedger {
	return e.ledger
}

// Pending returns the plan that an ApplyAll call would execute right now.
func (e *Engine) Pending(ctx context.Context) ([]NodeID, error) {
	if err := e.ledger.EnsureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := e.ledger.AllApplied(ctx)
	if err != nil {
		return nil, err
	}
	return Plan(e.nodes, applied)
}

// ApplyAll plans and applies every pending migration. The plan is derived
// inside the run lock from the live ledger on every invocation rather than
// resumed from a stored cursor: a retry after a partial run attempts only
// the remaining suffix, and a replica that waited on the lock while another
// instance migrated re-plans against the updated ledger and applies nothing.
func (e *Engine) ApplyAll(ctx context.Context) (*ApplyReport, error) {
	lookup := make(map[NodeID]*Node, len(e.nodes))
	for _, n := range e.nodes {
		lookup[n.ID()] = n
	}
	return e.executor.Apply(ctx, e.Pending, lookup)
}

// Status partitions all known nodes into applied and pending, preserving
// plan order for the pending part.
func (e *Engine) Status(ctx context.Context) (applied []NodeID, pending []NodeID, err error) {
	if err := e.ledger.EnsureTable(ctx); err != nil {
		return nil, nil, err
	}
	appliedSet, err := e.ledger.AllApplied(ctx)
	if err != nil {
		return nil, nil, err
	}

	for _, n := range e.nodes {
		if appliedSet[n.ID()] {
			applied = append(applied, n.ID())
		}
	}

	pending, err = Plan(e.nodes, appliedSet)
	if err != nil {
		return nil, nil, err
	}
	return applied, pending, nil
}
