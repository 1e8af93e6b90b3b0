package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunLock serializes whole apply runs across process instances. A second
// instance either blocks in Acquire until the first finishes, or acquires
// the lock and finds the ledger already updated with nothing left to plan.
type RunLock interface {
	// Acquire obtains the lock for the given key and returns the release
	// function. The lock is held for the duration of one apply run.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// RunLockKey is the lock key guarding apply runs.
const RunLockKey = "seam_apply"

// ApplyErrorKind discriminates the ways execution can fail. Every kind is
// fatal to the remainder of the run but never corrupts state committed for
// earlier nodes.
type ApplyErrorKind string

const (
	// OperationFailed means one of a node's operations failed; the node's
	// transaction was rolled back.
	OperationFailed ApplyErrorKind = "operation_failed"
	// LedgerWriteFailed means the node's operations ran but its ledger entry
	// could not be committed; the transaction was rolled back, so the node
	// remains pending.
	LedgerWriteFailed ApplyErrorKind = "ledger_write_failed"
	// LockUnavailable means the run lock could not be acquired.
	LockUnavailable ApplyErrorKind = "lock_unavailable"
)

// ApplyError is returned by Apply when a run stops early.
type ApplyError struct {
	Kind           ApplyErrorKind
	Node           NodeID
	OperationIndex int
	Cause          error
}

func (e *ApplyError) Error() string {
	switch e.Kind {
	case OperationFailed:
		return fmt.Sprintf("migration %s failed at operation %d: %v", e.Node, e.OperationIndex, e.Cause)
	case LedgerWriteFailed:
		return fmt.Sprintf("migration %s applied but its ledger entry could not be written: %v", e.Node, e.Cause)
	case LockUnavailable:
		return fmt.Sprintf("migration lock unavailable: %v", e.Cause)
	default:
		return fmt.Sprintf("apply error %q on migration %s: %v", e.Kind, e.Node, e.Cause)
	}
}

func (e *ApplyError) Unwrap() error { return e.Cause }

// NodeStatus is the per-node outcome recorded in an ApplyReport.
type NodeStatus string

const (
	StatusApplied NodeStatus = "applied"
	StatusFailed  NodeStatus = "failed"
	StatusSkipped NodeStatus = "skipped"
)

// NodeResult records the outcome of one planned node.
type NodeResult struct {
	ID       NodeID        `json:"id"`
	Status   NodeStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// ApplyReport describes how far an apply run got. Nodes after a failed one
// are reported as skipped: they were never attempted, since they may depend
// on the failed node's effects.
type ApplyReport struct {
	Results []NodeResult `json:"results"`
}

// Applied returns the number of nodes that committed during this run.
func (r *ApplyReport) Applied() int {
	count := 0
	for _, res := range r.Results {
		if res.Status == StatusApplied {
			count++
		}
	}
	return count
}

// Executor runs a plan against a database connection, one migration per
// transaction, writing the ledger entry in the same transaction as the
// operations it records. It is the only writer of ledger entries.
type Executor struct {
	db      *sql.DB
	dialect Dialect
	ledger  Ledger
	actions *ActionRegistry
	lock    RunLock
}

// NewExecutor creates an executor. The action registry may be empty when no
// node uses RunCustom.
func NewExecutor(db *sql.DB, dialect Dialect, ledger Ledger, actions *ActionRegistry, lock RunLock) *Executor {
	if actions == nil {
		actions = NewActionRegistry()
	}
	return &Executor{
		db:      db,
		dialect: dialect,
		ledger:  ledger,
		actions: actions,
		lock:    lock,
	}
}

// PlanFunc derives the sequence of pending nodes from the live ledger.
// Apply calls it only after the run lock is held, so a run that waited on
// the lock plans against the ledger exactly as the previous holder left it.
type PlanFunc func(ctx context.Context) ([]NodeID, error)

// Apply acquires the run lock, derives the plan, and runs it in order.
// Processing is strictly sequential: a later node may depend on an earlier
// node's DDL having committed. On the first node-level failure the run
// stops, the failed node's transaction is rolled back, and the remaining
// plan is reported as skipped; the returned report describes exactly how far
// the run got. Because planning happens inside the lock, a second instance
// that blocked in Acquire while another instance migrated finds nothing left
// to plan and applies nothing.
func (e *Executor) Apply(ctx context.Context, plan PlanFunc, lookup map[NodeID]*Node) (*ApplyReport, error) {
	release, err := e.lock.Acquire(ctx, RunLockKey)
	if err != nil {
		return &ApplyReport{}, &ApplyError{Kind: LockUnavailable, Cause: err}
	}
	defer release()

	planned, err := plan(ctx)
	if err != nil {
		return &ApplyReport{}, err
	}

	report := &ApplyReport{Results: make([]NodeResult, 0, len(planned))}

	for i, id := range planned {
		node, ok := lookup[id]
		if !ok {
			// A plan can only reference nodes from the set it was derived
			// from; a miss means the caller mixed plan and node set.
			return report, fmt.Errorf("plan references unknown migration %s", id)
		}

		start := time.Now()
		applyErr := e.applyNode(ctx, node)
		elapsed := time.Since(start)

		if applyErr != nil {
			report.Results = append(report.Results, NodeResult{
				ID:       id,
				Status:   StatusFailed,
				Duration: elapsed,
				Error:    applyErr.Error(),
			})
			for _, rest := range planned[i+1:] {
				report.Results = append(report.Results, NodeResult{ID: rest, Status: StatusSkipped})
			}
			return report, applyErr
		}

		report.Results = append(report.Results, NodeResult{
			ID:       id,
			Status:   StatusApplied,
			Duration: elapsed,
		})
	}

	return report, nil
}

// applyNode runs one node inside one transaction: all operations in declared
// order, then the ledger entry, then commit. A crash or failure anywhere
// before commit leaves neither effects nor a ledger entry behind.
func (e *Executor) applyNode(ctx context.Context, node *Node) error {
	id := node.ID()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &ApplyError{Kind: OperationFailed, Node: id, Cause: fmt.Errorf("failed to begin transaction: %w", err)}
	}

	for i, op := range node.Operations {
		if err := e.runOperation(ctx, tx, op); err != nil {
			_ = tx.Rollback()
			return &ApplyError{Kind: OperationFailed, Node: id, OperationIndex: i, Cause: err}
		}
	}

	if err := e.ledger.Record(ctx, tx, id, time.Now()); err != nil {
		_ = tx.Rollback()
		return &ApplyError{Kind: LedgerWriteFailed, Node: id, Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return &ApplyError{Kind: LedgerWriteFailed, Node: id, Cause: fmt.Errorf("failed to commit: %w", err)}
	}
	return nil
}

// runOperation executes one operation within the node's transaction.
// Built-in operations go through the dialect's DDL generator; RunCustom
// resolves the registered action and hands it the same transaction.
func (e *Executor) runOperation(ctx context.Context, tx *sql.Tx, op Operation) error {
	if custom, ok := op.(*RunCustom); ok {
		action, err := e.actions.Resolve(custom.ID)
		if err != nil {
			return err
		}
		return action(ctx, tx)
	}

	statements, err := StatementsFor(op, e.dialect)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt.SQL); err != nil {
			return fmt.Errorf("%s: %w", stmt.Description, err)
		}
	}
	return nil
}
