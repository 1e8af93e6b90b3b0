package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LedgerTable is the name of the table recording applied migrations.
const LedgerTable = "seam_migrations"

// LedgerEntry records one applied migration. Entries are written exactly
// once, inside the transaction that applied the node, and never mutated or
// deleted by this package.
type LedgerEntry struct {
	App       string
	Name      string
	AppliedAt time.Time
}

// Ledger is the single source of truth for which migrations have run. The
// planner treats it as authoritative even when node definitions on disk have
// changed since: an applied node's operations are never re-examined.
type Ledger interface {
	// IsApplied reports whether the given node has been applied.
	IsApplied(ctx context.Context, id NodeID) (bool, error)

	// AllApplied returns the set of applied node ids.
	AllApplied(ctx context.Context) (map[NodeID]bool, error)

	// Record writes the entry for an applied node. It is called only inside
	// the executor's transaction so entry and effects commit atomically.
	Record(ctx context.Context, tx *sql.Tx, id NodeID, appliedAt time.Time) error
}

// SQLLedger stores ledger entries in the seam_migrations table. The table's
// own schema is bootstrapped by EnsureTable, outside the generic migration
// flow, since the ledger cannot depend on itself. The (app, name) primary
// key makes a racing duplicate insert fail loudly rather than silently
// double-applying.
type SQLLedger struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLLedger creates a ledger backed by the given database.
func NewSQLLedger(db *sql.DB, dialect Dialect) *SQLLedger {
	return &SQLLedger{db: db, dialect: dialect}
}

// EnsureTable creates the ledger table if it does not exist yet. The DDL is
// deliberately portable across the shipped dialects.
func (l *SQLLedger) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  app TEXT NOT NULL,
  name TEXT NOT NULL,
  applied_at TIMESTAMP NOT NULL,
  PRIMARY KEY (app, name)
)`, LedgerTable)

	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s table: %w", LedgerTable, err)
	}
	return nil
}

// IsApplied reports whether the given node has a ledger entry.
func (l *SQLLedger) IsApplied(ctx context.Context, id NodeID) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE app = %s AND name = %s",
		LedgerTable, l.dialect.Placeholder(1), l.dialect.Placeholder(2))

	var one int
	err := l.db.QueryRowContext(ctx, query, id.App, id.Name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", LedgerTable, err)
	}
	return true, nil
}

// AllApplied returns the full applied set.
func (l *SQLLedger) AllApplied(ctx context.Context) (map[NodeID]bool, error) {
	query := fmt.Sprintf("SELECT app, name FROM %s", LedgerTable)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", LedgerTable, err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[NodeID]bool)
	for rows.Next() {
		var id NodeID
		if err := rows.Scan(&id.App, &id.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", LedgerTable, err)
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

// Entries returns every ledger entry ordered by applied_at then id, for
// status reporting.
func (l *SQLLedger) Entries(ctx context.Context) ([]LedgerEntry, error) {
	query := fmt.Sprintf("SELECT app, name, applied_at FROM %s ORDER BY applied_at, app, name", LedgerTable)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", LedgerTable, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.App, &e.Name, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", LedgerTable, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Record inserts the entry for an applied node inside the node's own
// transaction.
func (l *SQLLedger) Record(ctx context.Context, tx *sql.Tx, id NodeID, appliedAt time.Time) error {
	query := fmt.Sprintf("INSERT INTO %s (app, name, applied_at) VALUES (%s, %s, %s)",
		LedgerTable, l.dialect.Placeholder(1), l.dialect.Placeholder(2), l.dialect.Placeholder(3))

	if _, err := tx.ExecContext(ctx, query, id.App, id.Name, appliedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert %s entry for %s: %w", LedgerTable, id, err)
	}
	return nil
}
