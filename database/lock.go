package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// PostgresLock implements migrations.RunLock using PostgreSQL advisory
// locks, so replicas of the same service starting concurrently serialize
// their apply runs at the database. The key is hashed to the int64 that
// pg_advisory_lock expects.
type PostgresLock struct {
	db *sql.DB
}

// NewPostgresLock creates an advisory-lock-backed run lock.
func NewPostgresLock(db *sql.DB) *PostgresLock {
	return &PostgresLock{db: db}
}

// Acquire blocks until the advisory lock is held. The returned release
// function unlocks it.
func (l *PostgresLock) Acquire(ctx context.Context, key string) (func(), error) {
	lockID := hashLockKey(key)

	_, err := l.db.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockID)
	if err != nil {
		return nil, fmt.Errorf("pg_advisory_lock(%d): %w", lockID, err)
	}

	release := func() {
		_, _ = l.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}
	return release, nil
}

// ProcessLock implements migrations.RunLock with a process-local mutex.
// SQLite is single-writer and its file locking covers the cross-process
// case, so a mutex is all that's needed within one process.
type ProcessLock struct {
	mu sync.Mutex
}

// NewProcessLock creates a mutex-backed run lock.
func NewProcessLock() *ProcessLock {
	return &ProcessLock{}
}

// Acquire obtains the mutex. It fails only if the context is already done.
func (l *ProcessLock) Acquire(ctx context.Context, _ string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire process lock: %w", err)
	}

	l.mu.Lock()
	return func() { l.mu.Unlock() }, nil
}

// hashLockKey produces a stable int64 from a string key for
// pg_advisory_lock. FNV-1a, truncated to the positive int64 range.
func hashLockKey(key string) int64 {
	var h uint64 = 14695981039346656037 // FNV offset basis
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= 1099511628211 // FNV prime
	}
	return int64(h & 0x7FFFFFFFFFFFFFFF)
}
