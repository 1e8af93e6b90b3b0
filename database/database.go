// Package database opens connections, detects drivers from connection
// strings, and provides the run lock that serializes concurrent apply runs.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/seamdb/seam/database/postgres"
	"github.com/seamdb/seam/database/sqlite"
	"github.com/seamdb/seam/migrations"
)

// DetectDriver infers the driver type from a connection string.
func DetectDriver(connStr string) string {
	lower := strings.ToLower(connStr)

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "libsql://"):
		return "libsql"
	case lower == ":memory:",
		strings.HasPrefix(lower, "sqlite://"),
		strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"):
		return "sqlite"
	default:
		// Key/value postgres DSNs ("host=... dbname=...") have no scheme.
		if strings.Contains(connStr, "host=") || strings.Contains(connStr, "dbname=") {
			return "postgres"
		}
		return "sqlite"
	}
}

// GetSQLDriverName maps a detected driver type to the name registered with
// database/sql by the imported driver packages.
func GetSQLDriverName(driverType string) string {
	switch driverType {
	case "postgres":
		return "postgres" // github.com/lib/pq
	case "libsql":
		return "libsql" // github.com/tursodatabase/libsql-client-go
	default:
		return "sqlite" // modernc.org/sqlite
	}
}

// DialectFor returns the DDL dialect for a detected driver type. libSQL
// speaks the SQLite dialect.
func DialectFor(driverType string) (migrations.Dialect, error) {
	switch driverType {
	case "postgres":
		return postgres.NewDialect(), nil
	case "sqlite", "libsql":
		return sqlite.NewDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driverType)
	}
}

// LockFor returns the run lock implementation for a detected driver type.
func LockFor(driverType string, db *sql.DB) migrations.RunLock {
	if driverType == "postgres" {
		return NewPostgresLock(db)
	}
	return NewProcessLock()
}

// normalizeSQLitePath strips the sqlite:// scheme so the path can be handed
// to the sqlite driver directly.
func normalizeSQLitePath(connStr string) string {
	if strings.HasPrefix(connStr, "sqlite://") {
		return strings.TrimPrefix(connStr, "sqlite://")
	}
	return connStr
}

// Open connects to the database named by the connection string and verifies
// the connection with a ping.
func Open(ctx context.Context, connStr string) (*sql.DB, string, error) {
	driverType := DetectDriver(connStr)

	dsn := connStr
	if driverType == "sqlite" {
		dsn = normalizeSQLitePath(connStr)
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if _, err := os.Stat(dsn); err != nil && !os.IsNotExist(err) {
				return nil, "", fmt.Errorf("failed to access %s: %w", dsn, err)
			}
		}
	}

	db, err := sql.Open(GetSQLDriverName(driverType), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	return db, driverType, nil
}
