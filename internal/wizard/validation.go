package wizard

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// ValidateEnvironmentName checks that an environment name can be used in
// file names and TOML keys.
func ValidateEnvironmentName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name cannot be empty")
	}
	for _, ch := range name {
		isValid := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
		if !isValid {
			return fmt.Errorf("environment name must contain only letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// ValidateConnectionString checks that a connection string matches the
// selected database type.
func ValidateConnectionString(connStr, dbType string) error {
	if connStr == "" {
		return fmt.Errorf("connection string cannot be empty")
	}

	switch dbType {
	case "postgres":
		if !strings.HasPrefix(connStr, "postgres://") &&
			!strings.HasPrefix(connStr, "postgresql://") {
			return fmt.Errorf("PostgreSQL connection string must start with postgres:// or postgresql://")
		}
	case "sqlite":
		if strings.HasPrefix(connStr, "postgres://") ||
			strings.HasPrefix(connStr, "postgresql://") ||
			strings.HasPrefix(connStr, "libsql://") {
			return fmt.Errorf("SQLite connection string must be a file path or sqlite:// URL")
		}
	case "libsql":
		if !strings.HasPrefix(connStr, "libsql://") {
			return fmt.Errorf("libSQL connection string must start with libsql://")
		}
	}
	return nil
}

// sqlDriverFor maps the wizard's database type to a database/sql driver name.
func sqlDriverFor(dbType string) string {
	switch dbType {
	case "postgres":
		return "postgres"
	case "libsql":
		return "libsql"
	default:
		return "sqlite"
	}
}

// TestConnection opens the connection and pings it with a short timeout.
func TestConnection(env EnvironmentInput) error {
	dsn := strings.TrimPrefix(env.DatabaseURL, "sqlite://")

	db, err := sql.Open(sqlDriverFor(env.DatabaseType), dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return nil
}
