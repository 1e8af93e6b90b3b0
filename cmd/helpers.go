package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/seamdb/seam/database"
	"github.com/seamdb/seam/internal/config"
	"github.com/seamdb/seam/internal/manifest"
	"github.com/seamdb/seam/migrations"
)

const defaultMigrationsDir = "migrations"

// environment resolves the --env flag against seam.toml and dotenv files.
func environment(envName string) (*config.ResolvedEnvironment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config.ResolveEnvironment(cfg, envName)
}

// migrationsDir picks the manifest directory: flag first, then config, then
// the default.
func migrationsDir(flagValue string, env *config.ResolvedEnvironment) string {
	if flagValue != "" {
		return flagValue
	}
	if env != nil && env.MigrationsDir != "" {
		return env.MigrationsDir
	}
	return defaultMigrationsDir
}

// dialectForEnv returns the dialect implied by the environment's connection
// string without opening another connection.
func dialectForEnv(_ context.Context, env *config.ResolvedEnvironment) (migrations.Dialect, error) {
	return database.DialectFor(database.DetectDriver(env.DatabaseURL))
}

// openEngine connects to the environment's database and builds an engine
// over the manifests in dir. The CLI has no way to register custom actions,
// so manifests using run_custom fail at apply time with a resolution error.
func openEngine(ctx context.Context, env *config.ResolvedEnvironment, dir string) (*migrations.Engine, *sql.DB, error) {
	nodes, err := manifest.LoadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	db, driverType, err := database.Open(ctx, env.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	dialect, err := database.DialectFor(driverType)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	engine, err := migrations.NewEngine(db, dialect, database.LockFor(driverType, db), nil, manifest.GroupByApp(nodes)...)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return engine, db, nil
}
