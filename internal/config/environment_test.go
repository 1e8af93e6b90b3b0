package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func configWithEnvs(t *testing.T, dir string) *Config {
	t.Helper()
	writeFile(t, filepath.Join(dir, ConfigFileName), `
default_environment = "local"
migrations_dir = "migrations"

[environments.local]
database_url = "sqlite://local.db"

[environments.staging]
database_url = "postgres://staging.example.com/app"
`)
	config, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	return config
}

func TestResolveEnvironment_FromConfig(t *testing.T) {
	dir := t.TempDir()
	config := configWithEnvs(t, dir)

	resolved, err := ResolveEnvironment(config, "staging")
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}

	if resolved.DatabaseURL != "postgres://staging.example.com/app" {
		t.Errorf("Unexpected url: %q", resolved.DatabaseURL)
	}
	if !resolved.FromConfig || resolved.FromDotenv {
		t.Errorf("Expected config-only resolution, got %+v", resolved)
	}
	if resolved.MigrationsDir != filepath.Join(dir, "migrations") {
		t.Errorf("Expected migrations dir anchored at config, got %q", resolved.MigrationsDir)
	}
}

func TestResolveEnvironment_DefaultName(t *testing.T) {
	dir := t.TempDir()
	config := configWithEnvs(t, dir)

	resolved, err := ResolveEnvironment(config, "")
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	if resolved.Name != "local" {
		t.Errorf("Expected default environment local, got %q", resolved.Name)
	}
	if resolved.DatabaseURL != "sqlite://local.db" {
		t.Errorf("Unexpected url: %q", resolved.DatabaseURL)
	}
}

func TestResolveEnvironment_DotenvOverride(t *testing.T) {
	dir := t.TempDir()
	config := configWithEnvs(t, dir)
	writeFile(t, filepath.Join(dir, ".env.staging"),
		"DATABASE_URL=postgres://override.example.com/app\nSEAM_MIGRATIONS_DIR=/srv/migrations\n")

	resolved, err := ResolveEnvironment(config, "staging")
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}

	if resolved.DatabaseURL != "postgres://override.example.com/app" {
		t.Errorf("Expected dotenv override, got %q", resolved.DatabaseURL)
	}
	if resolved.MigrationsDir != "/srv/migrations" {
		t.Errorf("Expected dotenv migrations dir, got %q", resolved.MigrationsDir)
	}
	if !resolved.FromConfig || !resolved.FromDotenv {
		t.Errorf("Expected both sources, got %+v", resolved)
	}
}

func TestResolveEnvironment_DotenvOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `default_environment = "ci"`)
	writeFile(t, filepath.Join(dir, ".env.ci"), "DATABASE_URL=:memory:\n")

	config, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	resolved, err := ResolveEnvironment(config, "")
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	if resolved.DatabaseURL != ":memory:" {
		t.Errorf("Unexpected url: %q", resolved.DatabaseURL)
	}
	if resolved.FromConfig || !resolved.FromDotenv {
		t.Errorf("Expected dotenv-only resolution, got %+v", resolved)
	}
}

func TestResolveEnvironment_UnknownEnvironment(t *testing.T) {
	dir := t.TempDir()
	config := configWithEnvs(t, dir)

	_, err := ResolveEnvironment(config, "production")
	if err == nil {
		t.Fatal("Expected error for undefined environment")
	}
	if !strings.Contains(err.Error(), "production") {
		t.Errorf("Expected the error to name the environment, got %q", err.Error())
	}
}

func TestResolveEnvironment_MissingDatabaseURL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `
[environments.local]
database_url = ""
`)
	config, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if _, err := ResolveEnvironment(config, "local"); err == nil {
		t.Error("Expected error for empty database_url")
	}
}
