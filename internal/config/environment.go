package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const defaultEnvironmentName = "local"

// ResolvedEnvironment is a fully-resolved environment with concrete values.
type ResolvedEnvironment struct {
	Name          string
	DatabaseURL   string
	MigrationsDir string
	DotenvPath    string
	FromConfig    bool
	FromDotenv    bool
}

// ResolveEnvironment resolves a named environment into a concrete connection
// string. Values come from seam.toml first; a .env.<name> file next to the
// config (or the working directory when there is no config) overrides them.
func ResolveEnvironment(config *Config, name string) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if config != nil && config.DefaultEnvironment != "" {
			envName = config.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	resolved := &ResolvedEnvironment{Name: envName}

	var envExists bool
	if config != nil {
		if config.MigrationsDir != "" {
			resolved.MigrationsDir = config.MigrationsDir
			if base := config.ConfigDir(); base != "" && !filepath.IsAbs(resolved.MigrationsDir) {
				resolved.MigrationsDir = filepath.Join(base, resolved.MigrationsDir)
			}
		}
		if config.Environments != nil {
			if cfg, ok := config.Environments[envName]; ok {
				resolved.DatabaseURL = cfg.DatabaseURL
				resolved.FromConfig = true
				envExists = true
			}
		}
	}

	baseDir := ""
	if config != nil {
		baseDir = config.ConfigDir()
	}
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}
	resolved.DotenvPath = filepath.Join(baseDir, ".env."+envName)

	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true

		if value := values["DATABASE_URL"]; value != "" {
			resolved.DatabaseURL = value
		}
		if value := values["SEAM_MIGRATIONS_DIR"]; value != "" {
			resolved.MigrationsDir = value
		}
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to access %s: %w", resolved.DotenvPath, err)
	}

	if config != nil && len(config.Environments) > 0 && !envExists && !resolved.FromDotenv {
		return nil, fmt.Errorf("environment %q not defined in %s and %s not found",
			envName, ConfigFileName, resolved.DotenvPath)
	}
	if resolved.DatabaseURL == "" {
		return nil, fmt.Errorf("no database_url configured for environment %q", envName)
	}

	return resolved, nil
}
