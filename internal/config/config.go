// Package config locates and loads seam.toml and resolves named
// environments into concrete connection strings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the file seam looks for, walking up from the working
// directory.
const ConfigFileName = "seam.toml"

// EnvironmentConfig describes a single named environment from seam.toml.
type EnvironmentConfig struct {
	DatabaseURL string `toml:"database_url"`
}

// Config is the parsed seam.toml.
type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	MigrationsDir      string                       `toml:"migrations_dir"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`

	ConfigFilePath string `toml:"-"`
}

// ConfigDir returns the directory containing the loaded config file, or ""
// when no file was found.
func (c *Config) ConfigDir() string {
	if c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// Load walks up from the working directory looking for seam.toml, stopping
// at a project boundary. A missing file is not an error: it returns an empty
// config so environment resolution can fall back to dotenv files.
func Load() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadFrom(startDir)
}

// LoadFrom is Load starting from an explicit directory.
func LoadFrom(startDir string) (*Config, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, err
			}

			var config Config
			if err := toml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
			}

			config.ConfigFilePath = configPath
			return &config, nil
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// isProjectRoot checks if the directory is a project root based on common
// markers.
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}
