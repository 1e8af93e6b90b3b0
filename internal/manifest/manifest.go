// Package manifest loads migration nodes from JSON files, for CLI use. Each
// manifest file carries one node in the serialized operation envelope; files
// are read in lexicographic order, which is the declaration order the
// planner's intra-app chaining relies on.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/seamdb/seam/migrations"
)

// nodeSchema validates manifest files before decoding, so a malformed file
// fails with a field-level message instead of a JSON unmarshal error.
const nodeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["app", "name", "operations"],
  "properties": {
    "app": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "dependencies": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["app", "name"],
        "properties": {
          "app": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1}
        }
      }
    },
    "operations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["op"],
        "properties": {
          "op": {
            "enum": ["create_model", "delete_model", "add_field", "remove_field", "alter_field", "run_custom"]
          }
        }
      }
    }
  }
}`

// LoadFile loads and validates a single node manifest.
func LoadFile(path string) (*migrations.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	schemaLoader := gojsonschema.NewStringLoader(nodeSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate %s: %w", path, err)
	}
	if !result.Valid() {
		messages := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			messages[i] = desc.String()
		}
		return nil, fmt.Errorf("invalid migration manifest %s: %s", path, strings.Join(messages, "; "))
	}

	var node migrations.Node
	if err := node.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := node.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &node, nil
}

// LoadDir loads every *.json manifest from the top level of dir, in
// lexicographic filename order. Subdirectories are skipped.
func LoadDir(dir string) ([]*migrations.Node, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	nodes := make([]*migrations.Node, 0, len(paths))
	for _, path := range paths {
		node, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// App groups manifest nodes under one app name so they satisfy
// migrations.AppMigrations.
type App struct {
	Name  string
	Nodes []*migrations.Node
}

func (a *App) AppName() string                { return a.Name }
func (a *App) Migrations() []*migrations.Node { return a.Nodes }

// GroupByApp partitions loaded nodes into per-app providers, preserving the
// load order within each app and ordering apps by name.
func GroupByApp(nodes []*migrations.Node) []migrations.AppMigrations {
	byApp := make(map[string]*App)
	var names []string
	for _, n := range nodes {
		app, ok := byApp[n.App]
		if !ok {
			app = &App{Name: n.App}
			byApp[n.App] = app
			names = append(names, n.App)
		}
		app.Nodes = append(app.Nodes, n)
	}
	sort.Strings(names)

	providers := make([]migrations.AppMigrations, len(names))
	for i, name := range names {
		providers[i] = byApp[name]
	}
	return providers
}
