package wizard

import (
	"github.com/charmbracelet/bubbles/textinput"
)

// step is the current screen in the wizard flow.
type step int

const (
	stepWelcome step = iota
	stepDatabaseType
	stepConnectionDetails
	stepTestConnection
	stepSummary
	stepDone
	stepError
)

// Model holds the Bubble Tea state for the init wizard.
type Model struct {
	step step

	// Database type selection
	dbTypeIndex int

	// Environment being configured
	env EnvironmentInput

	// Input fields for the connection-details screen
	inputs     []textinput.Model
	focusIndex int
	inputErr   string

	// Connection testing
	testing    bool
	testResult string
	testErr    error

	// Final output
	result *InitResult
	err    error
}

// EnvironmentInput holds the user's answers for one environment.
type EnvironmentInput struct {
	Name         string
	DatabaseType string // "postgres", "sqlite", "libsql"
	DatabaseURL  string
}

// InitResult describes what the wizard wrote.
type InitResult struct {
	ConfigPath           string
	EnvFiles             []string
	MigrationsDir        string
	MigrationsDirCreated bool
}

// DatabaseType is one selectable database option.
type DatabaseType struct {
	ID          string
	DisplayName string
	Description string
}

// DatabaseTypes lists the supported databases in selection order.
var DatabaseTypes = []DatabaseType{
	{ID: "postgres", DisplayName: "PostgreSQL", Description: "recommended for production"},
	{ID: "sqlite", DisplayName: "SQLite", Description: "simple, file-based"},
	{ID: "libsql", DisplayName: "libSQL/Turso", Description: "edge database"},
}

// Messages passed back into Update by async commands.

type connectionTestResultMsg struct {
	err error
}

type fileCreationResultMsg struct {
	result *InitResult
	err    error
}
