// Package wizard implements the interactive `seam init` flow on Bubble Tea.
package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// New creates the wizard model at the welcome screen.
func New() Model {
	return Model{step: stepWelcome}
}

// Result returns what the wizard wrote, or nil if it was quit early.
func (m Model) Result() *InitResult {
	return m.result
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.step != stepConnectionDetails {
				return m, tea.Quit
			}
		case "enter":
			return m.handleEnter()
		case "up", "k":
			if m.step == stepDatabaseType && m.dbTypeIndex > 0 {
				m.dbTypeIndex--
			}
			return m, nil
		case "down", "j":
			if m.step == stepDatabaseType && m.dbTypeIndex < len(DatabaseTypes)-1 {
				m.dbTypeIndex++
			}
			return m, nil
		case "tab", "shift+tab":
			if m.step == stepConnectionDetails {
				return m.cycleFocus()
			}
			return m, nil
		}
		if m.step == stepConnectionDetails {
			return m.updateInputs(msg)
		}
		return m, nil

	case connectionTestResultMsg:
		m.testing = false
		m.testErr = msg.err
		if msg.err != nil {
			m.testResult = "failed"
		} else {
			m.testResult = "success"
		}
		return m, nil

	case fileCreationResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.step = stepError
			return m, nil
		}
		m.result = msg.result
		m.step = stepDone
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepWelcome:
		m.step = stepDatabaseType
		return m, nil

	case stepDatabaseType:
		m.env.DatabaseType = DatabaseTypes[m.dbTypeIndex].ID
		m.inputs = newConnectionInputs(m.env.DatabaseType)
		m.focusIndex = 0
		m.inputErr = ""
		m.step = stepConnectionDetails
		return m, m.inputs[0].Focus()

	case stepConnectionDetails:
		name := strings.TrimSpace(m.inputs[0].Value())
		url := strings.TrimSpace(m.inputs[1].Value())

		if err := ValidateEnvironmentName(name); err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		if err := ValidateConnectionString(url, m.env.DatabaseType); err != nil {
			m.inputErr = err.Error()
			return m, nil
		}

		m.env.Name = name
		m.env.DatabaseURL = url
		m.inputErr = ""
		m.step = stepTestConnection
		m.testing = true
		m.testResult = ""
		env := m.env
		return m, func() tea.Msg {
			return connectionTestResultMsg{err: TestConnection(env)}
		}

	case stepTestConnection:
		if m.testing {
			return m, nil
		}
		// Whether the test passed or failed, enter moves on; a failed test
		// is worth knowing about but should not block writing config.
		m.step = stepSummary
		return m, nil

	case stepSummary:
		env := m.env
		return m, func() tea.Msg {
			result, err := writeFiles(env)
			return fileCreationResultMsg{result: result, err: err}
		}
	}

	return m, nil
}

func (m Model) cycleFocus() (tea.Model, tea.Cmd) {
	m.focusIndex = (m.focusIndex + 1) % len(m.inputs)
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		if i == m.focusIndex {
			cmds[i] = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func newConnectionInputs(dbType string) []textinput.Model {
	name := textinput.New()
	name.Placeholder = "local"
	name.CharLimit = 64
	name.Width = 40

	url := textinput.New()
	url.Placeholder = placeholderURL(dbType)
	url.CharLimit = 256
	url.Width = 60

	return []textinput.Model{name, url}
}

// View implements tea.Model.
func (m Model) View() string {
	switch m.step {
	case stepWelcome:
		return m.renderWelcome()
	case stepDatabaseType:
		return m.renderDatabaseType()
	case stepConnectionDetails:
		return m.renderConnectionDetails()
	case stepTestConnection:
		return m.renderTestConnection()
	case stepSummary:
		return m.renderSummary()
	case stepDone:
		return m.renderDone()
	case stepError:
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	default:
		return ""
	}
}

func (m Model) renderWelcome() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("seam init"))
	b.WriteString("\n\n")
	b.WriteString("This wizard creates seam.toml, a credentials dotenv file, and a\nmigrations directory.\n")
	b.WriteString(helpStyle.Render("enter to continue · q to quit"))
	return b.String()
}

func (m Model) renderDatabaseType() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Select your database"))
	b.WriteString("\n\n")

	for i, dbType := range DatabaseTypes {
		cursor := "  "
		style := unselectedStyle
		if i == m.dbTypeIndex {
			cursor = "> "
			style = selectedStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s — %s", cursor, dbType.DisplayName, dbType.Description)))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ to select · enter to confirm · q to quit"))
	return b.String()
}

func (m Model) renderConnectionDetails() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Connection details"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Environment name"))
	b.WriteString("\n")
	b.WriteString(m.inputs[0].View())
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Database URL"))
	b.WriteString("\n")
	b.WriteString(m.inputs[1].View())
	b.WriteString("\n")

	if m.inputErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.inputErr))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("tab to switch fields · enter to continue"))
	return b.String()
}

func (m Model) renderTestConnection() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Testing connection"))
	b.WriteString("\n\n")

	switch {
	case m.testing:
		b.WriteString("Connecting to " + m.env.DatabaseURL + " ...\n")
	case m.testResult == "success":
		b.WriteString(successStyle.Render("Connection successful."))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter to continue"))
	default:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Connection failed: %v", m.testErr)))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter to continue anyway · q to quit"))
	}
	return b.String()
}

func (m Model) renderSummary() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Summary"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  Environment:  %s\n", m.env.Name))
	b.WriteString(fmt.Sprintf("  Database:     %s\n", m.env.DatabaseType))
	b.WriteString(fmt.Sprintf("  URL:          %s\n", m.env.DatabaseURL))
	b.WriteString("\nFiles to write: seam.toml, .env." + m.env.Name + ", migrations/\n")
	b.WriteString(helpStyle.Render("enter to write files · q to quit"))
	return b.String()
}

func (m Model) renderDone() string {
	return successStyle.Render("Configuration written.") + "\n"
}
