// Package tui provides the interactive terminal views of warungctl.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/warunghq/warungctl/internal/api"
)

// PickResult holds the outcome of a tenant pick session.
type PickResult struct {
	// TenantID is the chosen tenant, or "" when the user cancelled.
	TenantID string
}

// pickerKeys are the key bindings for the tenant picker
type pickerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

var defaultPickerKeys = pickerKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
}

// Styles
var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				MarginLeft(2).
				MarginTop(1)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true).
				PaddingLeft(2)

	pickerItemStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	pickerRoleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	pickerErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9")).
				MarginLeft(2)

	pickerHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginLeft(2).
			MarginTop(1)
)

// pickerModel is the BubbleTea model for the tenant picker
type pickerModel struct {
	memberships []api.Membership
	cursor      int
	errMsg      string
	keys        pickerKeys
	result      *PickResult
}

// Init initializes the model
func (m pickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.memberships)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Select):
		m.result = &PickResult{TenantID: m.memberships[m.cursor].TenantID}
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Quit):
		m.result = &PickResult{}
		return m, tea.Quit
	}
	return m, nil
}

// View renders the picker
func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render("Choose a tenant"))
	b.WriteString("\n\n")

	for i, membership := range m.memberships {
		line := membership.TenantID
		if membership.Role != "" {
			line = fmt.Sprintf("%s %s", line, pickerRoleStyle.Render("("+membership.Role+")"))
		}
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(pickerItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(pickerErrorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}

	b.WriteString(pickerHelpStyle.Render("up/down: navigate • enter: select • q: cancel"))
	b.WriteString("\n")
	return b.String()
}

// PickTenant presents the membership list and returns the user's choice.
// errMsg, when non-empty, is shown inline (a previous assume failure).
func PickTenant(memberships []api.Membership, errMsg string) (PickResult, error) {
	if len(memberships) == 0 {
		return PickResult{}, fmt.Errorf("no tenants to choose from")
	}

	model := pickerModel{
		memberships: memberships,
		errMsg:      errMsg,
		keys:        defaultPickerKeys,
	}

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return PickResult{}, fmt.Errorf("run tenant picker: %w", err)
	}

	picked, ok := final.(pickerModel)
	if !ok || picked.result == nil {
		return PickResult{}, nil
	}
	return *picked.result, nil
}
