// ABOUTME: Confirmation dialog for removing list rows
// ABOUTME: Handles deleting one row or clearing a whole list
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/confideleapcrm/irdesk/models"
)

type confirmAction int

const (
	confirmDeleteRow confirmAction = iota
	confirmClearList
)

type confirmation struct {
	action   confirmAction
	rowID    models.ID
	listType models.ListType
	label    string
}

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmView() string {
	if m.confirm == nil {
		return ""
	}
	var message string
	switch m.confirm.action {
	case confirmDeleteRow:
		message = fmt.Sprintf("Remove %s from this list?", m.confirm.label)
	case confirmClearList:
		message = fmt.Sprintf("Remove every investor from %s?", m.confirm.label)
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Remove (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		warningStyle.Render("⚠  CONFIRM REMOVAL  ⚠"),
		"",
		message,
		"",
		"This action cannot be undone!",
		"",
		buttons,
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, confirmBoxStyle.Render(content))
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		c := m.confirm
		m.confirm = nil
		m.viewMode = ViewList
		if c == nil {
			return m, nil
		}
		return m, m.removeCmd(*c)
	case "n", "N", "esc":
		m.confirm = nil
		m.viewMode = ViewList
	}
	return m, nil
}

func (m Model) removeCmd(c confirmation) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx := context.Background()
		switch c.action {
		case confirmClearList:
			err := store.RemoveAllInList(ctx, c.listType)
			return actionDoneMsg{status: c.label + " cleared", err: err}
		default:
			err := store.RemoveSingle(ctx, c.rowID)
			return actionDoneMsg{status: c.label + " removed", err: err}
		}
	}
}
