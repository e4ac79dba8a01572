// ABOUTME: Company filter picker with debounced search-as-you-type
// ABOUTME: Selected companies narrow every list and the count badges
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/confideleapcrm/irdesk/models"
)

const companySuggestionLimit = 10

var (
	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	suggestionSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("255")).
				Bold(true)
)

// companyQueryMsg is posted by the debouncer once typing pauses.
type companyQueryMsg struct {
	query string
}

type companiesMsg struct {
	query     string
	companies []models.Company
	err       error
}

func (m Model) renderCompanySearchView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("FILTER BY COMPANY"))
	s.WriteString("\n\n")
	s.WriteString(m.input.View())
	s.WriteString("\n\n")

	if len(m.suggestions) == 0 && strings.TrimSpace(m.input.Value()) != "" {
		s.WriteString(suggestionStyle.Render("No matching companies"))
		s.WriteString("\n")
	}
	for i, c := range m.suggestions {
		marker := "  "
		if _, ok := m.filterNames[c.ID]; ok {
			marker = "✓ "
		}
		line := marker + c.Name
		if i == m.suggestionIdx {
			s.WriteString(suggestionSelectedStyle.Render("▶ " + line))
		} else {
			s.WriteString(suggestionStyle.Render("  " + line))
		}
		s.WriteString("\n")
	}
	if len(m.filterNames) > 0 {
		s.WriteString("\n")
		s.WriteString(filterStyle.Render(fmt.Sprintf("Selected: %s", strings.Join(m.filterLabels(), ", "))))
		s.WriteString("\n")
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	help := []string{"Type to search", "↑/↓: Choose", "Enter: Toggle", "Esc: Done"}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleCompanySearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.debouncer.Cancel()
		m.input.Blur()
		m.viewMode = ViewList
		m.loading = true
		return m, tea.Batch(m.saveFilterCmd(), m.loadCmd(m.current()))
	case "up":
		if m.suggestionIdx > 0 {
			m.suggestionIdx--
		}
		return m, nil
	case "down":
		if m.suggestionIdx < len(m.suggestions)-1 {
			m.suggestionIdx++
		}
		return m, nil
	case "enter":
		if m.suggestionIdx < len(m.suggestions) {
			m.toggleCompany(m.suggestions[m.suggestionIdx])
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if query := m.input.Value(); query != before {
		m.scheduleSearch(query)
	}
	return m, cmd
}

// scheduleSearch debounces the company lookup for query.
func (m Model) scheduleSearch(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		m.debouncer.Cancel()
		return
	}
	s := m.sender
	m.debouncer.Do(func() { s.post(companyQueryMsg{query: query}) })
}

func (m Model) searchCompaniesCmd(query string) tea.Cmd {
	if m.companies == nil {
		return nil
	}
	companies := m.companies
	return func() tea.Msg {
		found, err := companies.SearchCompanies(context.Background(), query, companySuggestionLimit)
		return companiesMsg{query: query, companies: found, err: err}
	}
}

func (m Model) handleCompanies(msg companiesMsg) Model {
	// Results for a query the user has since changed are stale.
	if strings.TrimSpace(m.input.Value()) != msg.query {
		return m
	}
	m.err = msg.err
	m.suggestions = msg.companies
	m.suggestionIdx = 0
	if m.dir != nil {
		for _, c := range msg.companies {
			m.dir.Put(c)
		}
	}
	return m
}

func (m *Model) toggleCompany(c models.Company) {
	ids := make([]models.ID, 0, len(m.filterNames)+1)
	selected := false
	for id := range m.filterNames {
		if id == c.ID {
			selected = true
			continue
		}
		ids = append(ids, id)
	}
	if !selected {
		ids = append(ids, c.ID)
		m.filterNames[c.ID] = c.Name
	}
	m.applyCompanyFilter(ids)
}
