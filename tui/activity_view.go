// ABOUTME: Activity timeline for the selected investor
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/confideleapcrm/irdesk/activity"
	"github.com/confideleapcrm/irdesk/models"
)

type activityMsg struct {
	result activity.Result
	err    error
}

func (m Model) activityCmd(investorID models.ID) tea.Cmd {
	if m.fetcher == nil {
		return nil
	}
	fetcher, dir := m.fetcher, m.dir
	return func() tea.Msg {
		res, err := activity.ForInvestor(context.Background(), fetcher, dir, investorID,
			activity.Filters{SortBy: activity.SortDate, Descending: true})
		return activityMsg{result: res, err: err}
	}
}

func (m Model) renderActivityView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("ACTIVITY: " + m.activityFor))
	s.WriteString("\n\n")

	columns := []table.Column{
		{Title: "Date", Width: 17},
		{Title: "Type", Width: 15},
		{Title: "Company", Width: 20},
		{Title: "Details", Width: 40},
	}
	var rows []table.Row
	for _, r := range m.activityRows {
		date := r.DisplayDate()
		detail := r.Content
		if r.Status != "" {
			detail = strings.TrimSpace(r.Status + " " + detail)
		}
		rows = append(rows, table.Row{date, string(r.Type), r.CompanyName, detail})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(m.tableHeight()),
	)
	s.WriteString(t.View())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}
	s.WriteString(helpStyle.Render("Esc: Back • q: Quit"))
	return s.String()
}

func (m Model) handleActivityKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.viewMode = ViewList
		m.activityRows = nil
		m.err = nil
	}
	return m, nil
}

