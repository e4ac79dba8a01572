// ABOUTME: Tabbed list view with count badges and row actions
// ABOUTME: Matching tab shows investor search results instead of list rows
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/confideleapcrm/irdesk/models"
	"github.com/confideleapcrm/irdesk/outreach"
)

var tabLabels = map[models.ListType]string{
	models.ListInterested:    "Interested",
	models.ListFollowups:     "Followups",
	models.ListNotInterested: "Not Interested",
	models.ListMeeting:       "Meeting",
	models.ListMatching:      "Matching",
}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("INVESTOR TARGETING"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n")
	if len(m.filterNames) > 0 {
		s.WriteString(filterStyle.Render("Companies: " + strings.Join(m.filterLabels(), ", ")))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if m.loading {
		s.WriteString("Loading...\n")
	} else {
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(m.renderListHelp())
	return s.String()
}

func (m Model) renderTabs() string {
	counts := m.store.DisplayCounts()
	var rendered []string
	for i, lt := range tabs {
		label := tabLabels[lt]
		if lt != models.ListMatching {
			label = fmt.Sprintf("%s (%d)", label, counts.Get(lt))
		} else if page := m.store.SearchResults(); page != nil {
			label = fmt.Sprintf("%s (%d)", label, page.Total)
		}
		if i == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) tableHeight() int {
	return max(m.height-12, 3)
}

func (m Model) renderTable() string {
	if m.current() == models.ListMatching {
		return m.renderSearchTable()
	}

	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Firm", Width: 24},
		{Title: "Company", Width: 18},
		{Title: "Detail", Width: 28},
	}

	var rows []table.Row
	for _, r := range m.store.Rows() {
		name := r.Snapshot.Name
		if r.Optimistic {
			name += " …"
		}
		rows = append(rows, table.Row{name, r.Snapshot.Firm, r.Snapshot.CompanyName, rowDetail(r)})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

// rowDetail summarises the list-specific part of a snapshot.
func rowDetail(r models.InvestorListRow) string {
	s := r.Snapshot
	switch r.ListType {
	case models.ListMeeting:
		if s.Meeting == nil {
			return ""
		}
		detail := s.Meeting.Status
		if t := s.Meeting.Datetime.Value(); !t.IsZero() {
			detail = strings.TrimSpace(detail + " " + t.Format("Jan 2 15:04"))
		}
		return detail
	case models.ListFollowups:
		if s.Followup == nil {
			return ""
		}
		if t := s.Followup.Date.Value(); !t.IsZero() {
			return t.Format("Jan 2") + " " + s.Followup.Notes
		}
		return s.Followup.Notes
	case models.ListNotInterested:
		return s.NotInterestedNote
	}
	if s.PortfolioFit != nil {
		return fmt.Sprintf("fit %.0f%%", *s.PortfolioFit*100)
	}
	return ""
}

func (m Model) renderSearchTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Firm", Width: 24},
		{Title: "Type", Width: 10},
		{Title: "Sectors", Width: 30},
	}
	var rows []table.Row
	if page := m.store.SearchResults(); page != nil {
		for _, inv := range page.Investors {
			rows = append(rows, table.Row{inv.Name, inv.Firm, inv.FirmType, strings.Join(inv.Sectors, ", ")})
		}
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch list",
		"r: Refresh",
		"c: Companies",
		"x: Clear companies",
		"i: Interested",
	}
	switch m.current() {
	case models.ListMatching:
	case models.ListMeeting:
		help = append(help, "m: Mark done", "d: Delete", "D: Clear list", "a: Activity")
	default:
		help = append(help, "d: Delete", "D: Clear list", "a: Activity")
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) visibleCount() int {
	if m.current() == models.ListMatching {
		if page := m.store.SearchResults(); page != nil {
			return len(page.Investors)
		}
		return 0
	}
	return len(m.store.Rows())
}

func (m *Model) clampSelection() {
	if n := m.visibleCount(); m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
}

func (m Model) selectedListRow() (models.InvestorListRow, bool) {
	rows := m.store.Rows()
	if m.selectedRow < len(rows) {
		return rows[m.selectedRow], true
	}
	return models.InvestorListRow{}, false
}

func (m Model) selectedInvestor() (models.Investor, bool) {
	page := m.store.SearchResults()
	if page != nil && m.selectedRow < len(page.Investors) {
		return page.Investors[m.selectedRow], true
	}
	return models.Investor{}, false
}

func (m Model) switchTab(delta int) (Model, tea.Cmd) {
	m.tab = (m.tab + delta + len(tabs)) % len(tabs)
	m.selectedRow = 0
	m.loading = true
	m.status = ""
	m.err = nil
	return m, m.loadCmd(m.current())
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.visibleCount()-1 {
			m.selectedRow++
		}
	case "tab":
		return m.switchTab(1)
	case "shift+tab":
		return m.switchTab(-1)
	case "r":
		m.loading = true
		m.status = ""
		m.err = nil
		return m, tea.Batch(m.loadCmd(m.current()), m.countsCmd())
	case "c", "/":
		m.viewMode = ViewCompanySearch
		m.input.SetValue("")
		m.suggestions = nil
		m.suggestionIdx = 0
		m.input.Focus()
		return m, nil
	case "x":
		m.applyCompanyFilter(nil)
		return m, tea.Batch(m.saveFilterCmd(), m.loadCmd(m.current()))
	case "i":
		return m, m.quickInterestedCmd()
	case "m":
		if m.current() == models.ListMeeting {
			return m, m.markDoneCmd()
		}
	case "d":
		if row, ok := m.selectedListRow(); ok && m.current() != models.ListMatching {
			m.confirm = &confirmation{action: confirmDeleteRow, rowID: row.ID, label: row.Snapshot.Name}
			m.viewMode = ViewConfirm
		}
	case "D":
		if m.current() != models.ListMatching {
			m.confirm = &confirmation{action: confirmClearList, listType: m.current(), label: tabLabels[m.current()]}
			m.viewMode = ViewConfirm
		}
	case "a":
		if row, ok := m.selectedListRow(); ok && m.current() != models.ListMatching {
			m.viewMode = ViewActivity
			m.activityFor = row.Snapshot.Name
			m.activityRows = nil
			return m, m.activityCmd(row.InvestorID)
		}
	}
	return m, nil
}

func (m Model) quickInterestedCmd() tea.Cmd {
	mutator := m.mutator
	if m.current() == models.ListMatching {
		inv, ok := m.selectedInvestor()
		if !ok {
			return nil
		}
		req := outreach.AddRequest{InvestorID: inv.ID, ListType: models.ListInterested}
		// With exactly one company selected the row is attributed to it.
		if len(m.filterNames) == 1 {
			for id, name := range m.filterNames {
				req.CompanyID, req.CompanyName = id, name
			}
		}
		snap := inv.Snapshot(nil)
		snap.CompanyName = req.CompanyName
		req.Snapshot = &snap
		return func() tea.Msg {
			_, err := mutator.AddToList(context.Background(), req)
			return actionDoneMsg{status: inv.Name + " added to Interested", err: err}
		}
	}
	row, ok := m.selectedListRow()
	if !ok || row.ListType == models.ListInterested {
		return nil
	}
	return func() tea.Msg {
		_, err := mutator.QuickInterested(context.Background(), row)
		return actionDoneMsg{status: row.Snapshot.Name + " added to Interested", err: err}
	}
}

func (m Model) markDoneCmd() tea.Cmd {
	row, ok := m.selectedListRow()
	if !ok {
		return nil
	}
	mutator := m.mutator
	return func() tea.Msg {
		_, err := mutator.MarkMeetingDone(context.Background(), row.InvestorID, row.CompanyID)
		return actionDoneMsg{status: "Meeting with " + row.Snapshot.Name + " marked completed", err: err}
	}
}

// applyCompanyFilter restricts rows, badges and the matching search to ids.
func (m *Model) applyCompanyFilter(ids []models.ID) {
	m.store.SetCompanyFilter(ids)
	q := m.store.Query()
	q.Filters.CustomerIDs = nil
	for _, id := range ids {
		q.Filters.CustomerIDs = append(q.Filters.CustomerIDs, id.String())
	}
	m.store.SetQuery(q)

	names := make(map[models.ID]string, len(ids))
	for _, id := range ids {
		name, ok := m.filterNames[id]
		if !ok {
			name, _ = m.dir.CompanyName(id)
		}
		if name == "" {
			name = id.String()
		}
		names[id] = name
	}
	m.filterNames = names
	m.selectedRow = 0
}

func (m Model) filterLabels() []string {
	labels := make([]string, 0, len(m.filterNames))
	for _, name := range m.filterNames {
		labels = append(labels, name)
	}
	slices.Sort(labels)
	return labels
}

func (m Model) saveFilterCmd() tea.Cmd {
	if m.prefs == nil {
		return nil
	}
	prefs := m.prefs
	filters := m.store.Query().Filters
	return func() tea.Msg {
		if err := prefs.Save(context.Background(), filters); err != nil {
			return actionDoneMsg{err: err}
		}
		return nil
	}
}
