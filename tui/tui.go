// ABOUTME: Terminal targeting view using the bubbletea framework
// ABOUTME: Tabs per outreach list with count badges, company filter and quick actions
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/confideleapcrm/irdesk/activity"
	"github.com/confideleapcrm/irdesk/debounce"
	"github.com/confideleapcrm/irdesk/liststore"
	"github.com/confideleapcrm/irdesk/models"
	"github.com/confideleapcrm/irdesk/outreach"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewCompanySearch
	ViewConfirm
	ViewActivity
)

// tabs are the lists in display order; matching is the free search tab.
var tabs = append(append([]models.ListType{}, models.DisplayLists...), models.ListMatching)

// CompanySearcher looks up companies for the filter picker.
type CompanySearcher interface {
	SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error)
}

// Preferences persists the company filter between sessions.
type Preferences interface {
	Load(ctx context.Context) (models.TargetingFilters, bool, error)
	Save(ctx context.Context, filters models.TargetingFilters) error
}

// Deps wires the view to the core components.
type Deps struct {
	Store     *liststore.Store
	Mutator   *outreach.Mutator
	Companies CompanySearcher
	Activity  activity.Fetcher
	Directory *activity.Directory
	Prefs     Preferences
	Debounce  time.Duration
	Logger    *slog.Logger
}

// sender forwards messages from outside the update loop. It is shared by
// every copy of the Model.
type sender struct {
	send func(tea.Msg)
}

func (s *sender) post(msg tea.Msg) {
	if s.send != nil {
		// Never block the caller; it may be the update loop itself.
		go s.send(msg)
	}
}

// Model is the main bubbletea model
type Model struct {
	store     *liststore.Store
	mutator   *outreach.Mutator
	companies CompanySearcher
	fetcher   activity.Fetcher
	dir       *activity.Directory
	prefs     Preferences
	debouncer *debounce.Debouncer
	sender    *sender
	logger    *slog.Logger

	viewMode    ViewMode
	tab         int
	selectedRow int
	loading     bool
	status      string
	err         error

	// Company filter picker
	input         textinput.Model
	suggestions   []models.Company
	suggestionIdx int
	filterNames   map[models.ID]string

	// Pending confirmation
	confirm *confirmation

	// Activity view
	activityFor  string
	activityRows []activity.Row

	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(d Deps) Model {
	input := textinput.New()
	input.Placeholder = "company name"
	input.CharLimit = 80
	input.Cursor.SetMode(cursor.CursorStatic)

	delay := d.Debounce
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		store:       d.Store,
		mutator:     d.Mutator,
		companies:   d.Companies,
		fetcher:     d.Activity,
		dir:         d.Directory,
		prefs:       d.Prefs,
		debouncer:   debounce.New(delay),
		sender:      &sender{},
		logger:      logger,
		viewMode:    ViewList,
		input:       input,
		filterNames: make(map[models.ID]string),
		width:       100,
		height:      30,
	}
	d.Store.OnChange(func() { m.sender.post(storeChangedMsg{}) })
	return m
}

// SetSender connects the model to a running program, usually p.Send.
func (m Model) SetSender(send func(tea.Msg)) {
	m.sender.send = send
}

// Close stops pending debounced work.
func (m Model) Close() {
	m.debouncer.Stop()
}

func (m Model) current() models.ListType {
	return tabs[m.tab]
}

type listLoadedMsg struct {
	listType models.ListType
	err      error
}

type countsLoadedMsg struct{}

type storeChangedMsg struct{}

type prefsLoadedMsg struct {
	filters models.TargetingFilters
	err     error
}

type actionDoneMsg struct {
	status string
	err    error
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadPrefsCmd(), m.loadCmd(m.current()), m.countsCmd())
}

func (m Model) loadCmd(lt models.ListType) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return listLoadedMsg{listType: lt, err: store.LoadList(context.Background(), lt)}
	}
}

func (m Model) countsCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		store.RefreshCounts(context.Background())
		return countsLoadedMsg{}
	}
}

func (m Model) loadPrefsCmd() tea.Cmd {
	if m.prefs == nil {
		return nil
	}
	prefs := m.prefs
	return func() tea.Msg {
		filters, _, err := prefs.Load(context.Background())
		return prefsLoadedMsg{filters: filters, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case listLoadedMsg:
		if msg.listType == m.current() {
			m.loading = false
		}
		if msg.err != nil {
			m.err = msg.err
		}
		m.clampSelection()
		return m, nil
	case countsLoadedMsg, storeChangedMsg:
		m.clampSelection()
		return m, nil
	case prefsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		ids := msg.filters.CompanyIDs()
		if len(ids) == 0 {
			return m, nil
		}
		m.applyCompanyFilter(ids)
		return m, m.loadCmd(m.current())
	case actionDoneMsg:
		m.status = msg.status
		m.err = msg.err
		return m, nil
	case companyQueryMsg:
		return m, m.searchCompaniesCmd(msg.query)
	case companiesMsg:
		return m.handleCompanies(msg), nil
	case activityMsg:
		m.err = msg.err
		m.activityRows = msg.result.Rows
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewCompanySearch:
		return m.renderCompanySearchView()
	case ViewConfirm:
		return m.renderConfirmView()
	case ViewActivity:
		return m.renderActivityView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewCompanySearch:
		return m.handleCompanySearchKeys(msg)
	case ViewConfirm:
		return m.handleConfirmKeys(msg)
	case ViewActivity:
		return m.handleActivityKeys(msg)
	}
	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)
