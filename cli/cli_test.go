package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confideleapcrm/irdesk/config"
	"github.com/confideleapcrm/irdesk/models"
	"github.com/confideleapcrm/irdesk/outreach"
)

func newTestApp(t *testing.T, handler http.Handler) *App {
	t.Helper()
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "irdesk.db")
	cfg.SettingsURL = "https://desk.example.com/settings"
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		cfg.APIBaseURL = srv.URL
	}
	app := &App{Config: cfg, LogOutput: io.Discard}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app, "test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckMappingReportsMissingFields(t *testing.T) {
	app := newTestApp(t, nil)

	_, err := execute(t, app, "investors", "check-mapping", "--map", "name=Full Name", "--map", "email=Email")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"firm"}, verr.Fields)
}

func TestCheckMappingAgainstCSVHeader(t *testing.T) {
	app := newTestApp(t, nil)
	path := filepath.Join(t.TempDir(), "investors.csv")
	require.NoError(t, os.WriteFile(path, []byte("Full Name,Email,Company\nAda,ada@example.com,North\n"), 0o644))

	out, err := execute(t, app, "investors", "check-mapping",
		"--map", "name=Full Name", "--map", "email=Email", "--map", "firm=Company", "--csv", path)
	require.NoError(t, err)
	assert.Contains(t, out, "covers every required field")

	_, err = execute(t, newTestApp(t, nil), "investors", "check-mapping",
		"--map", "name=Full Name", "--map", "email=Email", "--map", "firm=Firm", "--csv", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `firm ("Firm")`)
}

func TestPrefsRoundTrip(t *testing.T) {
	app := newTestApp(t, nil)

	out, err := execute(t, app, "prefs", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved filters")

	_, err = execute(t, app, "prefs", "save", "--company", "10,20", "--sector", "fintech")
	require.NoError(t, err)

	out, err = execute(t, app, "prefs", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "10, 20")
	assert.Contains(t, out, "fintech")

	_, err = execute(t, app, "prefs", "clear")
	require.NoError(t, err)
	out, err = execute(t, app, "prefs", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved filters")
}

func TestListShowAppliesCompanyFilter(t *testing.T) {
	app := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/investor_lists", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": 1, "investor_id": 5, "list_type": "interested", "company_id": 10, "snapshot": {"name": "Ada", "company_name": "Acme"}},
			{"id": 2, "investor_id": 6, "list_type": "interested", "company_id": 20, "snapshot": {"name": "Bo", "company_name": "Beta"}}
		]`))
	}))

	out, err := execute(t, app, "list", "show", "interested", "--company", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
	assert.NotContains(t, out, "Bo ")
	assert.Contains(t, out, "1 rows")
}

func TestListRejectsUnknownList(t *testing.T) {
	app := newTestApp(t, nil)
	_, err := execute(t, app, "list", "show", "matching")
	assert.Error(t, err)
}

func TestClearRequiresConfirmation(t *testing.T) {
	var deletes int
	app := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes++
		}
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := execute(t, app, "list", "clear", "followups")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Zero(t, deletes)
}

func TestMeetLinkWithoutGooglePromptsToConnect(t *testing.T) {
	app := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/meetings/12/generate_meet", r.URL.Path)
		_, _ = w.Write([]byte(`{"google_create_status": "NO_REFRESH_TOKEN"}`))
	}))

	_, err := execute(t, app, "meeting", "link", "12")
	require.ErrorIs(t, err, outreach.ErrGoogleNotConnected)

	var out bytes.Buffer
	app.reportError(&out, err)
	assert.Contains(t, out.String(), "https://desk.example.com/settings")
	assert.Contains(t, out.String(), "--local")
}

func TestLocalMeetLinkRequiresInvestor(t *testing.T) {
	app := newTestApp(t, http.NotFoundHandler())
	_, err := execute(t, app, "meeting", "link", "12", "--local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--investor")
}

func TestMutationsListsJournal(t *testing.T) {
	app := newTestApp(t, nil)
	out, err := execute(t, app, "mutations")
	require.NoError(t, err)
	assert.Contains(t, out, "0 mutations")
}
