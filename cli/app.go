// ABOUTME: Lazily wired application components shared by CLI commands
// ABOUTME: Opens the local database, API client, dispatcher, list store and mutator
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"

	"github.com/confideleapcrm/irdesk/activity"
	"github.com/confideleapcrm/irdesk/api"
	"github.com/confideleapcrm/irdesk/config"
	"github.com/confideleapcrm/irdesk/db"
	"github.com/confideleapcrm/irdesk/events"
	"github.com/confideleapcrm/irdesk/liststore"
	"github.com/confideleapcrm/irdesk/outreach"
)

// App holds the components CLI commands run against. Config and logging
// are set up before any command runs; the rest is opened on first use.
type App struct {
	ConfigPath string
	Debug      bool
	LogOutput  io.Writer

	Config *config.Config
	Logger *slog.Logger

	DB        *sql.DB
	Cookies   *db.CookieStore
	Prefs     *db.FilterPreferences
	Mutations *db.MutationLog
	Client    *api.Client
	Events    *events.Dispatcher
	Store     *liststore.Store
	Mutator   *outreach.Mutator
	Directory *activity.Directory

	detach func()
}

// load reads the configuration and builds the logger.
func (a *App) load() error {
	if a.Config == nil {
		cfg, err := config.Load(a.ConfigPath)
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	if a.Debug {
		a.Config.LogLevel = "debug"
	}
	out := a.LogOutput
	if out == nil {
		out = os.Stderr
	}
	a.Logger = a.Config.NewLogger(out)
	slog.SetDefault(a.Logger)
	return nil
}

// openDB opens the local database only.
func (a *App) openDB() error {
	if a.DB != nil {
		return nil
	}
	database, err := db.OpenDatabase(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database
	a.Cookies = db.NewCookieStore(database)
	a.Prefs = db.NewFilterPreferences(db.NewSettingsStore(database))
	a.Mutations = db.NewMutationLog(database)
	a.Logger.Debug("database opened", "path", a.Config.DatabasePath)
	return nil
}

// open wires every component.
func (a *App) open(ctx context.Context) error {
	if a.Client != nil {
		return nil
	}
	if err := a.openDB(); err != nil {
		return err
	}

	jar, err := api.NewPersistentJar(ctx, a.Config.APIBaseURL, a.Cookies, a.Logger)
	if err != nil {
		return err
	}
	client, err := api.New(api.Options{
		BaseURL:     a.Config.APIBaseURL,
		RefreshPath: a.Config.RefreshPath,
		LoginPath:   a.Config.LoginPath,
		Jar:         jar,
		Logger:      a.Logger,
	})
	if err != nil {
		return err
	}
	a.Client = client

	a.Events = events.NewDispatcher(a.Logger)
	a.Store = liststore.New(client, a.Logger)
	a.detach = a.Store.Attach(a.Events)
	a.Mutator = outreach.New(client, a.Events,
		outreach.WithLogger(a.Logger),
		outreach.WithJournal(a.Mutations),
	)
	a.Directory = activity.NewDirectory(client, a.Logger)
	return nil
}

// apiHost is the host the session cookies are stored under.
func (a *App) apiHost() (string, error) {
	u, err := url.Parse(a.Config.APIBaseURL)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

// Close releases the database and event subscriptions.
func (a *App) Close() error {
	if a.detach != nil {
		a.detach()
		a.detach = nil
	}
	if a.DB == nil {
		return nil
	}
	err := a.DB.Close()
	a.DB = nil
	return err
}

// reportError renders a failed command. The Google connection failure gets
// a prompt naming where to connect.
func (a *App) reportError(w io.Writer, err error) {
	if errors.Is(err, outreach.ErrGoogleNotConnected) {
		fmt.Fprintln(w, "Google is not connected for your account.")
		if a.Config != nil && a.Config.SettingsURL != "" {
			fmt.Fprintf(w, "Connect it in settings: %s\n", a.Config.SettingsURL)
		}
		fmt.Fprintln(w, "Or create the link from your own calendar: irdesk meeting link --local")
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
