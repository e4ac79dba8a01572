// ABOUTME: OAuth configuration and token storage for the user's Google account
// ABOUTME: Runs the local browser consent flow and keeps the token under XDG data
package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"github.com/confideleapcrm/irdesk/config"
)

// ErrNotConfigured means no Google client credentials were provided.
var ErrNotConfigured = errors.New("google OAuth credentials not configured; set IRDESK_GOOGLE_CLIENT_ID and IRDESK_GOOGLE_CLIENT_SECRET")

// ErrNoToken means the consent flow has not been completed yet.
var ErrNoToken = errors.New("google account not connected; run 'irdesk google connect'")

// NewOAuthConfig builds the OAuth client for creating calendar events.
func NewOAuthConfig(cfg config.GoogleConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{calendar.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}, nil
}

// DefaultTokenPath returns the XDG location of the stored token.
func DefaultTokenPath() string {
	return filepath.Join(xdg.DataHome, "irdesk", "google-token.json")
}

// TokenFile persists a single OAuth token as JSON.
type TokenFile struct {
	Path string
}

func (f TokenFile) Save(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	file, err := os.OpenFile(f.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := json.NewEncoder(file).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// Load returns ErrNoToken when the file does not exist.
func (f TokenFile) Load() (*oauth2.Token, error) {
	file, err := os.Open(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(file).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// savingSource writes refreshed tokens back to the file.
type savingSource struct {
	base oauth2.TokenSource
	file TokenFile
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		_ = s.file.Save(tok)
	}
	return tok, nil
}

// TokenSource returns a refreshing token source that persists new tokens.
func TokenSource(ctx context.Context, conf *oauth2.Config, file TokenFile) (oauth2.TokenSource, error) {
	tok, err := file.Load()
	if err != nil {
		return nil, err
	}
	src := &savingSource{base: conf.TokenSource(ctx, tok), file: file, last: tok.AccessToken}
	return oauth2.ReuseTokenSource(tok, src), nil
}

// Connect runs the consent flow: it listens on the redirect URL, prints the
// consent URL to out, tries to open a browser and waits for the callback.
func Connect(ctx context.Context, conf *oauth2.Config, file TokenFile, out io.Writer) error {
	redirect, err := url.Parse(conf.RedirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect URL: %w", err)
	}
	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	state := uuid.NewString()
	tokens := make(chan *oauth2.Token, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errs <- errors.New("OAuth state mismatch")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errs <- errors.New("no authorization code received")
			return
		}
		token, err := conf.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, "exchange failed", http.StatusBadGateway)
			errs <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}
		tokens <- token
		_, _ = fmt.Fprint(w, "Google account connected. You can close this window.")
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	_, _ = fmt.Fprintf(out, "Opening browser for Google consent...\n\nIf the browser doesn't open, visit:\n%s\n\n", authURL)
	_ = openBrowser(authURL)

	select {
	case token := <-tokens:
		if err := file.Save(token); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Token saved to %s\n", file.Path)
		return nil
	case err := <-errs:
		return fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func openBrowser(target string) error {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		cmd, args = "open", []string{target}
	case "windows":
		cmd, args = "cmd", []string{"/c", "start", target}
	default:
		cmd, args = "xdg-open", []string{target}
	}
	return exec.Command(cmd, args...).Start()
}
