// ABOUTME: Cookie jar that persists the API session between runs
// ABOUTME: Wraps net/http/cookiejar and mirrors cookies into a CookieStore
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// CookieStore persists session cookies per host.
type CookieStore interface {
	LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error)
	SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error
}

type persistentJar struct {
	inner  *cookiejar.Jar
	base   *url.URL
	store  CookieStore
	logger *slog.Logger
}

// NewPersistentJar returns a cookie jar seeded from store for baseURL.
// Cookie changes are written back to store; write failures are logged.
func NewPersistentJar(ctx context.Context, baseURL string, store CookieStore, logger *slog.Logger) (http.CookieJar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base URL: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	saved, err := store.LoadCookies(ctx, base.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to load session cookies: %w", err)
	}
	if len(saved) > 0 {
		root := *base
		root.Path = "/"
		inner.SetCookies(&root, saved)
	}

	return &persistentJar{inner: inner, base: base, store: store, logger: logger}, nil
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)
	if u.Host != j.base.Host {
		return
	}
	if err := j.store.SaveCookies(context.Background(), j.base.Host, j.inner.Cookies(u)); err != nil {
		j.logger.Warn("failed to persist session cookies", "error", err)
	}
}

func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}
