// ABOUTME: HTTP client for the investor-relations REST API
// ABOUTME: Cookie session, one transparent reauthentication retry on 401, tolerant list decoding
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/confideleapcrm/irdesk/models"
)

const (
	DefaultRefreshPath = "/api/auth/refresh"
	DefaultLoginPath   = "/api/auth/login"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Options configures a Client.
type Options struct {
	// BaseURL is the server origin; request paths already start with /api.
	BaseURL     string
	RefreshPath string
	LoginPath   string
	Jar         http.CookieJar
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client talks to the REST API. It is safe for concurrent use.
type Client struct {
	base        *url.URL
	http        *http.Client
	refreshPath string
	loginPath   string
	logger      *slog.Logger
}

// New creates a client. No request timeout is applied; callers bound
// requests through their context.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base URL %q: scheme and host are required", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.Jar != nil {
		httpClient.Jar = opts.Jar
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		base:        base,
		http:        httpClient,
		refreshPath: opts.RefreshPath,
		loginPath:   opts.LoginPath,
		logger:      logger,
	}
	if c.refreshPath == "" {
		c.refreshPath = DefaultRefreshPath
	}
	if c.loginPath == "" {
		c.loginPath = DefaultLoginPath
	}
	return c, nil
}

// BaseURL returns the configured server origin.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Login opens a session with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, c.loginPath, nil, body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Refresh renews the session. It is never retried.
func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, c.refreshPath, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
	}

	resp, err := c.send(ctx, method, path, query, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.retriable(path) {
		_ = drain(resp)
		c.logger.Debug("session expired, reauthenticating", "method", method, "path", path)
		if rerr := c.Refresh(ctx); rerr != nil {
			c.logger.Warn("reauthentication failed", "error", rerr)
			return &Error{StatusCode: http.StatusUnauthorized, Method: method, Path: path, Message: "session expired"}
		}
		resp, err = c.send(ctx, method, path, query, payload)
		if err != nil {
			return err
		}
	}
	defer func() { _ = drain(resp) }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    errorMessage(data, resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// retriable excludes the auth endpoints so a failed refresh cannot loop.
func (c *Client) retriable(path string) bool {
	return path != c.refreshPath && path != c.loginPath
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Response, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	return resp, nil
}

func drain(resp *http.Response) error {
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// errorMessage pulls a human-readable message out of an error body,
// falling back to the status text.
func errorMessage(data []byte, status int) string {
	var body struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if s, ok := body.Error.(string); ok && s != "" {
			return s
		}
	}
	text := strings.TrimSpace(string(data))
	if text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}

var listEnvelopeKeys = []string{"data", "rows", "items", "results"}

// decodeList reads either a bare JSON array or an envelope holding one.
func decodeList[T any](data []byte, keys ...string) ([]T, error) {
	data = bytes.TrimSpace(data)
	out := []T{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return out, nil
	}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	candidates := append(append([]string{}, keys...), listEnvelopeKeys...)
	for _, k := range candidates {
		raw, ok := env[k]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			if err := json.Unmarshal(raw, &out); err != nil {
				return nil, err
			}
			return out, nil
		}
		if len(raw) > 0 && raw[0] == '{' {
			// {"data": {"rows": [...]}}
			return decodeList[T](raw, keys...)
		}
	}
	return out, nil
}

// decodeItem reads an object that may be wrapped under one of keys or "data".
func decodeItem[T any](data []byte, keys ...string) (*T, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	candidates := append(append([]string{}, keys...), "data")
	for _, k := range candidates {
		raw, ok := env[k]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		}
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// getList issues a GET and decodes a list response.
func getList[T any](ctx context.Context, c *Client, path string, query url.Values, keys ...string) ([]T, error) {
	var data []byte
	if err := c.do(ctx, http.MethodGet, path, query, nil, &data); err != nil {
		return nil, err
	}
	items, err := decodeList[T](data, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return items, nil
}

// sendItem issues a write and decodes a single-object response.
func sendItem[T any](ctx context.Context, c *Client, method, path string, in any, keys ...string) (*T, error) {
	var data []byte
	if err := c.do(ctx, method, path, nil, in, &data); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s %s returned an empty body", method, path)
	}
	item, err := decodeItem[T](data, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return item, nil
}
