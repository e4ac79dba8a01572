// ABOUTME: Persisted API session cookies
// ABOUTME: Implements the cookie store used by the API client's jar
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"
)

// CookieStore keeps session cookies per API host.
type CookieStore struct {
	db *sql.DB
}

func NewCookieStore(db *sql.DB) *CookieStore {
	return &CookieStore{db: db}
}

// LoadCookies returns the unexpired cookies saved for host.
func (s *CookieStore) LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value, path, domain, expires, secure, http_only
		FROM session_cookies
		WHERE host = ?
		ORDER BY name
	`, host)
	if err != nil {
		return nil, fmt.Errorf("failed to query session cookies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	now := time.Now()
	var cookies []*http.Cookie
	for rows.Next() {
		var c http.Cookie
		var domain sql.NullString
		var expires sql.NullTime
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &domain, &expires, &c.Secure, &c.HttpOnly); err != nil {
			return nil, fmt.Errorf("failed to scan session cookie: %w", err)
		}
		if expires.Valid {
			if expires.Time.Before(now) {
				continue
			}
			c.Expires = expires.Time
		}
		c.Domain = domain.String
		cookies = append(cookies, &c)
	}
	return cookies, rows.Err()
}

// SaveCookies replaces the cookies saved for host.
func (s *CookieStore) SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cookie transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_cookies WHERE host = ?`, host); err != nil {
		return fmt.Errorf("failed to clear session cookies: %w", err)
	}
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		var expires sql.NullTime
		if !c.Expires.IsZero() {
			expires = sql.NullTime{Time: c.Expires, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO session_cookies (host, name, value, path, domain, expires, secure, http_only)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, host, c.Name, c.Value, path, sql.NullString{String: c.Domain, Valid: c.Domain != ""}, expires, c.Secure, c.HttpOnly)
		if err != nil {
			return fmt.Errorf("failed to save session cookie %s: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

// ClearCookies forgets the session for host.
func (s *CookieStore) ClearCookies(ctx context.Context, host string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_cookies WHERE host = ?`, host); err != nil {
		return fmt.Errorf("failed to clear session cookies: %w", err)
	}
	return nil
}
