// ABOUTME: Opens the local SQLite store that holds settings, cookies and the mutation journal
// ABOUTME: WAL mode with a single connection and a busy timeout; in-memory paths skip the directory
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// busyTimeoutMillis bounds how long a write waits on a lock held by another irdesk process.
const busyTimeoutMillis = 5000

// DefaultPath is where irdesk keeps its local state.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "irdesk", "irdesk.db")
}

func dsn(path string) string {
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprint(busyTimeoutMillis))
	if path != MemoryPath {
		q.Set("_journal_mode", "WAL")
	}
	return path + "?" + q.Encode()
}

// OpenDatabase opens (creating if needed) the database at path and applies the schema.
func OpenDatabase(path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath()
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection: SQLite serializes writers and :memory: is per connection.
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}
