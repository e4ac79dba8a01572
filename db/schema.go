// ABOUTME: Database schema definitions
// ABOUTME: Settings, persisted session cookies and the optimistic mutation journal
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS session_cookies (
	host TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	path TEXT NOT NULL DEFAULT '/',
	domain TEXT,
	expires DATETIME,
	secure INTEGER NOT NULL DEFAULT 0,
	http_only INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (host, name, path)
);

CREATE TABLE IF NOT EXISTS mutation_log (
	temp_id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	list_type TEXT NOT NULL,
	investor_id TEXT NOT NULL,
	company_id TEXT,
	state TEXT NOT NULL CHECK(state IN ('pending', 'confirmed', 'rolled_back')),
	server_id TEXT,
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_mutation_log_state ON mutation_log(state);
CREATE INDEX IF NOT EXISTS idx_mutation_log_created_at ON mutation_log(created_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
