// ABOUTME: Key/value settings repository backed by the settings table
// ABOUTME: Typed saved-filter preferences are layered on top of it
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/confideleapcrm/irdesk/models"
)

// SavedCompaniesKey holds the saved targeting filters.
const SavedCompaniesKey = "investorTargeting_saved_companies_v1"

// SettingsStore reads and writes string settings.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key. ok is false when the key is unset.
func (s *SettingsStore) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// FilterPreferences persists the targeting filters under SavedCompaniesKey.
type FilterPreferences struct {
	settings *SettingsStore
}

func NewFilterPreferences(settings *SettingsStore) *FilterPreferences {
	return &FilterPreferences{settings: settings}
}

// Load returns the saved filters. Both the legacy array of company ids and
// the object shape are accepted. ok is false when nothing is saved.
func (p *FilterPreferences) Load(ctx context.Context) (models.TargetingFilters, bool, error) {
	raw, ok, err := p.settings.Get(ctx, SavedCompaniesKey)
	if err != nil || !ok {
		return models.TargetingFilters{}, false, err
	}
	filters, err := models.DecodeTargetingFilters([]byte(raw))
	if err != nil {
		return models.TargetingFilters{}, false, fmt.Errorf("saved filters are corrupt: %w", err)
	}
	return filters, true, nil
}

func (p *FilterPreferences) Save(ctx context.Context, filters models.TargetingFilters) error {
	data, err := models.EncodeTargetingFilters(filters)
	if err != nil {
		return err
	}
	return p.settings.Set(ctx, SavedCompaniesKey, string(data))
}

func (p *FilterPreferences) Clear(ctx context.Context) error {
	return p.settings.Delete(ctx, SavedCompaniesKey)
}
