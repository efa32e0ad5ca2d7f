package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrVersionConflict is returned when a settings update carries a stale
// version number: another writer got there first.
var ErrVersionConflict = errors.New("store: settings version conflict")

// SettingsConfig is the dashboard-editable configuration document.
type SettingsConfig struct {
	ResponseMethod string                     `json:"response_method"`
	ServiceFilters map[string]map[string]bool `json:"service_filters"`
}

// Settings pairs the config with its optimistic-locking version.
type Settings struct {
	Config  SettingsConfig `json:"config"`
	Version int            `json:"version"`
}

// DefaultSettings returns the config a fresh installation starts with:
// mask everything, monitor every known service.
func DefaultSettings() SettingsConfig {
	return SettingsConfig{
		ResponseMethod: "mask",
		ServiceFilters: map[string]map[string]bool{
			"llm": {
				"gpt":      true,
				"gemini":   true,
				"claude":   true,
				"deepseek": true,
				"groq":     true,
			},
			"mcp": {
				"gpt_desktop":    true,
				"claude_desktop": true,
				"vscode_copilot": true,
			},
		},
	}
}

// GetOrCreateSettings returns the singleton settings row, inserting the
// defaults at version 1 when none exists yet.
func (s *Store) GetOrCreateSettings(ctx context.Context) (*Settings, error) {
	var raw string
	var version int
	err := s.db.QueryRowContext(ctx,
		"SELECT config, version FROM settings WHERE id = 1").Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		def := DefaultSettings()
		data, err := json.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("encoding default settings: %w", err)
		}
		// A concurrent insert loses the race harmlessly: the row is the same.
		if _, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (id, config, version) VALUES (1, ?, 1)",
			string(data)); err != nil {
			return nil, fmt.Errorf("inserting default settings: %w", err)
		}
		return s.GetOrCreateSettings(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var cfg SettingsConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &Settings{Config: cfg, Version: version}, nil
}

// UpdateSettings replaces the config if expectedVersion still matches the
// stored row, bumping the version. Returns ErrVersionConflict on a stale
// expectedVersion.
func (s *Store) UpdateSettings(ctx context.Context, cfg SettingsConfig, expectedVersion int) (*Settings, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE settings
		SET config = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1 AND version = ?
	`, string(data), expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("updating settings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrVersionConflict
	}
	return &Settings{Config: cfg, Version: expectedVersion + 1}, nil
}
