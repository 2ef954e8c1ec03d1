package workspace

import (
	"context"
	"database/sql"
	"errors"

	"memento/internal/apperr"
)

// GetSetting returns the raw string value for key, or ("", false) if unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, apperr.NewInternal("workspace: get setting", err)
	}
	return v, true, nil
}

// AllSettings returns every stored setting key/value pair.
func (s *Store) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, apperr.NewInternal("workspace: list settings", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, apperr.NewInternal("workspace: scan setting", err)
		}
		out[k] = v
	}
	return out, nil
}

// SetSetting upserts a setting. Only recognized keys are accepted; callers
// validate against model.SettingRecallAlpha / model.SettingRecallThreshold.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return apperr.NewInternal("workspace: set setting", err)
	}
	return nil
}

func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return apperr.NewInternal("workspace: delete setting", err)
	}
	return nil
}
