package store

import (
	"context"
	"database/sql"

	"pos-service/internal/models"
)

// GetSetting returns the value for a key, or ("", false) when unset
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		"SELECT value FROM store_settings WHERE key = $1", key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// GetAllSettings returns every setting as a key/value map
func (s *Store) GetAllSettings(ctx context.Context) (map[string]string, error) {
	var rows []models.Setting
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM store_settings"); err != nil {
		return nil, err
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

// SetSetting upserts one setting
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO store_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	return err
}

// SetBulkSettings upserts a batch of settings in one transaction
func (s *Store) SetBulkSettings(ctx context.Context, settings map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range settings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO store_settings (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			key, value)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
