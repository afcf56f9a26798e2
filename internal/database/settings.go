package database

import (
	"context"
	"database/sql"
	"errors"

	"latency-dashboard/internal/models"
)

// GetSettings returns the saved settings or the defaults
func (db *DB) GetSettings(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	err := db.QueryRowContext(ctx,
		`SELECT default_pings, ping_timeout, storage_path FROM settings WHERE id = 1`,
	).Scan(&s.DefaultPings, &s.PingTimeout, &s.StoragePath)
	if errors.Is(err, sql.ErrNoRows) {
		return db.defaults, nil
	}
	if err != nil {
		return models.Settings{}, err
	}
	return s, nil
}

// SaveSettings replaces the saved settings
func (db *DB) SaveSettings(ctx context.Context, s models.Settings) error {
	_, err := db.ExecContext(ctx, `
        INSERT INTO settings (id, default_pings, ping_timeout, storage_path) VALUES (1, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            default_pings = excluded.default_pings,
            ping_timeout = excluded.ping_timeout,
            storage_path = excluded.storage_path
    `, s.DefaultPings, s.PingTimeout, s.StoragePath)
	return err
}
