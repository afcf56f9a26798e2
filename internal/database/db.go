// Package database persists measurement history, the latest results and user
// settings in sqlite.
package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"latency-dashboard/internal/models"
)

// DB wraps sql.DB with additional methods
type DB struct {
	*sql.DB
	defaults models.Settings
	logger   *zap.Logger
}

// Option configures a DB
type Option func(*DB)

// WithDefaultSettings sets what GetSettings returns before anything was saved
func WithDefaultSettings(s models.Settings) Option {
	return func(db *DB) {
		db.defaults = s
	}
}

// WithLogger sets the logger used for skipped rows and maintenance
func WithLogger(logger *zap.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// New creates a new database connection
func New(path string, opts ...Option) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("database open failed: %w", err)
	}

	// single writer, pragmas stay on the one connection
	sqlDB.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent access
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	sqlDB.Exec("PRAGMA synchronous=NORMAL")

	db := &DB{DB: sqlDB, defaults: models.DefaultSettings(""), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// InitSchema creates all necessary tables
func (db *DB) InitSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS measurements (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp TEXT NOT NULL,
        data TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_measurements_timestamp ON measurements(timestamp);

    -- per target rows of each measurement, kept for SQL side aggregation
    CREATE TABLE IF NOT EXISTS measurement_targets (
        measurement_id INTEGER NOT NULL REFERENCES measurements(id),
        position INTEGER NOT NULL,
        target TEXT NOT NULL,
        avg_ms REAL NOT NULL,
        min_ms REAL NOT NULL,
        max_ms REAL NOT NULL,
        jitter_ms REAL NOT NULL,
        packet_loss REAL NOT NULL,
        protocol TEXT NOT NULL,
        PRIMARY KEY (measurement_id, position)
    );

    CREATE INDEX IF NOT EXISTS idx_measurement_targets_target ON measurement_targets(target);

    CREATE TABLE IF NOT EXISTS latest_results (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        timestamp TEXT NOT NULL,
        data TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS settings (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        default_pings INTEGER NOT NULL,
        ping_timeout INTEGER NOT NULL,
        storage_path TEXT NOT NULL
    );
    `

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}
