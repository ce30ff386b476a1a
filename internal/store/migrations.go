package store

import (
	"fmt"
	"strings"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS api_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		key_hash TEXT UNIQUE NOT NULL,
		key_prefix TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		deleted_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_used DATETIME
	)`,

	`CREATE TABLE IF NOT EXISTS prediction_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		api_key_id INTEGER REFERENCES api_keys(id) ON DELETE SET NULL,
		input_features TEXT NOT NULL,
		predicted_price REAL NOT NULL,
		response_time_ms INTEGER NOT NULL DEFAULT 0,
		request_type TEXT NOT NULL DEFAULT 'single',
		batch_id TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_api_keys_prefix ON api_keys(key_prefix)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_active ON api_keys(is_active)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_logs_key ON prediction_logs(api_key_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_logs_batch ON prediction_logs(batch_id)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS api_keys (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		key_hash TEXT UNIQUE NOT NULL,
		key_prefix TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		deleted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_used TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS prediction_logs (
		id BIGSERIAL PRIMARY KEY,
		api_key_id BIGINT REFERENCES api_keys(id) ON DELETE SET NULL,
		input_features TEXT NOT NULL,
		predicted_price DOUBLE PRECISION NOT NULL,
		response_time_ms BIGINT NOT NULL DEFAULT 0,
		request_type TEXT NOT NULL DEFAULT 'single',
		batch_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_api_keys_prefix ON api_keys(key_prefix)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_active ON api_keys(is_active)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_logs_key ON prediction_logs(api_key_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_logs_batch ON prediction_logs(batch_id)`,
}

func (s *Store) migrate() error {
	migrations := sqliteMigrations
	if s.driver == DriverPostgres {
		migrations = postgresMigrations
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// ALTER TABLE ADD COLUMN fails if the column already exists;
			// treat "duplicate column" as a no-op for idempotent migrations.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
