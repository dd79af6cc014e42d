package repository

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS extract_batch (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		fragment_count INTEGER NOT NULL DEFAULT 0,
		success_count INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		error_message TEXT,
		result_json TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS payment (
		batch_id TEXT NOT NULL REFERENCES extract_batch(id) ON DELETE CASCADE,
		ordinal INTEGER NOT NULL,
		provider TEXT NOT NULL,
		due_date TEXT,
		amount TEXT,
		installment_index INTEGER,
		installment_total INTEGER,
		autopay_enabled INTEGER,
		confidence INTEGER,
		description TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (batch_id, ordinal)
	)`,
	`CREATE INDEX IF NOT EXISTS payment_provider_due_idx ON payment (provider, due_date)`,
}

// Migrate creates the schema. Statements are idempotent and portable between
// sqlite and Postgres.
func Migrate(ctx context.Context, db *DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
