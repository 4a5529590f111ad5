package storage

import (
	"context"
	"fmt"
)

// migrations are applied in order; each entry runs at most once, tracked in
// schema_migrations. SQL sticks to the dialect subset sqlite and postgres
// share.
var migrations = []struct {
	version int
	sql     string
}{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS visualizations (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				slug TEXT NOT NULL UNIQUE,
				summary TEXT,
				tags TEXT NOT NULL DEFAULT '[]',
				collection_ids TEXT NOT NULL DEFAULT '[]',
				sources TEXT NOT NULL DEFAULT '[]',
				status TEXT NOT NULL DEFAULT 'draft',
				template_id TEXT NOT NULL DEFAULT 'line',
				chart_spec TEXT NOT NULL DEFAULT '{}',
				dataset_file TEXT,
				embed_version INTEGER NOT NULL DEFAULT 1,
				created_at TIMESTAMP NOT NULL,
				last_updated TIMESTAMP NOT NULL
			)
		`,
	},
	{
		version: 2,
		sql: `
			CREATE TABLE IF NOT EXISTS collections (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL UNIQUE,
				description TEXT,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)
		`,
	},
	{
		version: 3,
		sql:     `CREATE INDEX IF NOT EXISTS idx_visualizations_status ON visualizations (status, last_updated)`,
	},
}

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, db DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current := 0
	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

// SchemaVersion reports the highest applied migration.
func SchemaVersion(ctx context.Context, db DB) (int, error) {
	var v int
	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}
