package db

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables the application needs if they do not exist
// yet. Safe to run on every startup.
func (db *DB) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id BIGSERIAL PRIMARY KEY,
			site_name TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			release_date TEXT NOT NULL DEFAULT '',
			start_date TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			tenderer TEXT NOT NULL DEFAULT '',
			site_project_id TEXT NOT NULL DEFAULT '',
			rate TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL UNIQUE,
			budget TEXT NOT NULL DEFAULT '',
			duration TEXT NOT NULL DEFAULT '',
			workload TEXT NOT NULL DEFAULT '',
			requirements_tf JSONB NOT NULL DEFAULT '{}',
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS skills (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			idf DOUBLE PRECISION NOT NULL DEFAULT 0,
			embedding JSONB,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			skills JSONB NOT NULL DEFAULT '[]',
			experience_years DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_sort_order ON projects (sort_order)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_release_date ON projects (release_date)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
