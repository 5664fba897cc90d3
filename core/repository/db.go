package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the sql connection pool handed to the Postgres stores
type DB struct {
	*sql.DB
}

// NewDB opens a Postgres connection pool and verifies it
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: db}, nil
}

// Migrate creates the tables the stores need if they do not exist yet
func (db *DB) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS training_jobs (
			id TEXT PRIMARY KEY,
			model_type TEXT NOT NULL,
			status TEXT NOT NULL,
			current_stage TEXT NOT NULL DEFAULT '',
			progress INT NOT NULL DEFAULT 0,
			model_id TEXT NOT NULL DEFAULT '',
			submitted_by TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ,
			ended_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_training_jobs_status ON training_jobs (status)`,
		`CREATE TABLE IF NOT EXISTS registry_models (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			model_type TEXT NOT NULL,
			status TEXT NOT NULL,
			source_job_id TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			deployed_at TIMESTAMPTZ,
			shadow_start TIMESTAMPTZ,
			shadow_end TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_registry_models_status ON registry_models (status)`,
		`CREATE TABLE IF NOT EXISTS audit_entries (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL,
			action TEXT NOT NULL,
			subjects TEXT[] NOT NULL,
			actor TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
