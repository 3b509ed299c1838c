package migration

import (
	"context"

	"gopower/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	driver  string
}

// NewRunner creates a new migration runner for postgres
func NewRunner() *MigrationRunner {
	return NewRunnerFor("postgres")
}

// NewRunnerFor creates a runner emitting DDL for the named sqlx driver ("postgres" or "sqlite3")
func NewRunnerFor(driver string) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		driver:  driver,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statements returns the DDL applied by Run, in order
func (r *MigrationRunner) Statements() []string {
	// sqlite only decodes time columns declared exactly TIMESTAMP
	idType, timeType := "UUID", "TIMESTAMP WITH TIME ZONE"
	if r.driver == "sqlite3" {
		idType, timeType = "TEXT", "TIMESTAMP"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS sample_size_plans (
			id ` + idType + ` PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			design VARCHAR(32) NOT NULL,
			outcome VARCHAR(32) NOT NULL,
			baseline_mean DOUBLE PRECISION,
			target_mean DOUBLE PRECISION,
			mean_difference DOUBLE PRECISION NOT NULL,
			standard_deviation DOUBLE PRECISION,
			alpha DOUBLE PRECISION NOT NULL CHECK (alpha > 0 AND alpha < 1),
			power DOUBLE PRECISION NOT NULL CHECK (power > 0 AND power < 1),
			z_alpha DOUBLE PRECISION NOT NULL,
			z_power DOUBLE PRECISION NOT NULL,
			effect_size DOUBLE PRECISION NOT NULL,
			sample_size DOUBLE PRECISION NOT NULL CHECK (sample_size >= 0),
			per_group INTEGER NOT NULL,
			group_count INTEGER NOT NULL,
			total INTEGER NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			created_at ` + timeType + ` NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sample_size_plans_created_at ON sample_size_plans (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sample_size_plans_design_outcome ON sample_size_plans (design, outcome)`,
		`CREATE INDEX IF NOT EXISTS idx_sample_size_plans_fingerprint ON sample_size_plans (fingerprint)`,
	}
}

// Run executes all database migrations in a single transaction
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin migration", err)
	}
	defer tx.Rollback()

	for _, stmt := range r.Statements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.DatabaseError("migration statement failed", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit migration", err)
	}
	return nil
}
