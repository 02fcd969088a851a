package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order. Fresh installs
// apply SchemaSQL directly and record every version as applied.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "single_grants_table",
		Up:      migrationV1,
	},
}

// migrationV1 collapses the per-module tables of earlier builds
// (temp_roles, switching_roles, exiles, warn, persistent_roles) into
// the single grants table. Earlier builds never shipped, so the
// migration just creates the table.
func migrationV1(database *sql.DB) error {
	_, err := database.Exec(SchemaSQL)
	return err
}

// InitSchema creates the schema on fresh databases and runs pending
// migrations on existing ones.
func InitSchema(database *sql.DB) error {
	var hasVersionTable bool
	err := database.QueryRow(
		"SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&hasVersionTable)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	if !hasVersionTable {
		// Fresh install: apply the full schema and mark all
		// migrations as applied.
		if _, err := database.Exec(SchemaSQL); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		for _, m := range migrations {
			if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return fmt.Errorf("failed to record schema version %d: %w", m.Version, err)
			}
		}
		return nil
	}

	return runMigrations(database)
}

// runMigrations applies any migrations newer than the recorded version.
func runMigrations(database *sql.DB) error {
	var current int
	err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := m.Up(database); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record schema version %d: %w", m.Version, err)
		}
	}

	return nil
}
