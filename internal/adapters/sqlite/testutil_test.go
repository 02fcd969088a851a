// Package sqlite_test contains integration tests for the SQLite grant
// repository.
//
// All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema. Do not hardcode CREATE TABLE statements here.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/warden/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// A :memory: database exists per connection; cap the pool at one
	// so every query sees the same database.
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedGrant inserts a grant row directly.
func seedGrant(t *testing.T, database *sql.DB, kind, subjectID, key string, grantedAt time.Time, expiresAt *time.Time, payload string) {
	t.Helper()
	if payload == "" {
		payload = "{}"
	}
	var expires any
	if expiresAt != nil {
		expires = expiresAt.Unix()
	}
	_, err := database.Exec(
		"INSERT INTO grants (kind, subject_id, grant_key, granted_at, expires_at, payload) VALUES (?, ?, ?, ?, ?, ?)",
		kind, subjectID, key, grantedAt.Unix(), expires, payload,
	)
	if err != nil {
		t.Fatalf("failed to seed grant: %v", err)
	}
}

// countGrants returns the total number of rows for a kind.
func countGrants(t *testing.T, database *sql.DB, kind string) int {
	t.Helper()
	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM grants WHERE kind = ?", kind).Scan(&count); err != nil {
		t.Fatalf("failed to count grants: %v", err)
	}
	return count
}

// timePtr returns a pointer to t.
func timePtr(t time.Time) *time.Time {
	return &t
}
