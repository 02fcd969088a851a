package db

// SchemaSQL is the complete schema for fresh warden installs.
//
// This is the single source of truth for the database schema. All
// repository tests load it via GetSchemaSQL() so test and production
// schemas cannot drift: a repository referencing a column missing here
// fails immediately with "no such column".
//
// Timestamps are stored as unix epoch seconds so expiry range scans
// compare integers, independent of driver time formatting.
const SchemaSQL = `
-- Grants (one row per active grant; warn rows accumulate per subject)
CREATE TABLE IF NOT EXISTS grants (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	grant_key TEXT NOT NULL DEFAULT '',
	granted_at INTEGER NOT NULL,
	expires_at INTEGER,
	payload TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_grants_kind_expiry ON grants(kind, expires_at);
CREATE INDEX IF NOT EXISTS idx_grants_kind_subject ON grants(kind, subject_id);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
