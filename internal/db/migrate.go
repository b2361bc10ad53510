package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Every statement is idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS artifacts (
		id         TEXT PRIMARY KEY,
		mime_type  TEXT NOT NULL DEFAULT 'application/octet-stream',
		data       BLOB NOT NULL,
		size_bytes INTEGER NOT NULL CHECK(size_bytes >= 0),
		prompt     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(created_at)`,
}
