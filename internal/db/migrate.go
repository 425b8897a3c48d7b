package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','archived')),
		archived_at TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS strategy_items (
		id             TEXT PRIMARY KEY,
		project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		list_id        TEXT NOT NULL
		               CHECK(list_id IN ('discovery','validation','growth','success')),
		position       INTEGER NOT NULL,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		classification TEXT NOT NULL DEFAULT 'unclassified'
		               CHECK(classification IN ('unclassified','fix','pivot')),
		completed      INTEGER NOT NULL DEFAULT 0,
		impact         TEXT NOT NULL DEFAULT ''
		               CHECK(impact IN ('','low','medium','high')),
		growth_rate    REAL,
		confidence     INTEGER,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_strategy_items_project ON strategy_items(project_id, list_id, position)`,

	`CREATE TABLE IF NOT EXISTS board_state (
		project_id      TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		revision        INTEGER NOT NULL DEFAULT 0,
		pending_item_id TEXT NOT NULL DEFAULT '',
		updated_at      TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	// Business idea text behind each project
	`ALTER TABLE projects ADD COLUMN idea TEXT NOT NULL DEFAULT ''`,
}
