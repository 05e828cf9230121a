package db

import (
	"context"
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
	if err := migrateBackfillApprovedAt(db); err != nil {
		return fmt.Errorf("backfilling approved_at: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL COLLATE NOCASE,
		created_at TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

	`CREATE TABLE IF NOT EXISTS templates (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		data        TEXT NOT NULL,
		published   INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_templates_owner ON templates(owner_id)`,

	`CREATE TABLE IF NOT EXISTS plans (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority    TEXT NOT NULL DEFAULT 'Medium'
		            CHECK(priority IN ('Low','Medium','High')),
		eta         TEXT,
		status      TEXT NOT NULL DEFAULT 'Planned'
		            CHECK(status IN ('Planned','In Progress','Done','Blocked')),
		template_id TEXT REFERENCES templates(id) ON DELETE SET NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plans_owner ON plans(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_plans_template ON plans(template_id)`,

	`CREATE TABLE IF NOT EXISTS plan_curators (
		plan_id    TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (plan_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plan_curators_user ON plan_curators(user_id)`,

	`CREATE TABLE IF NOT EXISTS skills (
		id                 TEXT PRIMARY KEY,
		plan_id            TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		name               TEXT NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		criteria           TEXT NOT NULL DEFAULT '',
		priority           TEXT NOT NULL DEFAULT 'Medium'
		                   CHECK(priority IN ('Low','Medium','High')),
		eta                TEXT,
		status             TEXT NOT NULL DEFAULT 'Planned'
		                   CHECK(status IN ('Planned','In Progress','Done','Blocked')),
		sort_order         INTEGER NOT NULL DEFAULT 0,
		template_skill_key TEXT,
		manual_override    INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_skills_plan ON skills(plan_id)`,
	`CREATE INDEX IF NOT EXISTS idx_skills_template_key ON skills(template_skill_key)`,

	`CREATE TABLE IF NOT EXISTS progress_entries (
		id              TEXT PRIMARY KEY,
		skill_id        TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
		criterion_index INTEGER NOT NULL CHECK(criterion_index >= 0),
		author_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		note            TEXT NOT NULL,
		approved        INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_progress_skill_criterion ON progress_entries(skill_id, criterion_index)`,

	// Curator feedback on individual entries
	`ALTER TABLE progress_entries ADD COLUMN curator_comment TEXT`,

	// Approval timestamp used by the wins series and latency report
	`ALTER TABLE progress_entries ADD COLUMN approved_at TEXT`,
	`CREATE INDEX IF NOT EXISTS idx_progress_approved_at ON progress_entries(approved_at)`,
}

// migrateBackfillApprovedAt stamps approved_at on entries that were approved
// before the column existed, using updated_at as the best available signal.
// Idempotent: only rows with approved = 1 and no approved_at are touched.
func migrateBackfillApprovedAt(db *sql.DB) error {
	ctx := context.Background()
	query := `UPDATE progress_entries
		SET approved_at = updated_at
		WHERE approved = 1 AND approved_at IS NULL`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("updating progress_entries: %w", err)
	}
	return nil
}
