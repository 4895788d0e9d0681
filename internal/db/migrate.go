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
	if err := migrateBackfillProgressHeads(db); err != nil {
		return fmt.Errorf("backfilling progress heads: %w", err)
	}
	if err := migrateBackfillCertificationSequences(db); err != nil {
		return fmt.Errorf("backfilling certification sequences: %w", err)
	}
	return nil
}

// migrateBackfillProgressHeads creates a head row for every (project, WBS
// node) pair that already has approved or voided certification lines, so the
// issuance compare-and-swap always has a row to update.
func migrateBackfillProgressHeads(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), `INSERT OR IGNORE INTO progress_heads (project_id, wbs_node_id, version, updated_at)
		SELECT c.project_id, l.wbs_node_id, COUNT(*), MAX(c.updated_at)
		FROM certification_lines l
		JOIN certifications c ON c.id = l.certification_id
		WHERE c.status IN ('APPROVED','VOID')
		GROUP BY c.project_id, l.wbs_node_id`)
	return err
}

func migrateBackfillCertificationSequences(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), `INSERT OR IGNORE INTO certification_sequences (project_id, next_number)
		SELECT project_id, MAX(number) + 1 FROM certifications GROUP BY project_id`)
	return err
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		short_id    TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		client      TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','archived')),
		archived_at TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_short_id ON projects(short_id) WHERE short_id != ''`,

	`CREATE TABLE IF NOT EXISTS wbs_nodes (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		parent_id   TEXT REFERENCES wbs_nodes(id),
		code        TEXT NOT NULL,
		name        TEXT NOT NULL,
		category    TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL CHECK(type IN ('PHASE','ACTIVITY','TASK')),
		unit        TEXT NOT NULL DEFAULT '',
		quantity    TEXT NOT NULL DEFAULT '0',
		sort_order  INTEGER NOT NULL DEFAULT 0,
		active      INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		UNIQUE(project_id, code)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wbs_nodes_project ON wbs_nodes(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_wbs_nodes_parent ON wbs_nodes(parent_id)`,

	`CREATE TABLE IF NOT EXISTS budget_versions (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id),
		version_type TEXT NOT NULL
		             CHECK(version_type IN ('BASELINE','APPROVED','WORKING','PROPOSAL')),
		version_code TEXT NOT NULL,
		total_cost   TEXT NOT NULL DEFAULT '0',
		approved_at  TEXT,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		UNIQUE(project_id, version_code)
	)`,

	`CREATE TABLE IF NOT EXISTS budget_lines (
		id                TEXT PRIMARY KEY,
		budget_version_id TEXT NOT NULL REFERENCES budget_versions(id) ON DELETE CASCADE,
		wbs_node_id       TEXT NOT NULL REFERENCES wbs_nodes(id),
		quantity          TEXT NOT NULL,
		unit_price        TEXT NOT NULL,
		indirect_pct      TEXT NOT NULL DEFAULT '0',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL,
		UNIQUE(budget_version_id, wbs_node_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_budget_lines_node ON budget_lines(wbs_node_id)`,

	`CREATE TABLE IF NOT EXISTS certifications (
		id                TEXT PRIMARY KEY,
		project_id        TEXT NOT NULL REFERENCES projects(id),
		budget_version_id TEXT NOT NULL REFERENCES budget_versions(id),
		number            INTEGER NOT NULL CHECK(number > 0),
		period_year       INTEGER NOT NULL,
		period_month      INTEGER NOT NULL CHECK(period_month BETWEEN 1 AND 12),
		status            TEXT NOT NULL DEFAULT 'DRAFT'
		                  CHECK(status IN ('DRAFT','SUBMITTED','APPROVED','REJECTED','VOID')),
		created_by        TEXT NOT NULL DEFAULT '',
		issued_date       TEXT,
		issued_by         TEXT NOT NULL DEFAULT '',
		approved_by       TEXT NOT NULL DEFAULT '',
		rejection_comment TEXT NOT NULL DEFAULT '',
		total_amount      TEXT NOT NULL DEFAULT '0',
		integrity_seal    TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL,
		UNIQUE(project_id, number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_certifications_project_status ON certifications(project_id, status)`,

	`CREATE TABLE IF NOT EXISTS certification_lines (
		id                        TEXT PRIMARY KEY,
		certification_id          TEXT NOT NULL REFERENCES certifications(id) ON DELETE CASCADE,
		wbs_node_id               TEXT NOT NULL REFERENCES wbs_nodes(id),
		contractual_qty_snapshot  TEXT NOT NULL,
		unit_price_snapshot       TEXT NOT NULL,
		prev_progress_pct         TEXT NOT NULL,
		period_progress_pct       TEXT NOT NULL,
		total_progress_pct        TEXT NOT NULL,
		prev_qty                  TEXT NOT NULL,
		period_qty                TEXT NOT NULL,
		total_qty                 TEXT NOT NULL,
		remaining_qty             TEXT NOT NULL,
		prev_amount               TEXT NOT NULL,
		period_amount             TEXT NOT NULL,
		total_amount              TEXT NOT NULL,
		baseline_certification_id TEXT,
		baseline_version          INTEGER NOT NULL DEFAULT 0,
		created_at                TEXT NOT NULL,
		updated_at                TEXT NOT NULL,
		UNIQUE(certification_id, wbs_node_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_certification_lines_node ON certification_lines(wbs_node_id)`,

	`CREATE TABLE IF NOT EXISTS certification_sequences (
		project_id  TEXT PRIMARY KEY REFERENCES projects(id),
		next_number INTEGER NOT NULL CHECK(next_number > 0)
	)`,

	`CREATE TABLE IF NOT EXISTS progress_heads (
		project_id  TEXT NOT NULL REFERENCES projects(id),
		wbs_node_id TEXT NOT NULL REFERENCES wbs_nodes(id),
		version     INTEGER NOT NULL DEFAULT 0,
		updated_at  TEXT NOT NULL,
		PRIMARY KEY (project_id, wbs_node_id)
	)`,

	`CREATE TABLE IF NOT EXISTS outbox_events (
		id          TEXT PRIMARY KEY,
		event_type  TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		payload     TEXT NOT NULL DEFAULT '{}',
		status      TEXT NOT NULL DEFAULT 'PENDING'
		            CHECK(status IN ('PENDING','PROCESSING','COMPLETED')),
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_status ON outbox_events(status, created_at)`,
}
