package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alexanderramin/obra/internal/db"
)

// SQLiteProgressHeadRepo implements ProgressHeadRepo. A missing row is
// version 0.
type SQLiteProgressHeadRepo struct {
	db db.DBTX
}

// NewSQLiteProgressHeadRepo creates a new SQLiteProgressHeadRepo.
func NewSQLiteProgressHeadRepo(conn db.DBTX) *SQLiteProgressHeadRepo {
	return &SQLiteProgressHeadRepo{db: conn}
}

func (r *SQLiteProgressHeadRepo) Get(ctx context.Context, projectID, wbsNodeID string) (int, error) {
	var version int
	err := r.db.QueryRowContext(ctx,
		`SELECT version FROM progress_heads WHERE project_id = ? AND wbs_node_id = ?`,
		projectID, wbsNodeID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, persistErr("reading progress head", err)
	}
	return version, nil
}

func (r *SQLiteProgressHeadRepo) CompareAndBump(ctx context.Context, projectID, wbsNodeID string, expected int) (bool, error) {
	if err := r.ensure(ctx, projectID, wbsNodeID); err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE progress_heads SET version = version + 1, updated_at = ?
		WHERE project_id = ? AND wbs_node_id = ? AND version = ?`,
		nowUTC(), projectID, wbsNodeID, expected)
	if err != nil {
		return false, persistErr("bumping progress head", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr("bumping progress head", err)
	}
	return n == 1, nil
}

func (r *SQLiteProgressHeadRepo) Bump(ctx context.Context, projectID, wbsNodeID string) error {
	if err := r.ensure(ctx, projectID, wbsNodeID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE progress_heads SET version = version + 1, updated_at = ? WHERE project_id = ? AND wbs_node_id = ?`,
		nowUTC(), projectID, wbsNodeID)
	if err != nil {
		return persistErr("bumping progress head", err)
	}
	return nil
}

func (r *SQLiteProgressHeadRepo) ensure(ctx context.Context, projectID, wbsNodeID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO progress_heads (project_id, wbs_node_id, version, updated_at) VALUES (?, ?, 0, ?)`,
		projectID, wbsNodeID, nowUTC())
	if err != nil {
		return persistErr("creating progress head", err)
	}
	return nil
}
