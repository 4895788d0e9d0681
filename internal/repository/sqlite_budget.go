package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/domain"
)

const (
	budgetVersionColumns = `id, project_id, version_type, version_code, total_cost, approved_at, created_at, updated_at`
	budgetLineColumns    = `id, budget_version_id, wbs_node_id, quantity, unit_price, indirect_pct, created_at, updated_at`
)

// SQLiteBudgetRepo implements BudgetRepo using a SQLite database.
type SQLiteBudgetRepo struct {
	db db.DBTX
}

// NewSQLiteBudgetRepo creates a new SQLiteBudgetRepo.
func NewSQLiteBudgetRepo(conn db.DBTX) *SQLiteBudgetRepo {
	return &SQLiteBudgetRepo{db: conn}
}

func (r *SQLiteBudgetRepo) CreateVersion(ctx context.Context, v *domain.BudgetVersion) error {
	query := `INSERT INTO budget_versions (` + budgetVersionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.ProjectID,
		string(v.VersionType),
		v.VersionCode,
		v.TotalCost.String(),
		nullableTimeToString(v.ApprovedAt, time.RFC3339),
		formatTime(v.CreatedAt),
		formatTime(v.UpdatedAt),
	)
	if err != nil {
		return persistErr("inserting budget version", err)
	}
	return nil
}

func (r *SQLiteBudgetRepo) GetVersion(ctx context.Context, id string) (*domain.BudgetVersion, error) {
	query := `SELECT ` + budgetVersionColumns + ` FROM budget_versions WHERE id = ?`
	return scanBudgetVersion(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteBudgetRepo) GetVersionByCode(ctx context.Context, projectID, code string) (*domain.BudgetVersion, error) {
	query := `SELECT ` + budgetVersionColumns + ` FROM budget_versions WHERE project_id = ? AND version_code = ?`
	return scanBudgetVersion(r.db.QueryRowContext(ctx, query, projectID, code))
}

func (r *SQLiteBudgetRepo) ListVersions(ctx context.Context, projectID string) ([]*domain.BudgetVersion, error) {
	query := `SELECT ` + budgetVersionColumns + ` FROM budget_versions WHERE project_id = ? ORDER BY created_at, version_code`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, persistErr("listing budget versions", err)
	}
	defer rows.Close()

	var versions []*domain.BudgetVersion
	for rows.Next() {
		v, err := scanBudgetVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterating budget versions", err)
	}
	return versions, nil
}

func (r *SQLiteBudgetRepo) UpdateVersion(ctx context.Context, v *domain.BudgetVersion) error {
	query := `UPDATE budget_versions SET version_type = ?, version_code = ?, total_cost = ?, approved_at = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		string(v.VersionType),
		v.VersionCode,
		v.TotalCost.String(),
		nullableTimeToString(v.ApprovedAt, time.RFC3339),
		formatTime(v.UpdatedAt),
		v.ID,
	)
	if err != nil {
		return persistErr("updating budget version", err)
	}
	return nil
}

// UpsertLine inserts the line or, when the (version, node) pair exists,
// replaces its pricing. The stored id and created_at of an existing line win.
func (r *SQLiteBudgetRepo) UpsertLine(ctx context.Context, l *domain.BudgetLine) error {
	query := `INSERT INTO budget_lines (` + budgetLineColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(budget_version_id, wbs_node_id) DO UPDATE SET
			quantity = excluded.quantity,
			unit_price = excluded.unit_price,
			indirect_pct = excluded.indirect_pct,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.BudgetVersionID,
		l.WbsNodeID,
		l.Quantity.String(),
		l.UnitPrice.String(),
		l.IndirectPct.String(),
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
	)
	if err != nil {
		return persistErr("upserting budget line", err)
	}
	return nil
}

func (r *SQLiteBudgetRepo) GetLine(ctx context.Context, versionID, wbsNodeID string) (*domain.BudgetLine, error) {
	query := `SELECT ` + budgetLineColumns + ` FROM budget_lines WHERE budget_version_id = ? AND wbs_node_id = ?`
	return scanBudgetLine(r.db.QueryRowContext(ctx, query, versionID, wbsNodeID))
}

func (r *SQLiteBudgetRepo) ListLines(ctx context.Context, versionID string) ([]*domain.BudgetLine, error) {
	query := `SELECT l.id, l.budget_version_id, l.wbs_node_id, l.quantity, l.unit_price, l.indirect_pct,
			l.created_at, l.updated_at
		FROM budget_lines l
		JOIN wbs_nodes n ON n.id = l.wbs_node_id
		WHERE l.budget_version_id = ?
		ORDER BY n.sort_order, n.code`
	rows, err := r.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, persistErr("listing budget lines", err)
	}
	defer rows.Close()

	var lines []*domain.BudgetLine
	for rows.Next() {
		l, err := scanBudgetLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterating budget lines", err)
	}
	return lines, nil
}

func (r *SQLiteBudgetRepo) DeleteLine(ctx context.Context, versionID, wbsNodeID string) error {
	query := `DELETE FROM budget_lines WHERE budget_version_id = ? AND wbs_node_id = ?`
	if _, err := r.db.ExecContext(ctx, query, versionID, wbsNodeID); err != nil {
		return persistErr("deleting budget line", err)
	}
	return nil
}

func scanBudgetVersion(row rowScanner) (*domain.BudgetVersion, error) {
	var v domain.BudgetVersion
	var typeStr, totalStr, createdAtStr, updatedAtStr string
	var approvedAtStr sql.NullString

	err := row.Scan(&v.ID, &v.ProjectID, &typeStr, &v.VersionCode, &totalStr, &approvedAtStr,
		&createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, notFoundOr("budget version", err)
	}

	v.VersionType = domain.VersionType(typeStr)
	v.ApprovedAt = parseNullableTime(approvedAtStr, time.RFC3339)
	if err := parseDecimals(decimalField{"total_cost", totalStr, &v.TotalCost}); err != nil {
		return nil, fmt.Errorf("budget version %s: %w", v.ID, err)
	}
	if v.CreatedAt, v.UpdatedAt, err = parseTimes(createdAtStr, updatedAtStr); err != nil {
		return nil, fmt.Errorf("budget version %s: %w", v.ID, err)
	}
	return &v, nil
}

func scanBudgetLine(row rowScanner) (*domain.BudgetLine, error) {
	var l domain.BudgetLine
	var qtyStr, priceStr, pctStr, createdAtStr, updatedAtStr string

	err := row.Scan(&l.ID, &l.BudgetVersionID, &l.WbsNodeID, &qtyStr, &priceStr, &pctStr,
		&createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, notFoundOr("budget line", err)
	}

	err = parseDecimals(
		decimalField{"quantity", qtyStr, &l.Quantity},
		decimalField{"unit_price", priceStr, &l.UnitPrice},
		decimalField{"indirect_pct", pctStr, &l.IndirectPct},
	)
	if err != nil {
		return nil, fmt.Errorf("budget line %s: %w", l.ID, err)
	}
	if l.CreatedAt, l.UpdatedAt, err = parseTimes(createdAtStr, updatedAtStr); err != nil {
		return nil, fmt.Errorf("budget line %s: %w", l.ID, err)
	}
	return &l, nil
}
