package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/domain"
)

// wbsNodeColumns is the canonical SELECT column list for wbs_nodes.
const wbsNodeColumns = `id, project_id, parent_id, code, name, category, type, unit, quantity,
		sort_order, active, created_at, updated_at`

// SQLiteWbsNodeRepo implements WbsNodeRepo using a SQLite database.
type SQLiteWbsNodeRepo struct {
	db db.DBTX
}

// NewSQLiteWbsNodeRepo creates a new SQLiteWbsNodeRepo.
func NewSQLiteWbsNodeRepo(conn db.DBTX) *SQLiteWbsNodeRepo {
	return &SQLiteWbsNodeRepo{db: conn}
}

func (r *SQLiteWbsNodeRepo) Create(ctx context.Context, n *domain.WbsNode) error {
	query := `INSERT INTO wbs_nodes (` + wbsNodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.ProjectID,
		n.ParentID, // *string: nil becomes SQL NULL
		n.Code,
		n.Name,
		n.Category,
		string(n.Type),
		n.Unit,
		n.Quantity.String(),
		n.SortOrder,
		boolToInt(n.Active),
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	)
	if err != nil {
		return persistErr("inserting wbs node", err)
	}
	return nil
}

func (r *SQLiteWbsNodeRepo) GetByID(ctx context.Context, id string) (*domain.WbsNode, error) {
	query := `SELECT ` + wbsNodeColumns + ` FROM wbs_nodes WHERE id = ?`
	return r.scanNode(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteWbsNodeRepo) GetByCode(ctx context.Context, projectID, code string) (*domain.WbsNode, error) {
	query := `SELECT ` + wbsNodeColumns + ` FROM wbs_nodes WHERE project_id = ? AND code = ?`
	return r.scanNode(r.db.QueryRowContext(ctx, query, projectID, code))
}

func (r *SQLiteWbsNodeRepo) ListByProject(ctx context.Context, projectID string, includeInactive bool) ([]*domain.WbsNode, error) {
	query := `SELECT ` + wbsNodeColumns + ` FROM wbs_nodes WHERE project_id = ? AND active = 1 ORDER BY sort_order, code`
	if includeInactive {
		query = `SELECT ` + wbsNodeColumns + ` FROM wbs_nodes WHERE project_id = ? ORDER BY sort_order, code`
	}
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, persistErr("listing wbs nodes", err)
	}
	defer rows.Close()
	return r.scanNodes(rows)
}

func (r *SQLiteWbsNodeRepo) ChildCodes(ctx context.Context, projectID string, parentID *string) ([]string, error) {
	var rows *sql.Rows
	var err error
	if parentID == nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT code FROM wbs_nodes WHERE project_id = ? AND parent_id IS NULL`, projectID)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT code FROM wbs_nodes WHERE project_id = ? AND parent_id = ?`, projectID, *parentID)
	}
	if err != nil {
		return nil, persistErr("listing sibling codes", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, persistErr("scanning sibling code", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterating sibling codes", err)
	}
	return codes, nil
}

func (r *SQLiteWbsNodeRepo) Update(ctx context.Context, n *domain.WbsNode) error {
	query := `UPDATE wbs_nodes SET name = ?, category = ?, unit = ?, quantity = ?, sort_order = ?,
		active = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		n.Name,
		n.Category,
		n.Unit,
		n.Quantity.String(),
		n.SortOrder,
		boolToInt(n.Active),
		formatTime(n.UpdatedAt),
		n.ID,
	)
	if err != nil {
		return persistErr("updating wbs node", err)
	}
	return nil
}

func (r *SQLiteWbsNodeRepo) IsReferenced(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM wbs_nodes WHERE parent_id = ?)
		OR EXISTS (SELECT 1 FROM budget_lines WHERE wbs_node_id = ?)
		OR EXISTS (SELECT 1 FROM certification_lines WHERE wbs_node_id = ?)`
	var referenced int
	if err := r.db.QueryRowContext(ctx, query, id, id, id).Scan(&referenced); err != nil {
		return false, persistErr("checking wbs node references", err)
	}
	return intToBool(referenced), nil
}

func (r *SQLiteWbsNodeRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM progress_heads WHERE wbs_node_id = ?`, id); err != nil {
		return persistErr("deleting progress head", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wbs_nodes WHERE id = ?`, id); err != nil {
		return persistErr("deleting wbs node", err)
	}
	return nil
}

func (r *SQLiteWbsNodeRepo) scanNode(row rowScanner) (*domain.WbsNode, error) {
	var n domain.WbsNode
	var parentID sql.NullString
	var typeStr, quantityStr, createdAtStr, updatedAtStr string
	var active int

	err := row.Scan(
		&n.ID, &n.ProjectID, &parentID, &n.Code, &n.Name, &n.Category, &typeStr,
		&n.Unit, &quantityStr, &n.SortOrder, &active, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, notFoundOr("wbs node", err)
	}

	n.ParentID = nullableString(parentID)
	n.Type = domain.WbsType(typeStr)
	n.Active = intToBool(active)
	if err := parseDecimals(decimalField{"quantity", quantityStr, &n.Quantity}); err != nil {
		return nil, fmt.Errorf("wbs node %s: %w", n.ID, err)
	}
	if n.CreatedAt, n.UpdatedAt, err = parseTimes(createdAtStr, updatedAtStr); err != nil {
		return nil, fmt.Errorf("wbs node %s: %w", n.ID, err)
	}
	return &n, nil
}

func (r *SQLiteWbsNodeRepo) scanNodes(rows *sql.Rows) ([]*domain.WbsNode, error) {
	var nodes []*domain.WbsNode
	for rows.Next() {
		n, err := r.scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterating wbs nodes", err)
	}
	return nodes, nil
}
