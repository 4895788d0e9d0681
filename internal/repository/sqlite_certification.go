package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/domain"
)

const certificationColumns = `id, project_id, budget_version_id, number, period_year, period_month, status,
		created_by, issued_date, issued_by, approved_by, rejection_comment, total_amount, integrity_seal,
		created_at, updated_at`

// certificationLineColumns is prefixed with the l alias so the same list
// serves the joins against certifications.
const certificationLineColumns = `l.id, l.certification_id, l.wbs_node_id,
		l.contractual_qty_snapshot, l.unit_price_snapshot,
		l.prev_progress_pct, l.period_progress_pct, l.total_progress_pct,
		l.prev_qty, l.period_qty, l.total_qty, l.remaining_qty,
		l.prev_amount, l.period_amount, l.total_amount,
		l.baseline_certification_id, l.baseline_version, l.created_at, l.updated_at`

// SQLiteCertificationRepo implements CertificationRepo using a SQLite database.
type SQLiteCertificationRepo struct {
	db db.DBTX
}

// NewSQLiteCertificationRepo creates a new SQLiteCertificationRepo.
func NewSQLiteCertificationRepo(conn db.DBTX) *SQLiteCertificationRepo {
	return &SQLiteCertificationRepo{db: conn}
}

func (r *SQLiteCertificationRepo) Create(ctx context.Context, c *domain.Certification) error {
	query := `INSERT INTO certifications (` + certificationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.ProjectID,
		c.BudgetVersionID,
		c.Number,
		c.Period.Year,
		c.Period.Month,
		string(c.Status),
		c.CreatedBy,
		nullableTimeToString(c.IssuedDate, time.RFC3339),
		c.IssuedBy,
		c.ApprovedBy,
		c.RejectionComment,
		c.TotalAmount.String(),
		c.IntegritySeal,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return persistErr("inserting certification", err)
	}
	return nil
}

func (r *SQLiteCertificationRepo) GetByID(ctx context.Context, id string) (*domain.Certification, error) {
	query := `SELECT ` + certificationColumns + ` FROM certifications WHERE id = ?`
	return scanCertification(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteCertificationRepo) GetByNumber(ctx context.Context, projectID string, number int) (*domain.Certification, error) {
	query := `SELECT ` + certificationColumns + ` FROM certifications WHERE project_id = ? AND number = ?`
	return scanCertification(r.db.QueryRowContext(ctx, query, projectID, number))
}

func (r *SQLiteCertificationRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Certification, error) {
	query := `SELECT ` + certificationColumns + ` FROM certifications WHERE project_id = ? ORDER BY number`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, persistErr("listing certifications", err)
	}
	defer rows.Close()

	var certs []*domain.Certification
	for rows.Next() {
		c, err := scanCertification(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterating certifications", err)
	}
	return certs, nil
}

// Update writes the mutable header fields. Identity (project, number,
// period, budget version) never changes after creation.
func (r *SQLiteCertificationRepo) Update(ctx context.Context, c *domain.Certification) error {
	query := `UPDATE certifications SET status = ?, issued_date = ?, issued_by = ?, approved_by = ?,
		rejection_comment = ?, total_amount = ?, integrity_seal = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		string(c.Status),
		nullableTimeToString(c.IssuedDate, time.RFC3339),
		c.IssuedBy,
		c.ApprovedBy,
		c.RejectionComment,
		c.TotalAmount.String(),
		c.IntegritySeal,
		formatTime(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		return persistErr("updating certification", err)
	}
	return nil
}

// UpsertLine inserts the line or overwrites the computed figures of an
// existing (certification, node) line. Snapshots are never overwritten.
func (r *SQLiteCertificationRepo) UpsertLine(ctx context.Context, l *domain.CertificationLine) error {
	query := `INSERT INTO certification_lines (id, certification_id, wbs_node_id,
			contractual_qty_snapshot, unit_price_snapshot,
			prev_progress_pct, period_progress_pct, total_progress_pct,
			prev_qty, period_qty, total_qty, remaining_qty,
			prev_amount, period_amount, total_amount,
			baseline_certification_id, baseline_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(certification_id, wbs_node_id) DO UPDATE SET
			prev_progress_pct = excluded.prev_progress_pct,
			period_progress_pct = excluded.period_progress_pct,
			total_progress_pct = excluded.total_progress_pct,
			prev_qty = excluded.prev_qty,
			period_qty = excluded.period_qty,
			total_qty = excluded.total_qty,
			remaining_qty = excluded.remaining_qty,
			prev_amount = excluded.prev_amount,
			period_amount = excluded.period_amount,
			total_amount = excluded.total_amount,
			baseline_certification_id = excluded.baseline_certification_id,
			baseline_version = excluded.baseline_version,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.CertificationID,
		l.WbsNodeID,
		l.ContractualQtySnapshot.String(),
		l.UnitPriceSnapshot.String(),
		l.PrevProgressPct.String(),
		l.PeriodProgressPct.String(),
		l.TotalProgressPct.String(),
		l.PrevQty.String(),
		l.PeriodQty.String(),
		l.TotalQty.String(),
		l.RemainingQty.String(),
		l.PrevAmount.String(),
		l.PeriodAmount.String(),
		l.TotalAmount.String(),
		l.BaselineCertificationID,
		l.BaselineVersion,
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
	)
	if err != nil {
		return persistErr("upserting certification line", err)
	}
	return nil
}

func (r *SQLiteCertificationRepo) GetLine(ctx context.Context, certID, wbsNodeID string) (*domain.CertificationLine, error) {
	query := `SELECT ` + certificationLineColumns + ` FROM certification_lines l
		WHERE l.certification_id = ? AND l.wbs_node_id = ?`
	return scanCertificationLine(r.db.QueryRowContext(ctx, query, certID, wbsNodeID))
}

func (r *SQLiteCertificationRepo) ListLines(ctx context.Context, certID string) ([]*domain.CertificationLine, error) {
	query := `SELECT ` + certificationLineColumns + ` FROM certification_lines l
		JOIN wbs_nodes n ON n.id = l.wbs_node_id
		WHERE l.certification_id = ?
		ORDER BY n.sort_order, n.code`
	rows, err := r.db.QueryContext(ctx, query, certID)
	if err != nil {
		return nil, persistErr("listing certification lines", err)
	}
	defer rows.Close()

	var lines []*domain.CertificationLine
	for rows.Next() {
		l, err := scanCertificationLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterating certification lines", err)
	}
	return lines, nil
}

func (r *SQLiteCertificationRepo) DeleteLine(ctx context.Context, certID, wbsNodeID string) error {
	query := `DELETE FROM certification_lines WHERE certification_id = ? AND wbs_node_id = ?`
	if _, err := r.db.ExecContext(ctx, query, certID, wbsNodeID); err != nil {
		return persistErr("deleting certification line", err)
	}
	return nil
}

func (r *SQLiteCertificationRepo) LatestApprovedLine(ctx context.Context, projectID, wbsNodeID string) (*ApprovedLine, error) {
	query := `SELECT ` + certificationLineColumns + `, c.period_year, c.period_month, c.number
		FROM certification_lines l
		JOIN certifications c ON c.id = l.certification_id
		WHERE c.project_id = ? AND l.wbs_node_id = ? AND c.status = 'APPROVED'
		ORDER BY c.period_year DESC, c.period_month DESC, c.number DESC
		LIMIT 1`
	return scanApprovedLine(r.db.QueryRowContext(ctx, query, projectID, wbsNodeID))
}

func (r *SQLiteCertificationRepo) LatestApprovedLines(ctx context.Context, projectID string) (map[string]*ApprovedLine, error) {
	query := `SELECT ` + certificationLineColumns + `, period_year, period_month, number FROM (
			SELECT l.*, c.period_year, c.period_month, c.number,
				ROW_NUMBER() OVER (
					PARTITION BY l.wbs_node_id
					ORDER BY c.period_year DESC, c.period_month DESC, c.number DESC
				) AS rn
			FROM certification_lines l
			JOIN certifications c ON c.id = l.certification_id
			WHERE c.project_id = ? AND c.status = 'APPROVED'
		) AS l
		WHERE rn = 1`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, persistErr("listing latest approved lines", err)
	}
	defer rows.Close()

	latest := make(map[string]*ApprovedLine)
	for rows.Next() {
		a, err := scanApprovedLine(rows)
		if err != nil {
			return nil, err
		}
		latest[a.Line.WbsNodeID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterating latest approved lines", err)
	}
	return latest, nil
}

func (r *SQLiteCertificationRepo) HasApprovedSuccessor(ctx context.Context, certID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM certification_lines l
		JOIN certifications c ON c.id = l.certification_id
		WHERE l.baseline_certification_id = ? AND c.status = 'APPROVED'
	)`
	var exists int
	if err := r.db.QueryRowContext(ctx, query, certID).Scan(&exists); err != nil {
		return false, persistErr("checking approved successors", err)
	}
	return intToBool(exists), nil
}

func scanCertification(row rowScanner) (*domain.Certification, error) {
	var c domain.Certification
	var statusStr, totalStr, createdAtStr, updatedAtStr string
	var issuedDateStr sql.NullString

	err := row.Scan(
		&c.ID, &c.ProjectID, &c.BudgetVersionID, &c.Number, &c.Period.Year, &c.Period.Month, &statusStr,
		&c.CreatedBy, &issuedDateStr, &c.IssuedBy, &c.ApprovedBy, &c.RejectionComment, &totalStr,
		&c.IntegritySeal, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, notFoundOr("certification", err)
	}

	c.Status = domain.CertificationStatus(statusStr)
	c.IssuedDate = parseNullableTime(issuedDateStr, time.RFC3339)
	if err := parseDecimals(decimalField{"total_amount", totalStr, &c.TotalAmount}); err != nil {
		return nil, fmt.Errorf("certification %s: %w", c.ID, err)
	}
	if c.CreatedAt, c.UpdatedAt, err = parseTimes(createdAtStr, updatedAtStr); err != nil {
		return nil, fmt.Errorf("certification %s: %w", c.ID, err)
	}
	return &c, nil
}

// lineScanTargets returns the raw destinations for certificationLineColumns
// together with a populate func that converts them into l.
func lineScanTargets(l *domain.CertificationLine) ([]any, func() error) {
	var contractual, price, prevPct, periodPct, totalPct string
	var prevQty, periodQty, totalQty, remaining string
	var prevAmount, periodAmount, totalAmount string
	var createdAtStr, updatedAtStr string
	var baselineID sql.NullString
	dest := []any{
		&l.ID, &l.CertificationID, &l.WbsNodeID,
		&contractual, &price,
		&prevPct, &periodPct, &totalPct,
		&prevQty, &periodQty, &totalQty, &remaining,
		&prevAmount, &periodAmount, &totalAmount,
		&baselineID, &l.BaselineVersion, &createdAtStr, &updatedAtStr,
	}
	populate := func() error {
		err := parseDecimals(
			decimalField{"contractual_qty_snapshot", contractual, &l.ContractualQtySnapshot},
			decimalField{"unit_price_snapshot", price, &l.UnitPriceSnapshot},
			decimalField{"prev_progress_pct", prevPct, &l.PrevProgressPct},
			decimalField{"period_progress_pct", periodPct, &l.PeriodProgressPct},
			decimalField{"total_progress_pct", totalPct, &l.TotalProgressPct},
			decimalField{"prev_qty", prevQty, &l.PrevQty},
			decimalField{"period_qty", periodQty, &l.PeriodQty},
			decimalField{"total_qty", totalQty, &l.TotalQty},
			decimalField{"remaining_qty", remaining, &l.RemainingQty},
			decimalField{"prev_amount", prevAmount, &l.PrevAmount},
			decimalField{"period_amount", periodAmount, &l.PeriodAmount},
			decimalField{"total_amount", totalAmount, &l.TotalAmount},
		)
		if err != nil {
			return fmt.Errorf("certification line %s: %w", l.ID, err)
		}
		l.BaselineCertificationID = nullableString(baselineID)
		if l.CreatedAt, l.UpdatedAt, err = parseTimes(createdAtStr, updatedAtStr); err != nil {
			return fmt.Errorf("certification line %s: %w", l.ID, err)
		}
		return nil
	}
	return dest, populate
}

func scanCertificationLine(row rowScanner) (*domain.CertificationLine, error) {
	var l domain.CertificationLine
	dest, populate := lineScanTargets(&l)
	if err := row.Scan(dest...); err != nil {
		return nil, notFoundOr("certification line", err)
	}
	if err := populate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanApprovedLine(row rowScanner) (*ApprovedLine, error) {
	a := ApprovedLine{Line: &domain.CertificationLine{}}
	dest, populate := lineScanTargets(a.Line)
	dest = append(dest, &a.Period.Year, &a.Period.Month, &a.Number)
	if err := row.Scan(dest...); err != nil {
		return nil, notFoundOr("approved certification line", err)
	}
	if err := populate(); err != nil {
		return nil, err
	}
	return &a, nil
}
