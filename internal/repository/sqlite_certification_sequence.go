package repository

import (
	"context"

	"github.com/alexanderramin/obra/internal/db"
)

// SQLiteCertificationSequenceRepo allocates project-scoped certification
// numbers atomically using the certification_sequences table.
type SQLiteCertificationSequenceRepo struct {
	db db.DBTX
}

// NewSQLiteCertificationSequenceRepo creates a new SQLiteCertificationSequenceRepo.
func NewSQLiteCertificationSequenceRepo(conn db.DBTX) *SQLiteCertificationSequenceRepo {
	return &SQLiteCertificationSequenceRepo{db: conn}
}

// NextNumber returns the next certification number for a project. The first
// call seeds the sequence from existing certifications, so numbers stay
// monotonic even for projects created before the sequence table existed.
func (r *SQLiteCertificationSequenceRepo) NextNumber(ctx context.Context, projectID string) (int, error) {
	seedQuery := `INSERT OR IGNORE INTO certification_sequences (project_id, next_number)
		SELECT ?, COALESCE(MAX(number), 0) + 1 FROM certifications WHERE project_id = ?`
	if _, err := r.db.ExecContext(ctx, seedQuery, projectID, projectID); err != nil {
		return 0, persistErr("seeding certification sequence for "+projectID, err)
	}

	var next int
	allocQuery := `UPDATE certification_sequences
		SET next_number = next_number + 1
		WHERE project_id = ?
		RETURNING next_number - 1`
	if err := r.db.QueryRowContext(ctx, allocQuery, projectID).Scan(&next); err != nil {
		return 0, persistErr("allocating certification number for "+projectID, err)
	}
	return next, nil
}
