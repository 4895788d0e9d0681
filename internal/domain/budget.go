package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetVersion is a snapshot of priced WBS lines for a project. BASELINE and
// APPROVED versions are immutable.
type BudgetVersion struct {
	ID          string
	ProjectID   string
	VersionType VersionType
	VersionCode string
	// TotalCost is stored when the version is locked so the approved total can
	// be presented without re-deriving it from every line.
	TotalCost  decimal.Decimal
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Locked reports whether the version no longer accepts line changes.
func (v *BudgetVersion) Locked() bool {
	return v.VersionType.Locked()
}

// BudgetLine prices one WBS node within a budget version. Costs are derived
// from Quantity, UnitPrice and IndirectPct on every read; see costing.LineTotals.
type BudgetLine struct {
	ID              string
	BudgetVersionID string
	WbsNodeID       string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	IndirectPct     decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
