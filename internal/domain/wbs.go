package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WbsNode is one node of the PHASE → ACTIVITY → TASK tree. Parents own the
// ordering of their children, not their lifecycle.
type WbsNode struct {
	ID        string
	ProjectID string
	ParentID  *string
	Code      string // dot-delimited path, e.g. "1.2.3"
	Name      string
	Category  string
	Type      WbsType
	Unit      string
	Quantity  decimal.Decimal
	SortOrder int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Deactivate soft-deletes the node. Referenced nodes are never hard-deleted.
func (n *WbsNode) Deactivate(now time.Time) {
	n.Active = false
	n.UpdatedAt = now
}
