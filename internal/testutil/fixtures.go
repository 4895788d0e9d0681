package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testShortIDCounter atomic.Int64

// D parses a decimal literal and panics on malformed input.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Project options
type ProjectOption func(*domain.Project)

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func WithShortID(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ShortID = id
	}
}

func WithClient(c string) ProjectOption {
	return func(p *domain.Project) {
		p.Client = c
	}
}

func defaultShortID(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testShortIDCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	ts := now()
	p := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   defaultShortID(name),
		Name:      name,
		Status:    domain.ProjectActive,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WbsNode options
type WbsNodeOption func(*domain.WbsNode)

func WithParent(parent *domain.WbsNode) WbsNodeOption {
	return func(n *domain.WbsNode) {
		id := parent.ID
		n.ParentID = &id
	}
}

func WithQuantity(unit, qty string) WbsNodeOption {
	return func(n *domain.WbsNode) {
		n.Unit = unit
		n.Quantity = D(qty)
	}
}

func WithSortOrder(i int) WbsNodeOption {
	return func(n *domain.WbsNode) {
		n.SortOrder = i
	}
}

func WithInactive() WbsNodeOption {
	return func(n *domain.WbsNode) {
		n.Active = false
	}
}

func NewTestWbsNode(projectID, code string, typ domain.WbsType, opts ...WbsNodeOption) *domain.WbsNode {
	ts := now()
	n := &domain.WbsNode{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Code:      code,
		Name:      fmt.Sprintf("%s %s", typ, code),
		Type:      typ,
		Quantity:  decimal.Zero,
		Active:    true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Budget options
type BudgetVersionOption func(*domain.BudgetVersion)

func WithVersionType(t domain.VersionType) BudgetVersionOption {
	return func(v *domain.BudgetVersion) {
		v.VersionType = t
		if t.Locked() && v.ApprovedAt == nil {
			ts := now()
			v.ApprovedAt = &ts
		}
	}
}

// NewTestBudgetVersion returns a BASELINE version unless overridden.
func NewTestBudgetVersion(projectID, code string, opts ...BudgetVersionOption) *domain.BudgetVersion {
	ts := now()
	v := &domain.BudgetVersion{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		VersionType: domain.VersionBaseline,
		VersionCode: code,
		TotalCost:   decimal.Zero,
		ApprovedAt:  &ts,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type BudgetLineOption func(*domain.BudgetLine)

func WithIndirectPct(pct string) BudgetLineOption {
	return func(l *domain.BudgetLine) {
		l.IndirectPct = D(pct)
	}
}

func NewTestBudgetLine(versionID, wbsNodeID, qty, unitPrice string, opts ...BudgetLineOption) *domain.BudgetLine {
	ts := now()
	l := &domain.BudgetLine{
		ID:              uuid.New().String(),
		BudgetVersionID: versionID,
		WbsNodeID:       wbsNodeID,
		Quantity:        D(qty),
		UnitPrice:       D(unitPrice),
		IndirectPct:     decimal.Zero,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Certification options
type CertificationOption func(*domain.Certification)

func WithCertStatus(s domain.CertificationStatus) CertificationOption {
	return func(c *domain.Certification) {
		c.Status = s
	}
}

func WithPeriod(year, month int) CertificationOption {
	return func(c *domain.Certification) {
		c.Period = domain.Period{Year: year, Month: month}
	}
}

func NewTestCertification(projectID, versionID string, number int, opts ...CertificationOption) *domain.Certification {
	ts := now()
	c := &domain.Certification{
		ID:              uuid.New().String(),
		ProjectID:       projectID,
		BudgetVersionID: versionID,
		Number:          number,
		Period:          domain.Period{Year: 2025, Month: number},
		Status:          domain.CertDraft,
		CreatedBy:       "tester",
		TotalAmount:     decimal.Zero,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewTestCertificationLine returns a line for a fresh node with the given
// snapshot and cumulative progress, computed from a zero baseline.
func NewTestCertificationLine(certID, wbsNodeID, contractualQty, unitPrice, totalPct string) *domain.CertificationLine {
	ts := now()
	qty := D(contractualQty)
	price := D(unitPrice)
	pct := D(totalPct)
	totalQty := qty.Mul(pct).Div(decimal.NewFromInt(100))
	amount := totalQty.Mul(price)
	return &domain.CertificationLine{
		ID:                     uuid.New().String(),
		CertificationID:        certID,
		WbsNodeID:              wbsNodeID,
		ContractualQtySnapshot: qty,
		UnitPriceSnapshot:      price,
		PrevProgressPct:        decimal.Zero,
		PeriodProgressPct:      pct,
		TotalProgressPct:       pct,
		PrevQty:                decimal.Zero,
		PeriodQty:              totalQty,
		TotalQty:               totalQty,
		RemainingQty:           qty.Sub(totalQty),
		PrevAmount:             decimal.Zero,
		PeriodAmount:           amount,
		TotalAmount:            amount,
		CreatedAt:              ts,
		UpdatedAt:              ts,
	}
}
