package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period identifies a certification month.
type Period struct {
	Year  int
	Month int
}

// Validate checks the month range and a plausible year.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("period month %d out of range 1-12", p.Month)
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("period year %d out of range", p.Year)
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Certification is a periodic progress-billing document.
type Certification struct {
	ID               string
	ProjectID        string
	BudgetVersionID  string
	Number           int
	Period           Period
	Status           CertificationStatus
	CreatedBy        string
	IssuedDate       *time.Time
	IssuedBy         string
	ApprovedBy       string
	RejectionComment string
	TotalAmount      decimal.Decimal
	IntegritySeal    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Sealed reports whether an integrity seal was stored at issuance.
func (c *Certification) Sealed() bool {
	return c.IntegritySeal != ""
}

// CertificationLine carries the cumulative progress of one WBS node in one
// certification. ContractualQtySnapshot and UnitPriceSnapshot are frozen from
// the budget line when the line is first created.
type CertificationLine struct {
	ID                     string
	CertificationID        string
	WbsNodeID              string
	ContractualQtySnapshot decimal.Decimal
	UnitPriceSnapshot      decimal.Decimal

	PrevProgressPct   decimal.Decimal
	PeriodProgressPct decimal.Decimal
	TotalProgressPct  decimal.Decimal

	PrevQty      decimal.Decimal
	PeriodQty    decimal.Decimal
	TotalQty     decimal.Decimal
	RemainingQty decimal.Decimal

	PrevAmount   decimal.Decimal
	PeriodAmount decimal.Decimal
	TotalAmount  decimal.Decimal

	// BaselineCertificationID is the approved certification the prev* figures
	// were read from; nil for period zero.
	BaselineCertificationID *string
	// BaselineVersion is the progress head version observed with the baseline.
	BaselineVersion int

	CreatedAt time.Time
	UpdatedAt time.Time
}
