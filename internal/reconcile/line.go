// Package reconcile computes certification line figures against the prior
// approved cumulative state and evaluates certification state transitions.
// It performs no I/O: callers supply a consistent read of the baseline and
// persist the result.
package reconcile

import (
	"fmt"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
)

// Baseline is the cumulative state of one WBS line as of the most recent
// approved certification. The zero value is period zero.
type Baseline struct {
	CertificationID *string
	Period          domain.Period
	// Number is the baseline certification's number within its project.
	Number      int
	ProgressPct decimal.Decimal
	Qty         decimal.Decimal
	Amount      decimal.Decimal
	// Version is the progress head version read together with the baseline.
	Version int
}

// ZeroBaseline returns the period-zero baseline observed at head version.
func ZeroBaseline(version int) Baseline {
	return Baseline{
		ProgressPct: decimal.Zero,
		Qty:         decimal.Zero,
		Amount:      decimal.Zero,
		Version:     version,
	}
}

// ComputeLine derives every figure of line from its frozen snapshots, the
// baseline and the period progress. The line is left untouched on error.
func ComputeLine(line *domain.CertificationLine, base Baseline, periodPct decimal.Decimal) error {
	if periodPct.IsNegative() {
		return fmt.Errorf("%w: period progress %s%% is negative", domain.ErrProgressOverrun, periodPct)
	}
	totalPct := base.ProgressPct.Add(periodPct)
	if totalPct.GreaterThan(hundred) {
		return fmt.Errorf("%w: cumulative progress %s%% exceeds 100%% (previous %s%% + period %s%%)",
			domain.ErrProgressOverrun, totalPct, base.ProgressPct, periodPct)
	}
	if totalPct.IsNegative() {
		return fmt.Errorf("%w: cumulative progress %s%% is negative", domain.ErrProgressOverrun, totalPct)
	}

	totalQty := line.ContractualQtySnapshot.Mul(totalPct).Div(hundred)
	totalAmount := totalQty.Mul(line.UnitPriceSnapshot)

	line.PrevProgressPct = base.ProgressPct
	line.PeriodProgressPct = periodPct
	line.TotalProgressPct = totalPct
	line.PrevQty = base.Qty
	line.TotalQty = totalQty
	line.PeriodQty = totalQty.Sub(base.Qty)
	line.RemainingQty = line.ContractualQtySnapshot.Sub(totalQty)
	line.PrevAmount = base.Amount
	line.TotalAmount = totalAmount
	line.PeriodAmount = totalAmount.Sub(base.Amount)
	line.BaselineCertificationID = base.CertificationID
	line.BaselineVersion = base.Version
	return nil
}

// CheckInvariants re-verifies the full invariant chain of a line.
func CheckInvariants(line *domain.CertificationLine) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %s: %s", domain.ErrProgressOverrun, line.WbsNodeID, fmt.Sprintf(format, args...))
	}

	if !line.TotalProgressPct.Equal(line.PrevProgressPct.Add(line.PeriodProgressPct)) {
		return fail("total progress %s%% != previous %s%% + period %s%%",
			line.TotalProgressPct, line.PrevProgressPct, line.PeriodProgressPct)
	}
	if line.PeriodProgressPct.IsNegative() {
		return fail("period progress %s%% is negative", line.PeriodProgressPct)
	}
	if line.TotalProgressPct.IsNegative() || line.TotalProgressPct.GreaterThan(hundred) {
		return fail("total progress %s%% outside 0-100", line.TotalProgressPct)
	}
	wantTotalQty := line.ContractualQtySnapshot.Mul(line.TotalProgressPct).Div(hundred)
	if !line.TotalQty.Equal(wantTotalQty) {
		return fail("total qty %s != %s", line.TotalQty, wantTotalQty)
	}
	if !line.RemainingQty.Equal(line.ContractualQtySnapshot.Sub(line.TotalQty)) {
		return fail("remaining qty %s != contractual %s - total %s",
			line.RemainingQty, line.ContractualQtySnapshot, line.TotalQty)
	}
	if !line.PeriodQty.Equal(line.TotalQty.Sub(line.PrevQty)) {
		return fail("period qty %s != total %s - previous %s", line.PeriodQty, line.TotalQty, line.PrevQty)
	}
	if !line.TotalAmount.Equal(line.TotalQty.Mul(line.UnitPriceSnapshot)) {
		return fail("total amount %s != total qty %s x unit price %s",
			line.TotalAmount, line.TotalQty, line.UnitPriceSnapshot)
	}
	if !line.PeriodAmount.Equal(line.TotalAmount.Sub(line.PrevAmount)) {
		return fail("period amount %s != total %s - previous %s",
			line.PeriodAmount, line.TotalAmount, line.PrevAmount)
	}
	return nil
}

// CheckBaseline reports ErrStaleBaseline when the figures a line assumed no
// longer match the current approved baseline for its WBS node, or when the
// baseline does not precede the certification (period, then number).
func CheckBaseline(line *domain.CertificationLine, period domain.Period, number int, current Baseline) error {
	stale := func(reason string) error {
		return fmt.Errorf("%w: line %s: %s", domain.ErrStaleBaseline, line.WbsNodeID, reason)
	}

	if line.BaselineVersion != current.Version {
		return stale(fmt.Sprintf("baseline version %d, current %d", line.BaselineVersion, current.Version))
	}
	if !sameCertification(line.BaselineCertificationID, current.CertificationID) {
		return stale("baseline certification changed")
	}
	if !line.PrevProgressPct.Equal(current.ProgressPct) {
		return stale(fmt.Sprintf("assumed previous progress %s%%, current %s%%", line.PrevProgressPct, current.ProgressPct))
	}
	if !line.PrevQty.Equal(current.Qty) {
		return stale(fmt.Sprintf("assumed previous qty %s, current %s", line.PrevQty, current.Qty))
	}
	if !line.PrevAmount.Equal(current.Amount) {
		return stale(fmt.Sprintf("assumed previous amount %s, current %s", line.PrevAmount, current.Amount))
	}
	if current.CertificationID != nil && !follows(period, number, current.Period, current.Number) {
		return stale(fmt.Sprintf("certification #%d (%s) does not follow approved baseline #%d (%s)",
			number, period, current.Number, current.Period))
	}
	return nil
}

// PeriodTotal sums periodAmount across lines.
func PeriodTotal(lines []*domain.CertificationLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.PeriodAmount)
	}
	return sum
}

func sameCertification(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// follows orders certifications by period, then by number, the same order
// the latest approved baseline is selected in.
func follows(period domain.Period, number int, basePeriod domain.Period, baseNumber int) bool {
	if period.Year != basePeriod.Year {
		return period.Year > basePeriod.Year
	}
	if period.Month != basePeriod.Month {
		return period.Month > basePeriod.Month
	}
	return number > baseNumber
}
