// Package variance compares planned against actual amounts for reporting.
package variance

import (
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultThresholdPct is the band, in percent, inside which a variance is on track.
var DefaultThresholdPct = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// pctPlaces is the rounding applied to variance percentages.
const pctPlaces = 4

// Result is the outcome of comparing one planned amount against its actual.
type Result struct {
	Planned     decimal.Decimal
	Actual      decimal.Decimal
	Variance    decimal.Decimal
	VariancePct decimal.Decimal
	Status      domain.VarianceStatus
}

// Analyzer classifies variances against a symmetric threshold.
type Analyzer struct {
	ThresholdPct decimal.Decimal
}

// NewAnalyzer returns an Analyzer; a non-positive threshold falls back to
// DefaultThresholdPct.
func NewAnalyzer(thresholdPct decimal.Decimal) Analyzer {
	if !thresholdPct.IsPositive() {
		thresholdPct = DefaultThresholdPct
	}
	return Analyzer{ThresholdPct: thresholdPct}
}

// Analyze computes actual − planned, its percentage of planned (0 when planned
// is zero) and the status band.
func (a Analyzer) Analyze(planned, actual decimal.Decimal) Result {
	v := actual.Sub(planned)
	pct := decimal.Zero
	if !planned.IsZero() {
		pct = v.Div(planned).Mul(hundred).Round(pctPlaces)
	}

	threshold := a.ThresholdPct
	if !threshold.IsPositive() {
		threshold = DefaultThresholdPct
	}
	status := domain.VarianceOnTrack
	switch {
	case pct.LessThan(threshold.Neg()):
		status = domain.VarianceUnder
	case pct.GreaterThan(threshold):
		status = domain.VarianceOver
	}

	return Result{
		Planned:     planned,
		Actual:      actual,
		Variance:    v,
		VariancePct: pct,
		Status:      status,
	}
}

// Analyze uses the default ±10% band.
func Analyze(planned, actual decimal.Decimal) Result {
	return NewAnalyzer(DefaultThresholdPct).Analyze(planned, actual)
}
