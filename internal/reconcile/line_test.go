package reconcile

import (
	"testing"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newLine(qty, price string) *domain.CertificationLine {
	return &domain.CertificationLine{
		WbsNodeID:              "node-1",
		ContractualQtySnapshot: d(qty),
		UnitPriceSnapshot:      d(price),
	}
}

// baselineFrom turns an approved line into the baseline of the next period.
func baselineFrom(certID string, period domain.Period, l *domain.CertificationLine, version int) Baseline {
	return Baseline{
		CertificationID: &certID,
		Period:          period,
		ProgressPct:     l.TotalProgressPct,
		Qty:             l.TotalQty,
		Amount:          l.TotalAmount,
		Version:         version,
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestComputeLine_FirstAndSecondPeriod(t *testing.T) {
	first := newLine("100", "10")
	require.NoError(t, ComputeLine(first, ZeroBaseline(0), d("30")))

	assertDec(t, "30", first.TotalQty, "totalQty")
	assertDec(t, "300", first.TotalAmount, "totalAmount")
	assertDec(t, "300", first.PeriodAmount, "periodAmount")
	assertDec(t, "70", first.RemainingQty, "remainingQty")
	assert.Nil(t, first.BaselineCertificationID)

	second := newLine("100", "10")
	base := baselineFrom("cert-1", domain.Period{Year: 2025, Month: 1}, first, 1)
	require.NoError(t, ComputeLine(second, base, d("20")))

	assertDec(t, "30", second.PrevQty, "prevQty")
	assertDec(t, "50", second.TotalProgressPct, "totalProgressPct")
	assertDec(t, "50", second.TotalQty, "totalQty")
	assertDec(t, "20", second.PeriodQty, "periodQty")
	assertDec(t, "500", second.TotalAmount, "totalAmount")
	assertDec(t, "200", second.PeriodAmount, "periodAmount")
	assertDec(t, "50", second.RemainingQty, "remainingQty")
	require.NotNil(t, second.BaselineCertificationID)
	assert.Equal(t, "cert-1", *second.BaselineCertificationID)
	assert.Equal(t, 1, second.BaselineVersion)
}

func TestComputeLine_OverrunPastHundred(t *testing.T) {
	line := newLine("100", "10")
	base := Baseline{ProgressPct: d("50"), Qty: d("50"), Amount: d("500")}

	err := ComputeLine(line, base, d("55"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProgressOverrun)
	assert.True(t, line.TotalQty.IsZero(), "line must be untouched on error")
}

func TestComputeLine_ExactlyHundred(t *testing.T) {
	line := newLine("100", "10")
	base := Baseline{ProgressPct: d("50"), Qty: d("50"), Amount: d("500")}

	require.NoError(t, ComputeLine(line, base, d("50")))
	assertDec(t, "100", line.TotalQty, "totalQty")
	assert.True(t, line.RemainingQty.IsZero())
}

func TestComputeLine_NegativePeriodRejected(t *testing.T) {
	line := newLine("100", "10")
	base := Baseline{ProgressPct: d("50"), Qty: d("50"), Amount: d("500")}

	err := ComputeLine(line, base, d("-5"))
	assert.ErrorIs(t, err, domain.ErrProgressOverrun)
}

func TestComputeLine_ZeroPeriodKeepsBaseline(t *testing.T) {
	line := newLine("100", "10")
	base := Baseline{ProgressPct: d("40"), Qty: d("40"), Amount: d("400")}

	require.NoError(t, ComputeLine(line, base, decimal.Zero))
	assert.True(t, line.PeriodQty.IsZero())
	assert.True(t, line.PeriodAmount.IsZero())
	assertDec(t, "400", line.TotalAmount, "totalAmount")
}

func TestComputeLine_FractionalFiguresStayExact(t *testing.T) {
	line := newLine("37.5", "123.45")
	require.NoError(t, ComputeLine(line, ZeroBaseline(0), d("33.3")))

	assertDec(t, "12.4875", line.TotalQty, "totalQty")
	assertDec(t, "1541.581875", line.TotalAmount, "totalAmount")
	require.NoError(t, CheckInvariants(line))
}

func TestCheckInvariants_DetectsTamperedFields(t *testing.T) {
	mutations := map[string]func(l *domain.CertificationLine){
		"periodQty":    func(l *domain.CertificationLine) { l.PeriodQty = l.PeriodQty.Add(d("1")) },
		"totalQty":     func(l *domain.CertificationLine) { l.TotalQty = l.TotalQty.Add(d("1")) },
		"remainingQty": func(l *domain.CertificationLine) { l.RemainingQty = d("0") },
		"totalAmount":  func(l *domain.CertificationLine) { l.TotalAmount = l.TotalAmount.Add(d("0.01")) },
		"periodAmount": func(l *domain.CertificationLine) { l.PeriodAmount = d("1") },
		"totalPct":     func(l *domain.CertificationLine) { l.TotalProgressPct = d("31") },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			line := newLine("100", "10")
			require.NoError(t, ComputeLine(line, ZeroBaseline(0), d("30")))
			require.NoError(t, CheckInvariants(line))

			mutate(line)
			assert.ErrorIs(t, CheckInvariants(line), domain.ErrProgressOverrun)
		})
	}
}

func TestCheckBaseline_StaleAfterConcurrentApproval(t *testing.T) {
	period := domain.Period{Year: 2025, Month: 3}
	base := Baseline{
		CertificationID: ptr("cert-2"),
		Period:          domain.Period{Year: 2025, Month: 2},
		Number:          2,
		ProgressPct:     d("50"), Qty: d("50"), Amount: d("500"),
		Version: 2,
	}

	draftA := newLine("100", "10")
	require.NoError(t, ComputeLine(draftA, base, d("20")))
	draftB := newLine("100", "10")
	require.NoError(t, ComputeLine(draftB, base, d("10")))

	require.NoError(t, CheckBaseline(draftA, period, 3, base))
	afterA := baselineFrom("cert-A", period, draftA, 3)

	err := CheckBaseline(draftB, period, 4, afterA)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStaleBaseline)
	assert.True(t, domain.IsRetryable(err))
}

func TestCheckBaseline_VersionBumpAloneIsStale(t *testing.T) {
	line := newLine("100", "10")
	require.NoError(t, ComputeLine(line, ZeroBaseline(4), d("10")))

	assert.ErrorIs(t, CheckBaseline(line, domain.Period{Year: 2025, Month: 1}, 1, ZeroBaseline(5)), domain.ErrStaleBaseline)
}

func TestCheckBaseline_PeriodBeforeBaselineIsStale(t *testing.T) {
	base := Baseline{
		CertificationID: ptr("cert-9"),
		Period:          domain.Period{Year: 2025, Month: 6},
		ProgressPct:     d("10"), Qty: d("10"), Amount: d("100"),
		Version: 1,
	}
	line := newLine("100", "10")
	require.NoError(t, ComputeLine(line, base, d("10")))

	err := CheckBaseline(line, domain.Period{Year: 2025, Month: 5}, 12, base)
	assert.ErrorIs(t, err, domain.ErrStaleBaseline)
	assert.Contains(t, err.Error(), "does not follow")
}

func TestCheckBaseline_OrderedByPeriodThenNumber(t *testing.T) {
	base := Baseline{
		CertificationID: ptr("cert-5"),
		Period:          domain.Period{Year: 2025, Month: 2},
		Number:          5,
		ProgressPct:     d("30"), Qty: d("30"), Amount: d("300"),
		Version: 1,
	}
	line := newLine("100", "10")
	require.NoError(t, ComputeLine(line, base, d("20")))

	tests := []struct {
		name   string
		period domain.Period
		number int
		stale  bool
	}{
		{"same period lower number", domain.Period{Year: 2025, Month: 2}, 4, true},
		{"same certification number", domain.Period{Year: 2025, Month: 2}, 5, true},
		{"same period higher number", domain.Period{Year: 2025, Month: 2}, 6, false},
		{"later period lower number", domain.Period{Year: 2025, Month: 3}, 1, false},
		{"earlier year higher number", domain.Period{Year: 2024, Month: 12}, 9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBaseline(line, tt.period, tt.number, base)
			if tt.stale {
				assert.ErrorIs(t, err, domain.ErrStaleBaseline)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPeriodTotal(t *testing.T) {
	a := newLine("100", "10")
	require.NoError(t, ComputeLine(a, ZeroBaseline(0), d("30")))
	b := newLine("10", "2.5")
	require.NoError(t, ComputeLine(b, ZeroBaseline(0), d("100")))

	assertDec(t, "325", PeriodTotal([]*domain.CertificationLine{a, b}), "total")
}

func ptr(s string) *string { return &s }
