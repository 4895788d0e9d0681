package seal

import (
	"testing"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testIdentity = Identity{ProjectID: "proj-1", Number: 2, Period: domain.Period{Year: 2025, Month: 4}}

func sampleLines() []*domain.CertificationLine {
	return []*domain.CertificationLine{
		{
			WbsNodeID: "node-a", ContractualQtySnapshot: d("100"), UnitPriceSnapshot: d("10"),
			PrevQty: d("30"), PeriodQty: d("20"), TotalQty: d("50"),
			PrevAmount: d("300"), PeriodAmount: d("200"), TotalAmount: d("500"),
		},
		{
			WbsNodeID: "node-b", ContractualQtySnapshot: d("8"), UnitPriceSnapshot: d("1250.5"),
			PrevQty: d("0"), PeriodQty: d("2"), TotalQty: d("2"),
			PrevAmount: d("0"), PeriodAmount: d("2501"), TotalAmount: d("2501"),
		},
	}
}

func TestSeal_Deterministic(t *testing.T) {
	a, err := Seal(testIdentity, sampleLines())
	require.NoError(t, err)
	b, err := Seal(testIdentity, sampleLines())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, a)
}

func TestSeal_OrderIndependent(t *testing.T) {
	lines := sampleLines()
	reversed := []*domain.CertificationLine{lines[1], lines[0]}

	a, err := Seal(testIdentity, lines)
	require.NoError(t, err)
	b, err := Seal(testIdentity, reversed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSeal_TrailingZerosDoNotMatter(t *testing.T) {
	lines := sampleLines()
	a, err := Seal(testIdentity, lines)
	require.NoError(t, err)

	lines[0].TotalAmount = d("500.00")
	b, err := Seal(testIdentity, lines)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSeal_EveryFrozenFieldChangesSeal(t *testing.T) {
	base, err := Seal(testIdentity, sampleLines())
	require.NoError(t, err)

	one := d("1")
	mutations := map[string]func(l *domain.CertificationLine){
		"wbsNodeID":      func(l *domain.CertificationLine) { l.WbsNodeID = "node-z" },
		"contractualQty": func(l *domain.CertificationLine) { l.ContractualQtySnapshot = l.ContractualQtySnapshot.Add(one) },
		"unitPrice":      func(l *domain.CertificationLine) { l.UnitPriceSnapshot = l.UnitPriceSnapshot.Add(one) },
		"prevQty":        func(l *domain.CertificationLine) { l.PrevQty = l.PrevQty.Add(one) },
		"periodQty":      func(l *domain.CertificationLine) { l.PeriodQty = l.PeriodQty.Add(one) },
		"totalQty":       func(l *domain.CertificationLine) { l.TotalQty = l.TotalQty.Add(one) },
		"prevAmount":     func(l *domain.CertificationLine) { l.PrevAmount = l.PrevAmount.Add(one) },
		"periodAmount":   func(l *domain.CertificationLine) { l.PeriodAmount = l.PeriodAmount.Add(one) },
		"totalAmount":    func(l *domain.CertificationLine) { l.TotalAmount = l.TotalAmount.Add(one) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			lines := sampleLines()
			mutate(lines[0])
			got, err := Seal(testIdentity, lines)
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestSeal_IdentityChangesSeal(t *testing.T) {
	base, err := Seal(testIdentity, sampleLines())
	require.NoError(t, err)

	for name, id := range map[string]Identity{
		"project": {ProjectID: "proj-2", Number: 2, Period: testIdentity.Period},
		"number":  {ProjectID: "proj-1", Number: 3, Period: testIdentity.Period},
		"month":   {ProjectID: "proj-1", Number: 2, Period: domain.Period{Year: 2025, Month: 5}},
		"year":    {ProjectID: "proj-1", Number: 2, Period: domain.Period{Year: 2026, Month: 4}},
	} {
		got, err := Seal(id, sampleLines())
		require.NoError(t, err)
		assert.NotEqual(t, base, got, name)
	}
}

func TestVerify(t *testing.T) {
	stored, err := Seal(testIdentity, sampleLines())
	require.NoError(t, err)
	require.NoError(t, Verify(stored, testIdentity, sampleLines()))

	tampered := sampleLines()
	tampered[1].PeriodQty = d("3")
	err = Verify(stored, testIdentity, tampered)
	assert.ErrorIs(t, err, domain.ErrSealMismatch)

	assert.ErrorIs(t, Verify("", testIdentity, sampleLines()), domain.ErrNotSealed)
}

func TestCanonical_SortedKeys(t *testing.T) {
	out, err := Canonical(testIdentity, sampleLines()[:1])
	require.NoError(t, err)
	assert.Equal(t,
		`{"lines":[{"contractual_qty_snapshot":"100","period_amount":"200","period_qty":"20",`+
			`"prev_amount":"300","prev_qty":"30","total_amount":"500","total_qty":"50",`+
			`"unit_price_snapshot":"10","wbs_node_id":"node-a"}],`+
			`"number":2,"period_month":4,"period_year":2025,"project_id":"proj-1"}`,
		string(out))
}

func TestProperty_SealDeterministicAndSensitive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("identical input seals identically, a changed period qty does not", prop.ForAll(
		func(node string, qty, amount int64) bool {
			line := func() *domain.CertificationLine {
				return &domain.CertificationLine{
					WbsNodeID: node, ContractualQtySnapshot: decimal.New(qty, -2), UnitPriceSnapshot: decimal.NewFromInt(3),
					PeriodQty: decimal.New(qty, -3), TotalQty: decimal.New(qty, -3),
					PeriodAmount: decimal.New(amount, -2), TotalAmount: decimal.New(amount, -2),
				}
			}
			a, errA := Seal(testIdentity, []*domain.CertificationLine{line()})
			b, errB := Seal(testIdentity, []*domain.CertificationLine{line()})
			if errA != nil || errB != nil || a != b {
				return false
			}
			changed := line()
			changed.PeriodQty = changed.PeriodQty.Add(decimal.New(1, -4))
			c, errC := Seal(testIdentity, []*domain.CertificationLine{changed})
			return errC == nil && c != a
		},
		gen.AlphaString(),
		gen.Int64Range(0, 1_000_000_000),
		gen.Int64Range(0, 1_000_000_000),
	))

	properties.TestingRun(t)
}
