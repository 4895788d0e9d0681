// Package costing derives budget line costs with exact decimal arithmetic.
package costing

import (
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is the derived cost breakdown of one budget line.
type Totals struct {
	Direct   decimal.Decimal
	Indirect decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal returns quantity × unitCost.
func LineTotal(quantity, unitCost decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitCost)
}

// LineTotals derives direct, indirect and total cost. indirectPct is a
// percentage applied to the direct cost; range enforcement is left to callers.
func LineTotals(quantity, unitCost, indirectPct decimal.Decimal) Totals {
	direct := LineTotal(quantity, unitCost)
	indirect := direct.Mul(indirectPct).Div(hundred)
	return Totals{
		Direct:   direct,
		Indirect: indirect,
		Total:    direct.Add(indirect),
	}
}

// ForLine derives the totals of a persisted budget line.
func ForLine(l *domain.BudgetLine) Totals {
	return LineTotals(l.Quantity, l.UnitPrice, l.IndirectPct)
}

// VersionTotal sums line totals exactly.
func VersionTotal(lineTotals []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range lineTotals {
		sum = sum.Add(t)
	}
	return sum
}

// SumLines returns the total cost of a set of budget lines.
func SumLines(lines []*domain.BudgetLine) decimal.Decimal {
	totals := make([]decimal.Decimal, 0, len(lines))
	for _, l := range lines {
		totals = append(totals, ForLine(l).Total)
	}
	return VersionTotal(totals)
}
