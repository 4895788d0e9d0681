package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/service"
)

// FormatVersionList renders a project's budget versions.
func FormatVersionList(versions []*domain.BudgetVersion) string {
	headers := []string{"CODE", "TYPE", "TOTAL", "APPROVED"}
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		total := Dim("--")
		if v.Locked() {
			total = Money(v.TotalCost)
		}
		rows = append(rows, []string{
			Bold(v.VersionCode),
			VersionBadge(v.VersionType),
			total,
			Date(v.ApprovedAt),
		})
	}
	return RenderBox("Budget versions", RenderTable(headers, rows, AlignLeft, AlignLeft, AlignRight, AlignLeft))
}

// FormatBudgetSummary renders every priced line of a version and its totals.
func FormatBudgetSummary(s *service.BudgetSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n\n", Bold(s.Version.VersionCode), VersionBadge(s.Version.VersionType)))

	if len(s.Lines) == 0 {
		b.WriteString(Dim("No budget lines."))
		return RenderBox("Budget", b.String())
	}

	headers := []string{"CODE", "ITEM", "QTY", "UNIT PRICE", "DIRECT", "IND %", "INDIRECT", "TOTAL"}
	rows := make([][]string, 0, len(s.Lines)+1)
	for _, lv := range s.Lines {
		rows = append(rows, []string{
			lv.Node.Code,
			lv.Node.Name,
			Quantity(lv.Line.Quantity),
			Money(lv.Line.UnitPrice),
			Money(lv.Totals.Direct),
			Pct(lv.Line.IndirectPct),
			Money(lv.Totals.Indirect),
			Money(lv.Totals.Total),
		})
	}
	rows = append(rows, []string{
		"", Bold("Total"), "", "",
		Bold(Money(s.Direct)), "",
		Bold(Money(s.Indirect)),
		Bold(Money(s.Total)),
	})

	b.WriteString(RenderTable(headers, rows,
		AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight))
	return RenderBox("Budget", b.String())
}
