package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/obra/internal/service"
	"github.com/shopspring/decimal"
)

// FormatVarianceReport renders budget at completion against certified amounts
// per line and for the whole version.
func FormatVarianceReport(r *service.VarianceReport, thresholdPct decimal.Decimal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s  %s\n\n",
		Bold(r.Version.VersionCode),
		VersionBadge(r.Version.VersionType),
		Dim(fmt.Sprintf("band ±%s%%", thresholdPct.String()))))

	headers := []string{"CODE", "ITEM", "DONE %", "BUDGET AT COMPLETION", "CERTIFIED TO DATE", "VARIANCE", "VAR %", "STATUS"}
	rows := make([][]string, 0, len(r.Lines)+1)
	for _, l := range r.Lines {
		rows = append(rows, []string{
			l.Node.Code,
			l.Node.Name,
			Pct(l.ProgressPct),
			Money(l.Result.Planned),
			Money(l.Result.Actual),
			Money(l.Result.Variance),
			Pct(l.Result.VariancePct),
			VarianceIndicator(l.Result.Status),
		})
	}
	rows = append(rows, []string{
		"", Bold("Total"), "",
		Bold(Money(r.Total.Planned)),
		Bold(Money(r.Total.Actual)),
		Bold(Money(r.Total.Variance)),
		Bold(Pct(r.Total.VariancePct)),
		VarianceIndicator(r.Total.Status),
	})

	b.WriteString(RenderTable(headers, rows,
		AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft))
	b.WriteString("\n" + Dim("Budget at completion is the full line budget, so unfinished lines read below it."))
	return RenderBox("Variance", b.String())
}
