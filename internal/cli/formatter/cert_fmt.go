package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/obra/internal/domain"
)

// CertificationView is everything needed to render one certification.
type CertificationView struct {
	Cert  *domain.Certification
	Lines []*domain.CertificationLine
	// Nodes maps WBS node id to node for code and name lookup.
	Nodes map[string]*domain.WbsNode
	// SealOK is nil when the seal was not checked.
	SealOK *bool
}

// FormatCertificationList renders a project's certifications in number order.
func FormatCertificationList(certs []*domain.Certification) string {
	headers := []string{"NO", "PERIOD", "STATUS", "AMOUNT", "ISSUED", "APPROVED BY"}
	rows := make([][]string, 0, len(certs))
	for _, c := range certs {
		amount := Dim("--")
		if c.Status == domain.CertApproved || c.Status == domain.CertVoid {
			amount = Money(c.TotalAmount)
		}
		approvedBy := c.ApprovedBy
		if approvedBy == "" {
			approvedBy = Dim("--")
		}
		rows = append(rows, []string{
			fmt.Sprintf("#%d", c.Number),
			c.Period.String(),
			CertStatusPill(c.Status),
			amount,
			Date(c.IssuedDate),
			approvedBy,
		})
	}
	return RenderBox("Certifications", RenderTable(headers, rows,
		AlignRight, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft))
}

// FormatCertification renders a certification header and its lines.
func FormatCertification(v CertificationView) string {
	c := v.Cert
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n", Bold(fmt.Sprintf("Certification #%d", c.Number)), CertStatusPill(c.Status)))
	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render(fmt.Sprintf("%-11s", label)), value))
	}
	field("PERIOD", c.Period.String())
	field("CREATED BY", c.CreatedBy)
	if c.IssuedDate != nil {
		field("ISSUED", Date(c.IssuedDate)+" by "+c.IssuedBy)
	}
	if c.ApprovedBy != "" {
		field("APPROVED BY", c.ApprovedBy)
	}
	if c.RejectionComment != "" {
		field("REJECTED", StyleRed.Render(c.RejectionComment))
	}
	if c.Sealed() {
		field("SEAL", sealText(c.IntegritySeal, v.SealOK))
	}
	b.WriteString("\n")

	if len(v.Lines) == 0 {
		b.WriteString(Dim("No lines."))
		return RenderBox("", b.String())
	}

	headers := []string{"CODE", "ITEM", "PREV %", "PERIOD %", "TOTAL %", "PERIOD QTY", "REMAINING", "PERIOD AMOUNT", "TOTAL AMOUNT"}
	rows := make([][]string, 0, len(v.Lines)+1)
	for _, l := range v.Lines {
		code, name := TruncID(l.WbsNodeID), ""
		if n, ok := v.Nodes[l.WbsNodeID]; ok {
			code, name = n.Code, n.Name
		}
		rows = append(rows, []string{
			code,
			name,
			Pct(l.PrevProgressPct),
			Pct(l.PeriodProgressPct),
			Pct(l.TotalProgressPct),
			Quantity(l.PeriodQty),
			Quantity(l.RemainingQty),
			Money(l.PeriodAmount),
			Money(l.TotalAmount),
		})
	}
	if c.Status == domain.CertApproved || c.Status == domain.CertVoid {
		rows = append(rows, []string{"", Bold("Period total"), "", "", "", "", "", Bold(Money(c.TotalAmount)), ""})
	}
	b.WriteString(RenderTable(headers, rows,
		AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight))
	return RenderBox("", b.String())
}

func sealText(seal string, ok *bool) string {
	short := seal
	if len(short) > 16 {
		short = short[:16] + "…"
	}
	switch {
	case ok == nil:
		return Dim(short)
	case *ok:
		return StyleGreen.Render("✔ " + short)
	default:
		return StyleRed.Render("✖ " + short + " MISMATCH")
	}
}
