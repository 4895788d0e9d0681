// Package seal fingerprints issued certifications so that later tampering
// with their line data can be detected by recomputing and comparing.
package seal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/gowebpki/jcs"
)

const prefix = "sha256:"

// Identity is the part of a certification's identity covered by its seal.
type Identity struct {
	ProjectID string
	Number    int
	Period    domain.Period
}

// IdentityOf extracts the sealed identity of c.
func IdentityOf(c *domain.Certification) Identity {
	return Identity{ProjectID: c.ProjectID, Number: c.Number, Period: c.Period}
}

type sealedLine struct {
	WbsNodeID      string `json:"wbs_node_id"`
	ContractualQty string `json:"contractual_qty_snapshot"`
	UnitPrice      string `json:"unit_price_snapshot"`
	PrevQty        string `json:"prev_qty"`
	PeriodQty      string `json:"period_qty"`
	TotalQty       string `json:"total_qty"`
	PrevAmount     string `json:"prev_amount"`
	PeriodAmount   string `json:"period_amount"`
	TotalAmount    string `json:"total_amount"`
}

type sealedDocument struct {
	ProjectID   string       `json:"project_id"`
	Number      int          `json:"number"`
	PeriodYear  int          `json:"period_year"`
	PeriodMonth int          `json:"period_month"`
	Lines       []sealedLine `json:"lines"`
}

// Canonical returns the RFC 8785 canonical JSON the seal is computed over.
// Lines are ordered by WBS node id and decimals use their shortest exact
// form, so neither input order nor trailing zeros affect the result.
func Canonical(id Identity, lines []*domain.CertificationLine) ([]byte, error) {
	doc := sealedDocument{
		ProjectID:   id.ProjectID,
		Number:      id.Number,
		PeriodYear:  id.Period.Year,
		PeriodMonth: id.Period.Month,
		Lines:       make([]sealedLine, 0, len(lines)),
	}
	for _, l := range lines {
		doc.Lines = append(doc.Lines, sealedLine{
			WbsNodeID:      l.WbsNodeID,
			ContractualQty: l.ContractualQtySnapshot.String(),
			UnitPrice:      l.UnitPriceSnapshot.String(),
			PrevQty:        l.PrevQty.String(),
			PeriodQty:      l.PeriodQty.String(),
			TotalQty:       l.TotalQty.String(),
			PrevAmount:     l.PrevAmount.String(),
			PeriodAmount:   l.PeriodAmount.String(),
			TotalAmount:    l.TotalAmount.String(),
		})
	}
	sort.Slice(doc.Lines, func(i, j int) bool {
		return doc.Lines[i].WbsNodeID < doc.Lines[j].WbsNodeID
	})

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling sealed document: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing sealed document: %w", err)
	}
	return canonical, nil
}

// Seal returns the integrity seal of a certification's frozen line data.
func Seal(id Identity, lines []*domain.CertificationLine) (string, error) {
	canonical, err := Canonical(id, lines)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return prefix + hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the seal and compares it with the stored one.
func Verify(stored string, id Identity, lines []*domain.CertificationLine) error {
	if stored == "" {
		return fmt.Errorf("%w: certification #%d", domain.ErrNotSealed, id.Number)
	}
	got, err := Seal(id, lines)
	if err != nil {
		return err
	}
	if got != stored {
		return fmt.Errorf("%w: certification #%d: stored %s, recomputed %s", domain.ErrSealMismatch, id.Number, stored, got)
	}
	return nil
}
