package reconcile

import (
	"fmt"

	"github.com/alexanderramin/obra/internal/domain"
)

// Guard is one named precondition of a state transition.
type Guard struct {
	Name  string
	Check func(c *domain.Certification, lines []*domain.CertificationLine) error
}

// Transition describes a certification state change and the predicates that
// must hold before it is applied.
type Transition struct {
	Name   string
	From   []domain.CertificationStatus
	To     domain.CertificationStatus
	Guards []Guard
}

var (
	guardHasLines = Guard{
		Name: "has_lines",
		Check: func(c *domain.Certification, lines []*domain.CertificationLine) error {
			if len(lines) == 0 {
				return fmt.Errorf("%w: certification #%d", domain.ErrEmptyDocument, c.Number)
			}
			return nil
		},
	}

	guardLineInvariants = Guard{
		Name: "line_invariants",
		Check: func(_ *domain.Certification, lines []*domain.CertificationLine) error {
			for _, l := range lines {
				if err := CheckInvariants(l); err != nil {
					return err
				}
			}
			return nil
		},
	}

	guardNotSealed = Guard{
		Name: "not_sealed",
		Check: func(c *domain.Certification, _ []*domain.CertificationLine) error {
			if c.Sealed() || c.IssuedDate != nil {
				return fmt.Errorf("%w: certification #%d was already issued", domain.ErrImmutableDocument, c.Number)
			}
			return nil
		},
	}

	guardSealed = Guard{
		Name: "sealed",
		Check: func(c *domain.Certification, _ []*domain.CertificationLine) error {
			if !c.Sealed() {
				return fmt.Errorf("%w: certification #%d", domain.ErrNotSealed, c.Number)
			}
			return nil
		},
	}
)

// The certification state machine.
var (
	Submit = Transition{
		Name:   "submit",
		From:   []domain.CertificationStatus{domain.CertDraft, domain.CertRejected},
		To:     domain.CertSubmitted,
		Guards: []Guard{guardHasLines, guardLineInvariants},
	}
	Approve = Transition{
		Name:   "approve",
		From:   []domain.CertificationStatus{domain.CertSubmitted},
		To:     domain.CertApproved,
		Guards: []Guard{guardNotSealed, guardHasLines, guardLineInvariants},
	}
	Reject = Transition{
		Name: "reject",
		From: []domain.CertificationStatus{domain.CertDraft, domain.CertSubmitted},
		To:   domain.CertRejected,
	}
	Void = Transition{
		Name:   "void",
		From:   []domain.CertificationStatus{domain.CertApproved},
		To:     domain.CertVoid,
		Guards: []Guard{guardSealed},
	}
)

// Evaluate checks the source status and then every guard in order, returning
// the first failure.
func (t Transition) Evaluate(c *domain.Certification, lines []*domain.CertificationLine) error {
	if !t.accepts(c.Status) {
		if c.Status.Editable() {
			return fmt.Errorf("%w: cannot %s certification #%d in status %s",
				domain.ErrInvalidTransition, t.Name, c.Number, c.Status)
		}
		return fmt.Errorf("%w: cannot %s certification #%d in status %s",
			domain.ErrImmutableDocument, t.Name, c.Number, c.Status)
	}
	for _, g := range t.Guards {
		if err := g.Check(c, lines); err != nil {
			return err
		}
	}
	return nil
}

func (t Transition) accepts(s domain.CertificationStatus) bool {
	for _, f := range t.From {
		if f == s {
			return true
		}
	}
	return false
}

// RequireEditable fails with ErrImmutableDocument unless the certification's
// lines may still change.
func RequireEditable(c *domain.Certification) error {
	if !c.Status.Editable() {
		return fmt.Errorf("%w: certification #%d is %s", domain.ErrImmutableDocument, c.Number, c.Status)
	}
	return nil
}
