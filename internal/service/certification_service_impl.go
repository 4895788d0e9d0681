package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/reconcile"
	"github.com/alexanderramin/obra/internal/repository"
	"github.com/alexanderramin/obra/internal/seal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type certificationService struct {
	certs    repository.CertificationRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewCertificationService(
	certs repository.CertificationRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) CertificationService {
	return &certificationService{
		certs:    certs,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *certificationService) Create(ctx context.Context, projectID, budgetVersionID string, period domain.Period, createdBy string) (cert *domain.Certification, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project_id": projectID, "period": period.String()}
	defer func() { observeUseCase(ctx, s.observer, "create-certification", startedAt, fields, err) }()

	if err = period.Validate(); err != nil {
		return nil, err
	}
	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		return nil, fmt.Errorf("certification author is required")
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		if _, err := requireActiveProject(ctx, r.projects, projectID); err != nil {
			return err
		}
		version, err := r.budgets.GetVersion(ctx, budgetVersionID)
		if err != nil {
			return err
		}
		if version.ProjectID != projectID {
			return fmt.Errorf("budget version %s belongs to another project: %w", version.VersionCode, repository.ErrNotFound)
		}
		if !version.Locked() {
			return fmt.Errorf("%w: budget version %s is %s; certify against a %s or %s version",
				domain.ErrInvalidTransition, version.VersionCode, version.VersionType, domain.VersionBaseline, domain.VersionApproved)
		}

		number, err := r.sequences.NextNumber(ctx, projectID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		c := &domain.Certification{
			ID:              uuid.New().String(),
			ProjectID:       projectID,
			BudgetVersionID: budgetVersionID,
			Number:          number,
			Period:          period,
			Status:          domain.CertDraft,
			CreatedBy:       createdBy,
			TotalAmount:     decimal.Zero,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := r.certs.Create(ctx, c); err != nil {
			return fmt.Errorf("creating certification #%d: %w", number, err)
		}
		cert = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["number"] = cert.Number
	return cert, nil
}

func (s *certificationService) AddOrUpdateLine(ctx context.Context, certID, wbsNodeID string, periodPct decimal.Decimal) (line *domain.CertificationLine, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"certification_id": certID, "node_id": wbsNodeID, "period_pct": periodPct.String()}
	defer func() { observeUseCase(ctx, s.observer, "set-certification-line", startedAt, fields, err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		cert, err := r.certs.GetByID(ctx, certID)
		if err != nil {
			return err
		}
		if err := reconcile.RequireEditable(cert); err != nil {
			return err
		}
		node, err := r.nodes.GetByID(ctx, wbsNodeID)
		if err != nil {
			return err
		}
		if err := requirePriceableNode(node, cert.ProjectID); err != nil {
			return err
		}

		l, err := r.certs.GetLine(ctx, certID, wbsNodeID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			l, err = newCertificationLine(ctx, r, cert, node)
			if err != nil {
				return err
			}
		case err != nil:
			return err
		}

		base, err := currentBaseline(ctx, r, cert.ProjectID, wbsNodeID)
		if err != nil {
			return err
		}
		if err := reconcile.ComputeLine(l, base, periodPct); err != nil {
			return fmt.Errorf("node %s: %w", node.Code, err)
		}
		if err := reconcile.CheckBaseline(l, cert.Period, cert.Number, base); err != nil {
			return err
		}
		l.UpdatedAt = time.Now().UTC()
		if err := r.certs.UpsertLine(ctx, l); err != nil {
			return fmt.Errorf("saving line %s: %w", node.Code, err)
		}
		fields["number"] = cert.Number
		line = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// newCertificationLine freezes the budget line's quantity and unit price
// into a fresh line. The snapshots are never re-read afterwards.
func newCertificationLine(ctx context.Context, r txRepos, cert *domain.Certification, node *domain.WbsNode) (*domain.CertificationLine, error) {
	bl, err := r.budgets.GetLine(ctx, cert.BudgetVersionID, node.ID)
	if err != nil {
		return nil, fmt.Errorf("node %s has no line in the certified budget version: %w", node.Code, err)
	}
	now := time.Now().UTC()
	return &domain.CertificationLine{
		ID:                     uuid.New().String(),
		CertificationID:        cert.ID,
		WbsNodeID:              node.ID,
		ContractualQtySnapshot: bl.Quantity,
		UnitPriceSnapshot:      bl.UnitPrice,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// currentBaseline reads the latest approved cumulative state of a WBS node
// together with its progress head version. Drafts and voided certifications
// are never a baseline.
func currentBaseline(ctx context.Context, r txRepos, projectID, wbsNodeID string) (reconcile.Baseline, error) {
	version, err := r.heads.Get(ctx, projectID, wbsNodeID)
	if err != nil {
		return reconcile.Baseline{}, err
	}
	latest, err := r.certs.LatestApprovedLine(ctx, projectID, wbsNodeID)
	if errors.Is(err, repository.ErrNotFound) {
		return reconcile.ZeroBaseline(version), nil
	}
	if err != nil {
		return reconcile.Baseline{}, err
	}
	certID := latest.Line.CertificationID
	return reconcile.Baseline{
		CertificationID: &certID,
		Period:          latest.Period,
		Number:          latest.Number,
		ProgressPct:     latest.Line.TotalProgressPct,
		Qty:             latest.Line.TotalQty,
		Amount:          latest.Line.TotalAmount,
		Version:         version,
	}, nil
}

func (s *certificationService) RemoveLine(ctx context.Context, certID, wbsNodeID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"certification_id": certID, "node_id": wbsNodeID}
	defer func() { observeUseCase(ctx, s.observer, "remove-certification-line", startedAt, fields, err) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		cert, err := r.certs.GetByID(ctx, certID)
		if err != nil {
			return err
		}
		if err := reconcile.RequireEditable(cert); err != nil {
			return err
		}
		if _, err := r.certs.GetLine(ctx, certID, wbsNodeID); err != nil {
			return err
		}
		return r.certs.DeleteLine(ctx, certID, wbsNodeID)
	})
}

func (s *certificationService) Recompute(ctx context.Context, certID string) (lines []*domain.CertificationLine, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"certification_id": certID}
	defer func() { observeUseCase(ctx, s.observer, "recompute-certification", startedAt, fields, err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		cert, err := r.certs.GetByID(ctx, certID)
		if err != nil {
			return err
		}
		if err := reconcile.RequireEditable(cert); err != nil {
			return err
		}
		ls, err := r.certs.ListLines(ctx, certID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, l := range ls {
			base, err := currentBaseline(ctx, r, cert.ProjectID, l.WbsNodeID)
			if err != nil {
				return err
			}
			if err := reconcile.ComputeLine(l, base, l.PeriodProgressPct); err != nil {
				return err
			}
			if err := reconcile.CheckBaseline(l, cert.Period, cert.Number, base); err != nil {
				return err
			}
			l.UpdatedAt = now
			if err := r.certs.UpsertLine(ctx, l); err != nil {
				return err
			}
		}
		fields["lines"] = len(ls)
		lines = ls
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *certificationService) Submit(ctx context.Context, certID string) (cert *domain.Certification, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"certification_id": certID}
	defer func() { observeUseCase(ctx, s.observer, "submit-certification", startedAt, fields, err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		c, lines, err := loadWithLines(ctx, r, certID)
		if err != nil {
			return err
		}
		if err := reconcile.Submit.Evaluate(c, lines); err != nil {
			return err
		}
		c.Status = reconcile.Submit.To
		c.UpdatedAt = time.Now().UTC()
		if err := r.certs.Update(ctx, c); err != nil {
			return err
		}
		if err := enqueueCertificationEvent(ctx, r.outbox, domain.EventCertificationSubmitted, c, c.CreatedBy, ""); err != nil {
			return err
		}
		fields["number"] = c.Number
		cert = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// Approve issues a submitted certification. Every line's baseline is re-read
// and its progress head compare-and-swapped inside the transaction, so of two
// approvals racing on the same WBS node exactly one commits.
func (s *certificationService) Approve(ctx context.Context, certID, approvedBy string) (cert *domain.Certification, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"certification_id": certID, "approved_by": approvedBy}
	defer func() { observeUseCase(ctx, s.observer, "approve-certification", startedAt, fields, err) }()

	approvedBy = strings.TrimSpace(approvedBy)
	if approvedBy == "" {
		return nil, fmt.Errorf("approver is required")
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		c, lines, err := loadWithLines(ctx, r, certID)
		if err != nil {
			return err
		}
		fields["number"] = c.Number
		if err := reconcile.Approve.Evaluate(c, lines); err != nil {
			return err
		}

		for _, l := range lines {
			base, err := currentBaseline(ctx, r, c.ProjectID, l.WbsNodeID)
			if err != nil {
				return err
			}
			if err := reconcile.CheckBaseline(l, c.Period, c.Number, base); err != nil {
				return err
			}
		}
		for _, l := range lines {
			ok, err := r.heads.CompareAndBump(ctx, c.ProjectID, l.WbsNodeID, l.BaselineVersion)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: line %s: progress head moved past version %d",
					domain.ErrStaleBaseline, l.WbsNodeID, l.BaselineVersion)
			}
		}

		now := time.Now().UTC()
		c.Status = reconcile.Approve.To
		c.TotalAmount = reconcile.PeriodTotal(lines)
		c.IssuedDate = &now
		c.IssuedBy = c.CreatedBy
		c.ApprovedBy = approvedBy
		c.UpdatedAt = now
		c.IntegritySeal, err = seal.Seal(seal.IdentityOf(c), lines)
		if err != nil {
			return err
		}
		if err := r.certs.Update(ctx, c); err != nil {
			return err
		}
		if err := enqueueCertificationEvent(ctx, r.outbox, domain.EventCertificationApproved, c, approvedBy, ""); err != nil {
			return err
		}
		fields["total_amount"] = c.TotalAmount.String()
		cert = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

func (s *certificationService) Reject(ctx context.Context, certID, comment string) (cert *domain.Certification, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"certification_id": certID}
	defer func() { observeUseCase(ctx, s.observer, "reject-certification", startedAt, fields, err) }()

	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, fmt.Errorf("a rejection comment is required")
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		c, err := r.certs.GetByID(ctx, certID)
		if err != nil {
			return err
		}
		if err := reconcile.Reject.Evaluate(c, nil); err != nil {
			return err
		}
		c.Status = reconcile.Reject.To
		c.RejectionComment = comment
		c.UpdatedAt = time.Now().UTC()
		if err := r.certs.Update(ctx, c); err != nil {
			return err
		}
		if err := enqueueCertificationEvent(ctx, r.outbox, domain.EventCertificationRejected, c, "", comment); err != nil {
			return err
		}
		fields["number"] = c.Number
		cert = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// Void cancels an approved certification. Its progress heads are bumped so
// drafts computed on top of it go stale. A certification that a later
// approval already builds on cannot be voided.
func (s *certificationService) Void(ctx context.Context, certID, actor string) (cert *domain.Certification, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"certification_id": certID}
	defer func() { observeUseCase(ctx, s.observer, "void-certification", startedAt, fields, err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		c, lines, err := loadWithLines(ctx, r, certID)
		if err != nil {
			return err
		}
		fields["number"] = c.Number
		if err := reconcile.Void.Evaluate(c, lines); err != nil {
			return err
		}
		succeeded, err := r.certs.HasApprovedSuccessor(ctx, certID)
		if err != nil {
			return err
		}
		if succeeded {
			return fmt.Errorf("%w: certification #%d is the baseline of a later approved certification",
				domain.ErrImmutableDocument, c.Number)
		}
		for _, l := range lines {
			if err := r.heads.Bump(ctx, c.ProjectID, l.WbsNodeID); err != nil {
				return err
			}
		}
		c.Status = reconcile.Void.To
		c.UpdatedAt = time.Now().UTC()
		if err := r.certs.Update(ctx, c); err != nil {
			return err
		}
		if err := enqueueCertificationEvent(ctx, r.outbox, domain.EventCertificationVoided, c, strings.TrimSpace(actor), ""); err != nil {
			return err
		}
		cert = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// VerifySeal recomputes the seal of an issued certification from its stored
// lines. It reports false, without error, when the data no longer matches.
func (s *certificationService) VerifySeal(ctx context.Context, certID string) (bool, error) {
	c, err := s.certs.GetByID(ctx, certID)
	if err != nil {
		return false, err
	}
	if !c.Sealed() {
		return false, fmt.Errorf("%w: certification #%d (%s)", domain.ErrNotSealed, c.Number, c.Status)
	}
	lines, err := s.certs.ListLines(ctx, certID)
	if err != nil {
		return false, err
	}
	if err := seal.Verify(c.IntegritySeal, seal.IdentityOf(c), lines); err != nil {
		if errors.Is(err, domain.ErrSealMismatch) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *certificationService) Get(ctx context.Context, certID string) (*domain.Certification, error) {
	return s.certs.GetByID(ctx, certID)
}

func (s *certificationService) GetByNumber(ctx context.Context, projectID string, number int) (*domain.Certification, error) {
	return s.certs.GetByNumber(ctx, projectID, number)
}

func (s *certificationService) List(ctx context.Context, projectID string) ([]*domain.Certification, error) {
	return s.certs.ListByProject(ctx, projectID)
}

func (s *certificationService) Lines(ctx context.Context, certID string) ([]*domain.CertificationLine, error) {
	return s.certs.ListLines(ctx, certID)
}

func loadWithLines(ctx context.Context, r txRepos, certID string) (*domain.Certification, []*domain.CertificationLine, error) {
	c, err := r.certs.GetByID(ctx, certID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := r.certs.ListLines(ctx, certID)
	if err != nil {
		return nil, nil, err
	}
	return c, lines, nil
}
