package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/obra/internal/costing"
	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type budgetService struct {
	budgets  repository.BudgetRepo
	nodes    repository.WbsNodeRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewBudgetService(
	budgets repository.BudgetRepo,
	nodes repository.WbsNodeRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) BudgetService {
	return &budgetService{
		budgets:  budgets,
		nodes:    nodes,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *budgetService) CreateVersion(ctx context.Context, projectID, code string, versionType domain.VersionType) (version *domain.BudgetVersion, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project_id": projectID, "version_code": code}
	defer func() { observeUseCase(ctx, s.observer, "create-budget-version", startedAt, fields, err) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("version code is required")
	}
	if versionType == "" {
		versionType = domain.VersionWorking
	}
	if !domain.ValidVersionTypes[string(versionType)] {
		return nil, fmt.Errorf("invalid version type %q", versionType)
	}
	if versionType.Locked() {
		return nil, fmt.Errorf("%w: new versions start as %s or %s; approve a version to lock it as %s",
			domain.ErrInvalidTransition, domain.VersionWorking, domain.VersionProposal, versionType)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		if _, err := requireActiveProject(ctx, r.projects, projectID); err != nil {
			return err
		}
		now := time.Now().UTC()
		v := &domain.BudgetVersion{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			VersionType: versionType,
			VersionCode: code,
			TotalCost:   decimal.Zero,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := r.budgets.CreateVersion(ctx, v); err != nil {
			return fmt.Errorf("creating budget version %s: %w", code, err)
		}
		version = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func (s *budgetService) GetVersion(ctx context.Context, id string) (*domain.BudgetVersion, error) {
	return s.budgets.GetVersion(ctx, id)
}

func (s *budgetService) ResolveVersion(ctx context.Context, projectID, ref string) (*domain.BudgetVersion, error) {
	v, err := s.budgets.GetVersionByCode(ctx, projectID, ref)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	v, err = s.budgets.GetVersion(ctx, ref)
	if err != nil {
		return nil, err
	}
	if v.ProjectID != projectID {
		return nil, fmt.Errorf("budget version: %w", repository.ErrNotFound)
	}
	return v, nil
}

func (s *budgetService) ListVersions(ctx context.Context, projectID string) ([]*domain.BudgetVersion, error) {
	return s.budgets.ListVersions(ctx, projectID)
}

func (s *budgetService) SetLine(ctx context.Context, versionID, wbsNodeID string, qty, unitPrice, indirectPct decimal.Decimal) (line *domain.BudgetLine, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"version_id": versionID, "node_id": wbsNodeID}
	defer func() { observeUseCase(ctx, s.observer, "set-budget-line", startedAt, fields, err) }()

	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{{"quantity", qty}, {"unit price", unitPrice}, {"indirect pct", indirectPct}} {
		if f.value.IsNegative() {
			return nil, fmt.Errorf("budget line %s must not be negative, got %s", f.name, f.value)
		}
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		version, err := r.budgets.GetVersion(ctx, versionID)
		if err != nil {
			return err
		}
		if version.Locked() {
			return fmt.Errorf("%w: budget version %s is %s", domain.ErrImmutableDocument, version.VersionCode, version.VersionType)
		}
		node, err := r.nodes.GetByID(ctx, wbsNodeID)
		if err != nil {
			return err
		}
		if err := requirePriceableNode(node, version.ProjectID); err != nil {
			return err
		}

		now := time.Now().UTC()
		l := &domain.BudgetLine{
			ID:              uuid.New().String(),
			BudgetVersionID: versionID,
			WbsNodeID:       wbsNodeID,
			Quantity:        qty,
			UnitPrice:       unitPrice,
			IndirectPct:     indirectPct,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		existing, err := r.budgets.GetLine(ctx, versionID, wbsNodeID)
		switch {
		case err == nil:
			l.ID = existing.ID
			l.CreatedAt = existing.CreatedAt
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		if err := r.budgets.UpsertLine(ctx, l); err != nil {
			return fmt.Errorf("pricing node %s: %w", node.Code, err)
		}
		line = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *budgetService) RemoveLine(ctx context.Context, versionID, wbsNodeID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"version_id": versionID, "node_id": wbsNodeID}
	defer func() { observeUseCase(ctx, s.observer, "remove-budget-line", startedAt, fields, err) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		version, err := r.budgets.GetVersion(ctx, versionID)
		if err != nil {
			return err
		}
		if version.Locked() {
			return fmt.Errorf("%w: budget version %s is %s", domain.ErrImmutableDocument, version.VersionCode, version.VersionType)
		}
		if _, err := r.budgets.GetLine(ctx, versionID, wbsNodeID); err != nil {
			return err
		}
		return r.budgets.DeleteLine(ctx, versionID, wbsNodeID)
	})
}

func (s *budgetService) Approve(ctx context.Context, versionID string, as domain.VersionType) (version *domain.BudgetVersion, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"version_id": versionID, "as": string(as)}
	defer func() { observeUseCase(ctx, s.observer, "approve-budget-version", startedAt, fields, err) }()

	if !as.Locked() {
		return nil, fmt.Errorf("%w: a version is approved as %s or %s, not %s",
			domain.ErrInvalidTransition, domain.VersionBaseline, domain.VersionApproved, as)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		v, err := r.budgets.GetVersion(ctx, versionID)
		if err != nil {
			return err
		}
		if v.Locked() {
			return fmt.Errorf("%w: budget version %s is already %s", domain.ErrImmutableDocument, v.VersionCode, v.VersionType)
		}
		lines, err := r.budgets.ListLines(ctx, versionID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("%w: budget version %s", domain.ErrEmptyDocument, v.VersionCode)
		}

		now := time.Now().UTC()
		v.VersionType = as
		v.TotalCost = costing.SumLines(lines)
		v.ApprovedAt = &now
		v.UpdatedAt = now
		if err := r.budgets.UpdateVersion(ctx, v); err != nil {
			return err
		}
		fields["total_cost"] = v.TotalCost.String()
		version = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func (s *budgetService) Summary(ctx context.Context, versionID string) (*BudgetSummary, error) {
	version, err := s.budgets.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	lines, err := s.budgets.ListLines(ctx, versionID)
	if err != nil {
		return nil, err
	}
	nodes, err := nodesByID(ctx, s.nodes, version.ProjectID)
	if err != nil {
		return nil, err
	}

	summary := &BudgetSummary{
		Version:  version,
		Lines:    make([]BudgetLineView, 0, len(lines)),
		Direct:   decimal.Zero,
		Indirect: decimal.Zero,
		Total:    decimal.Zero,
	}
	for _, l := range lines {
		totals := costing.ForLine(l)
		summary.Lines = append(summary.Lines, BudgetLineView{Line: l, Node: nodes[l.WbsNodeID], Totals: totals})
		summary.Direct = summary.Direct.Add(totals.Direct)
		summary.Indirect = summary.Indirect.Add(totals.Indirect)
		summary.Total = summary.Total.Add(totals.Total)
	}
	return summary, nil
}

// requirePriceableNode accepts only active TASK nodes of the given project.
func requirePriceableNode(node *domain.WbsNode, projectID string) error {
	switch {
	case node.ProjectID != projectID:
		return fmt.Errorf("%w: node %s belongs to another project", domain.ErrInvalidHierarchy, node.Code)
	case node.Type != domain.WbsTask:
		return fmt.Errorf("%w: node %s is a %s; only %s nodes carry lines", domain.ErrInvalidHierarchy, node.Code, node.Type, domain.WbsTask)
	case !node.Active:
		return fmt.Errorf("%w: node %s is inactive", domain.ErrInvalidHierarchy, node.Code)
	}
	return nil
}

func nodesByID(ctx context.Context, nodes repository.WbsNodeRepo, projectID string) (map[string]*domain.WbsNode, error) {
	list, err := nodes.ListByProject(ctx, projectID, true)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.WbsNode, len(list))
	for _, n := range list {
		out[n.ID] = n
	}
	return out, nil
}
