package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/repository"
	"github.com/alexanderramin/obra/internal/wbs"
	"github.com/google/uuid"
)

type wbsService struct {
	nodes    repository.WbsNodeRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewWbsService(nodes repository.WbsNodeRepo, uow db.UnitOfWork, observers ...UseCaseObserver) WbsService {
	return &wbsService{nodes: nodes, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *wbsService) CreateNode(ctx context.Context, in NodeInput) (node *domain.WbsNode, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project_id": in.ProjectID, "type": string(in.Type)}
	defer func() { observeUseCase(ctx, s.observer, "create-wbs-node", startedAt, fields, err) }()

	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("node name is required")
	}
	if in.Quantity.IsNegative() {
		return nil, fmt.Errorf("node quantity must not be negative, got %s", in.Quantity)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		if _, err := requireActiveProject(ctx, r.projects, in.ProjectID); err != nil {
			return err
		}

		var parent *domain.WbsNode
		parentCode := ""
		if in.ParentID != nil {
			p, err := r.nodes.GetByID(ctx, *in.ParentID)
			if err != nil {
				return fmt.Errorf("parent: %w", err)
			}
			parent = p
			parentCode = p.Code
		}

		code := in.Code
		if code == "" {
			siblings, err := r.nodes.ChildCodes(ctx, in.ProjectID, in.ParentID)
			if err != nil {
				return err
			}
			code = wbs.GenerateCode(parentCode, wbs.NextSequence(siblings))
		}

		now := time.Now().UTC()
		n := &domain.WbsNode{
			ID:        uuid.New().String(),
			ProjectID: in.ProjectID,
			ParentID:  in.ParentID,
			Code:      code,
			Name:      in.Name,
			Category:  in.Category,
			Type:      in.Type,
			Unit:      in.Unit,
			Quantity:  in.Quantity,
			SortOrder: in.SortOrder,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := wbs.ValidateNode(parent, n); err != nil {
			return err
		}
		if err := r.nodes.Create(ctx, n); err != nil {
			return fmt.Errorf("creating node %s: %w", n.Code, err)
		}
		node = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["code"] = node.Code
	return node, nil
}

func (s *wbsService) GetByID(ctx context.Context, id string) (*domain.WbsNode, error) {
	return s.nodes.GetByID(ctx, id)
}

func (s *wbsService) GetByCode(ctx context.Context, projectID, code string) (*domain.WbsNode, error) {
	return s.nodes.GetByCode(ctx, projectID, code)
}

func (s *wbsService) Tree(ctx context.Context, projectID string, includeInactive bool) ([]TreeEntry, error) {
	nodes, err := s.nodes.ListByProject(ctx, projectID, includeInactive)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	children := make(map[string][]*domain.WbsNode)
	var roots []*domain.WbsNode
	for _, n := range nodes {
		// A node whose parent is filtered out is shown at the top level.
		if n.ParentID == nil || !present[*n.ParentID] {
			roots = append(roots, n)
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}

	entries := make([]TreeEntry, 0, len(nodes))
	var walk func(n *domain.WbsNode, depth int)
	walk = func(n *domain.WbsNode, depth int) {
		entries = append(entries, TreeEntry{Node: n, Depth: depth})
		for _, c := range children[n.ID] {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	return entries, nil
}

func (s *wbsService) Deactivate(ctx context.Context, id string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": id}
	defer func() { observeUseCase(ctx, s.observer, "deactivate-wbs-node", startedAt, fields, err) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		node, err := r.nodes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		all, err := r.nodes.ListByProject(ctx, node.ProjectID, true)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		count := 0
		for _, n := range all {
			if n.ID != node.ID && !strings.HasPrefix(n.Code, node.Code+".") {
				continue
			}
			if !n.Active {
				continue
			}
			n.Deactivate(now)
			if err := r.nodes.Update(ctx, n); err != nil {
				return fmt.Errorf("deactivating node %s: %w", n.Code, err)
			}
			count++
		}
		fields["deactivated"] = count
		return nil
	})
}

func (s *wbsService) Delete(ctx context.Context, id string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": id}
	defer func() { observeUseCase(ctx, s.observer, "delete-wbs-node", startedAt, fields, err) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		node, err := r.nodes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		referenced, err := r.nodes.IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return fmt.Errorf("%w: %s %s; deactivate it instead", domain.ErrNodeReferenced, node.Type, node.Code)
		}
		return r.nodes.Delete(ctx, id)
	})
}
