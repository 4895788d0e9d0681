package importer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/obra/internal/costing"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/wbs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Generated holds the domain objects produced from an import document.
// Nodes are ordered parents first so they can be inserted in sequence.
type Generated struct {
	Project *domain.Project
	Nodes   []*domain.WbsNode
	Version *domain.BudgetVersion
	Lines   []*domain.BudgetLine
}

// Convert transforms a validated ImportDocument into domain objects ready for
// persistence. Call ValidateImportDocument first; Convert assumes the refs
// resolve but still re-checks every node against the hierarchy rules.
func Convert(doc *ImportDocument) (*Generated, error) {
	now := time.Now().UTC()

	project := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   strings.ToUpper(strings.TrimSpace(doc.Project.ShortID)),
		Name:      doc.Project.Name,
		Client:    doc.Project.Client,
		Status:    domain.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ordered := make([]*NodeImport, len(doc.Wbs))
	for i := range doc.Wbs {
		ordered[i] = &doc.Wbs[i]
	}
	// Depth follows type, so sorting by type depth puts parents first.
	// Within a depth, sort_order then file order decide sibling sequence.
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := wbs.DepthOfType(domain.WbsType(ordered[i].Type)), wbs.DepthOfType(domain.WbsType(ordered[j].Type))
		if di != dj {
			return di < dj
		}
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	byRef := make(map[string]*domain.WbsNode, len(ordered))
	siblingCodes := make(map[string][]string) // parent id ("" for roots) -> codes
	for _, n := range ordered {
		if n.Code != "" {
			parentKey := ""
			if n.ParentRef != nil {
				parentKey = *n.ParentRef
			}
			siblingCodes["ref:"+parentKey] = append(siblingCodes["ref:"+parentKey], n.Code)
		}
	}

	nodes := make([]*domain.WbsNode, 0, len(ordered))
	for _, n := range ordered {
		var parent *domain.WbsNode
		parentKey := ""
		if n.ParentRef != nil && *n.ParentRef != "" {
			parentKey = *n.ParentRef
			p, ok := byRef[parentKey]
			if !ok {
				return nil, fmt.Errorf("node %q: parent %q not converted", n.Ref, parentKey)
			}
			parent = p
		}

		code := n.Code
		if code == "" {
			key := "ref:" + parentKey
			parentCode := ""
			if parent != nil {
				parentCode = parent.Code
			}
			code = wbs.GenerateCode(parentCode, wbs.NextSequence(siblingCodes[key]))
			siblingCodes[key] = append(siblingCodes[key], code)
		}

		qty := decimal.Zero
		if n.Quantity != "" {
			qty = decimal.RequireFromString(n.Quantity)
		}

		node := &domain.WbsNode{
			ID:        uuid.New().String(),
			ProjectID: project.ID,
			Code:      code,
			Name:      n.Name,
			Category:  n.Category,
			Type:      domain.WbsType(n.Type),
			Unit:      n.Unit,
			Quantity:  qty,
			SortOrder: n.SortOrder,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if parent != nil {
			pid := parent.ID
			node.ParentID = &pid
		}
		if err := wbs.ValidateNode(parent, node); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Ref, err)
		}
		byRef[n.Ref] = node
		nodes = append(nodes, node)
	}

	gen := &Generated{Project: project, Nodes: nodes}
	if doc.Budget == nil {
		return gen, nil
	}

	version := &domain.BudgetVersion{
		ID:          uuid.New().String(),
		ProjectID:   project.ID,
		VersionType: domain.VersionType(doc.Budget.VersionType),
		VersionCode: doc.Budget.VersionCode,
		TotalCost:   decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	lines := make([]*domain.BudgetLine, 0, len(doc.Budget.Lines))
	for _, l := range doc.Budget.Lines {
		node, ok := byRef[l.NodeRef]
		if !ok {
			return nil, fmt.Errorf("budget line: node %q not found", l.NodeRef)
		}
		pct := decimal.Zero
		if l.IndirectPct != "" {
			pct = decimal.RequireFromString(l.IndirectPct)
		}
		lines = append(lines, &domain.BudgetLine{
			ID:              uuid.New().String(),
			BudgetVersionID: version.ID,
			WbsNodeID:       node.ID,
			Quantity:        decimal.RequireFromString(l.Quantity),
			UnitPrice:       decimal.RequireFromString(l.UnitPrice),
			IndirectPct:     pct,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	if version.Locked() {
		version.TotalCost = costing.SumLines(lines)
		version.ApprovedAt = &now
	}
	gen.Version = version
	gen.Lines = lines
	return gen, nil
}
