package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/obra/internal/domain"
)

func resolveProject(ctx context.Context, app *App, ref string) (*domain.Project, error) {
	p, err := app.Projects.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", ref, err)
	}
	return p, nil
}

func resolveNode(ctx context.Context, app *App, projectID, code string) (*domain.WbsNode, error) {
	n, err := app.Wbs.GetByCode(ctx, projectID, code)
	if err != nil {
		return nil, fmt.Errorf("WBS node %q: %w", code, err)
	}
	return n, nil
}

func resolveVersion(ctx context.Context, app *App, projectID, ref string) (*domain.BudgetVersion, error) {
	v, err := app.Budgets.ResolveVersion(ctx, projectID, ref)
	if err != nil {
		return nil, fmt.Errorf("budget version %q: %w", ref, err)
	}
	return v, nil
}

// resolveCert looks up a certification by project and number.
func resolveCert(ctx context.Context, app *App, projectRef, number string) (*domain.Project, *domain.Certification, error) {
	p, err := resolveProject(ctx, app, projectRef)
	if err != nil {
		return nil, nil, err
	}
	n, err := parseCertNumber(number)
	if err != nil {
		return nil, nil, err
	}
	c, err := app.Certifications.GetByNumber(ctx, p.ID, n)
	if err != nil {
		return nil, nil, fmt.Errorf("certification #%d: %w", n, err)
	}
	return p, c, nil
}

// nodeIndex maps node id to node for every node of the project, inactive
// ones included.
func nodeIndex(ctx context.Context, app *App, projectID string) (map[string]*domain.WbsNode, error) {
	entries, err := app.Wbs.Tree(ctx, projectID, true)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]*domain.WbsNode, len(entries))
	for _, e := range entries {
		idx[e.Node.ID] = e.Node
	}
	return idx, nil
}

// latestLockedVersion picks the most recently approved BASELINE or APPROVED
// version of a project.
func latestLockedVersion(versions []*domain.BudgetVersion) *domain.BudgetVersion {
	var best *domain.BudgetVersion
	for _, v := range versions {
		if !v.Locked() || v.ApprovedAt == nil {
			continue
		}
		if best == nil || !v.ApprovedAt.Before(*best.ApprovedAt) {
			best = v
		}
	}
	return best
}
