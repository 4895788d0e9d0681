package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/obra/internal/costing"
	"github.com/alexanderramin/obra/internal/repository"
	"github.com/alexanderramin/obra/internal/variance"
	"github.com/shopspring/decimal"
)

type varianceService struct {
	budgets  repository.BudgetRepo
	nodes    repository.WbsNodeRepo
	certs    repository.CertificationRepo
	analyzer variance.Analyzer
}

// NewVarianceService compares budgets with certified progress. A
// non-positive threshold uses variance.DefaultThresholdPct.
func NewVarianceService(
	budgets repository.BudgetRepo,
	nodes repository.WbsNodeRepo,
	certs repository.CertificationRepo,
	thresholdPct decimal.Decimal,
) VarianceService {
	return &varianceService{
		budgets:  budgets,
		nodes:    nodes,
		certs:    certs,
		analyzer: variance.NewAnalyzer(thresholdPct),
	}
}

// Report compares each budget line's direct cost with the cumulative amount
// of the latest approved certification line for the same node.
func (s *varianceService) Report(ctx context.Context, projectID, budgetVersionID string) (*VarianceReport, error) {
	version, err := s.budgets.GetVersion(ctx, budgetVersionID)
	if err != nil {
		return nil, err
	}
	if version.ProjectID != projectID {
		return nil, fmt.Errorf("budget version %s belongs to another project: %w", version.VersionCode, repository.ErrNotFound)
	}
	lines, err := s.budgets.ListLines(ctx, budgetVersionID)
	if err != nil {
		return nil, err
	}
	nodes, err := nodesByID(ctx, s.nodes, projectID)
	if err != nil {
		return nil, err
	}
	approved, err := s.certs.LatestApprovedLines(ctx, projectID)
	if err != nil {
		return nil, err
	}

	report := &VarianceReport{Version: version, Lines: make([]VarianceLine, 0, len(lines))}
	plannedTotal, actualTotal := decimal.Zero, decimal.Zero
	for _, l := range lines {
		planned := costing.ForLine(l).Direct
		actual, progress := decimal.Zero, decimal.Zero
		if a, ok := approved[l.WbsNodeID]; ok {
			actual = a.Line.TotalAmount
			progress = a.Line.TotalProgressPct
		}
		plannedTotal = plannedTotal.Add(planned)
		actualTotal = actualTotal.Add(actual)
		report.Lines = append(report.Lines, VarianceLine{
			Node:        nodes[l.WbsNodeID],
			ProgressPct: progress,
			Result:      s.analyzer.Analyze(planned, actual),
		})
	}
	report.Total = s.analyzer.Analyze(plannedTotal, actualTotal)
	return report, nil
}
