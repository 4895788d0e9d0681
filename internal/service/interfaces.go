package service

import (
	"context"

	"github.com/alexanderramin/obra/internal/costing"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/importer"
	"github.com/alexanderramin/obra/internal/variance"
	"github.com/shopspring/decimal"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// Resolve finds a project by short ID (case-insensitive) or by id.
	Resolve(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
}

// NodeInput describes a WBS node to create. Code is generated from the
// parent and its siblings when left empty.
type NodeInput struct {
	ProjectID string
	ParentID  *string
	Code      string
	Name      string
	Category  string
	Type      domain.WbsType
	Unit      string
	Quantity  decimal.Decimal
	SortOrder int
}

// TreeEntry is one node of a depth-first WBS listing. Depth starts at 0.
type TreeEntry struct {
	Node  *domain.WbsNode
	Depth int
}

type WbsService interface {
	CreateNode(ctx context.Context, in NodeInput) (*domain.WbsNode, error)
	GetByID(ctx context.Context, id string) (*domain.WbsNode, error)
	GetByCode(ctx context.Context, projectID, code string) (*domain.WbsNode, error)
	Tree(ctx context.Context, projectID string, includeInactive bool) ([]TreeEntry, error)
	// Deactivate soft-deletes a node and its descendants.
	Deactivate(ctx context.Context, id string) error
	// Delete hard-deletes an unreferenced node; ErrNodeReferenced otherwise.
	Delete(ctx context.Context, id string) error
}

// BudgetLineView is a budget line with its node and derived costs.
type BudgetLineView struct {
	Line   *domain.BudgetLine
	Node   *domain.WbsNode
	Totals costing.Totals
}

// BudgetSummary prices every line of a version.
type BudgetSummary struct {
	Version  *domain.BudgetVersion
	Lines    []BudgetLineView
	Direct   decimal.Decimal
	Indirect decimal.Decimal
	Total    decimal.Decimal
}

type BudgetService interface {
	// CreateVersion opens a WORKING or PROPOSAL version. Locked versions
	// come from Approve or from an import.
	CreateVersion(ctx context.Context, projectID, code string, versionType domain.VersionType) (*domain.BudgetVersion, error)
	GetVersion(ctx context.Context, id string) (*domain.BudgetVersion, error)
	// ResolveVersion finds a version of the project by code or by id.
	ResolveVersion(ctx context.Context, projectID, ref string) (*domain.BudgetVersion, error)
	ListVersions(ctx context.Context, projectID string) ([]*domain.BudgetVersion, error)
	SetLine(ctx context.Context, versionID, wbsNodeID string, qty, unitPrice, indirectPct decimal.Decimal) (*domain.BudgetLine, error)
	RemoveLine(ctx context.Context, versionID, wbsNodeID string) error
	// Approve locks the version as BASELINE or APPROVED and stores its total.
	Approve(ctx context.Context, versionID string, as domain.VersionType) (*domain.BudgetVersion, error)
	Summary(ctx context.Context, versionID string) (*BudgetSummary, error)
}

type CertificationService interface {
	Create(ctx context.Context, projectID, budgetVersionID string, period domain.Period, createdBy string) (*domain.Certification, error)
	AddOrUpdateLine(ctx context.Context, certID, wbsNodeID string, periodPct decimal.Decimal) (*domain.CertificationLine, error)
	RemoveLine(ctx context.Context, certID, wbsNodeID string) error
	// Recompute refreshes every line of an editable certification against
	// the current approved baseline, keeping each period percentage.
	Recompute(ctx context.Context, certID string) ([]*domain.CertificationLine, error)
	Submit(ctx context.Context, certID string) (*domain.Certification, error)
	Approve(ctx context.Context, certID, approvedBy string) (*domain.Certification, error)
	Reject(ctx context.Context, certID, comment string) (*domain.Certification, error)
	Void(ctx context.Context, certID, actor string) (*domain.Certification, error)
	VerifySeal(ctx context.Context, certID string) (bool, error)
	Get(ctx context.Context, certID string) (*domain.Certification, error)
	GetByNumber(ctx context.Context, projectID string, number int) (*domain.Certification, error)
	List(ctx context.Context, projectID string) ([]*domain.Certification, error)
	Lines(ctx context.Context, certID string) ([]*domain.CertificationLine, error)
}

// VarianceLine compares one budget line against certified progress.
// Planned is the line's budget at completion, so unfinished work reads UNDER
// until ProgressPct reaches 100.
type VarianceLine struct {
	Node        *domain.WbsNode
	ProgressPct decimal.Decimal
	Result      variance.Result
}

// VarianceReport is the planned-versus-actual comparison of a project
// against one budget version.
type VarianceReport struct {
	Version *domain.BudgetVersion
	Lines   []VarianceLine
	Total   variance.Result
}

type VarianceService interface {
	Report(ctx context.Context, projectID, budgetVersionID string) (*VarianceReport, error)
}

type ImportResult struct {
	Project   *domain.Project
	Version   *domain.BudgetVersion
	NodeCount int
	LineCount int
}

type ImportService interface {
	ImportFile(ctx context.Context, path string) (*ImportResult, error)
	Import(ctx context.Context, doc *importer.ImportDocument) (*ImportResult, error)
}

type OutboxService interface {
	Pending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	ForEntity(ctx context.Context, entityID string) ([]*domain.OutboxEvent, error)
}
