package repository

import (
	"context"

	"github.com/alexanderramin/obra/internal/domain"
)

// ApprovedLine is a certification line read together with the period and
// number of the approved certification that carries it.
type ApprovedLine struct {
	Line   *domain.CertificationLine
	Period domain.Period
	Number int
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
}

type WbsNodeRepo interface {
	Create(ctx context.Context, n *domain.WbsNode) error
	GetByID(ctx context.Context, id string) (*domain.WbsNode, error)
	GetByCode(ctx context.Context, projectID, code string) (*domain.WbsNode, error)
	ListByProject(ctx context.Context, projectID string, includeInactive bool) ([]*domain.WbsNode, error)
	// ChildCodes lists sibling codes under parentID, or the project's root
	// codes when parentID is nil. Inactive nodes are included so codes are
	// never reused.
	ChildCodes(ctx context.Context, projectID string, parentID *string) ([]string, error)
	Update(ctx context.Context, n *domain.WbsNode) error
	// IsReferenced reports whether any child node, budget line or
	// certification line points at the node.
	IsReferenced(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type BudgetRepo interface {
	CreateVersion(ctx context.Context, v *domain.BudgetVersion) error
	GetVersion(ctx context.Context, id string) (*domain.BudgetVersion, error)
	GetVersionByCode(ctx context.Context, projectID, code string) (*domain.BudgetVersion, error)
	ListVersions(ctx context.Context, projectID string) ([]*domain.BudgetVersion, error)
	UpdateVersion(ctx context.Context, v *domain.BudgetVersion) error
	UpsertLine(ctx context.Context, l *domain.BudgetLine) error
	GetLine(ctx context.Context, versionID, wbsNodeID string) (*domain.BudgetLine, error)
	ListLines(ctx context.Context, versionID string) ([]*domain.BudgetLine, error)
	DeleteLine(ctx context.Context, versionID, wbsNodeID string) error
}

type CertificationRepo interface {
	Create(ctx context.Context, c *domain.Certification) error
	GetByID(ctx context.Context, id string) (*domain.Certification, error)
	GetByNumber(ctx context.Context, projectID string, number int) (*domain.Certification, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Certification, error)
	Update(ctx context.Context, c *domain.Certification) error

	UpsertLine(ctx context.Context, l *domain.CertificationLine) error
	GetLine(ctx context.Context, certID, wbsNodeID string) (*domain.CertificationLine, error)
	ListLines(ctx context.Context, certID string) ([]*domain.CertificationLine, error)
	DeleteLine(ctx context.Context, certID, wbsNodeID string) error

	// LatestApprovedLine returns the (project, node) line of the most recent
	// APPROVED certification by period year, month, then number. Drafts and
	// voided documents are never considered. Returns ErrNotFound when the
	// node has no approved history.
	LatestApprovedLine(ctx context.Context, projectID, wbsNodeID string) (*ApprovedLine, error)
	// LatestApprovedLines returns LatestApprovedLine for every node of the
	// project that has approved history, keyed by node id.
	LatestApprovedLines(ctx context.Context, projectID string) (map[string]*ApprovedLine, error)
	// HasApprovedSuccessor reports whether an APPROVED certification holds a
	// line whose baseline is certID.
	HasApprovedSuccessor(ctx context.Context, certID string) (bool, error)
}

// CertificationSequenceRepo allocates per-project certification numbers.
type CertificationSequenceRepo interface {
	NextNumber(ctx context.Context, projectID string) (int, error)
}

// ProgressHeadRepo tracks the approved-progress version of each
// (project, WBS node) pair.
type ProgressHeadRepo interface {
	Get(ctx context.Context, projectID, wbsNodeID string) (int, error)
	// CompareAndBump increments the version only if it still equals
	// expected. It reports false when another writer got there first.
	CompareAndBump(ctx context.Context, projectID, wbsNodeID string, expected int) (bool, error)
	Bump(ctx context.Context, projectID, wbsNodeID string) error
}

type OutboxRepo interface {
	Enqueue(ctx context.Context, e *domain.OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	ListByEntity(ctx context.Context, entityID string) ([]*domain.OutboxEvent, error)
}
