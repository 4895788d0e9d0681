package domain

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// WbsType is the level of a node in the work breakdown structure.
type WbsType string

const (
	WbsPhase    WbsType = "PHASE"
	WbsActivity WbsType = "ACTIVITY"
	WbsTask     WbsType = "TASK"
)

// ValidWbsTypes is the canonical set of accepted WBS type strings.
var ValidWbsTypes = map[string]bool{
	"PHASE": true, "ACTIVITY": true, "TASK": true,
}

type VersionType string

const (
	VersionBaseline VersionType = "BASELINE"
	VersionApproved VersionType = "APPROVED"
	VersionWorking  VersionType = "WORKING"
	VersionProposal VersionType = "PROPOSAL"
)

// ValidVersionTypes is the canonical set of accepted budget version types.
var ValidVersionTypes = map[string]bool{
	"BASELINE": true, "APPROVED": true, "WORKING": true, "PROPOSAL": true,
}

// Locked reports whether versions of this type are frozen snapshots.
func (v VersionType) Locked() bool {
	return v == VersionBaseline || v == VersionApproved
}

type CertificationStatus string

const (
	CertDraft     CertificationStatus = "DRAFT"
	CertSubmitted CertificationStatus = "SUBMITTED"
	CertApproved  CertificationStatus = "APPROVED"
	CertRejected  CertificationStatus = "REJECTED"
	CertVoid      CertificationStatus = "VOID"
)

// Editable reports whether lines may still be added, edited or removed.
// A rejected certification returns to draft-equivalent editability.
func (s CertificationStatus) Editable() bool {
	return s == CertDraft || s == CertRejected
}

type VarianceStatus string

const (
	VarianceUnder   VarianceStatus = "UNDER"
	VarianceOnTrack VarianceStatus = "ON_TRACK"
	VarianceOver    VarianceStatus = "OVER"
)

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "PENDING"
	OutboxProcessing OutboxStatus = "PROCESSING"
	OutboxCompleted  OutboxStatus = "COMPLETED"
)
