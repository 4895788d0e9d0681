package domain

import "time"

const (
	EventCertificationSubmitted = "certification.submitted"
	EventCertificationApproved  = "certification.approved"
	EventCertificationRejected  = "certification.rejected"
	EventCertificationVoided    = "certification.voided"
)

// OutboxEvent is written in the same transaction as the state change it
// announces and delivered later by an independent dispatcher.
type OutboxEvent struct {
	ID         string
	EventType  string
	EntityType string
	EntityID   string
	Payload    []byte
	Status     OutboxStatus
	RetryCount int
	CreatedAt  time.Time
}
