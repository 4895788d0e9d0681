package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/repository"
	"github.com/google/uuid"
)

const entityCertification = "certification"

// CertificationEvent is the JSON payload of certification outbox events.
type CertificationEvent struct {
	CertificationID string `json:"certification_id"`
	ProjectID       string `json:"project_id"`
	Number          int    `json:"number"`
	Period          string `json:"period"`
	Status          string `json:"status"`
	TotalAmount     string `json:"total_amount,omitempty"`
	IntegritySeal   string `json:"integrity_seal,omitempty"`
	Actor           string `json:"actor,omitempty"`
	Comment         string `json:"comment,omitempty"`
}

func enqueueCertificationEvent(ctx context.Context, outbox repository.OutboxRepo, eventType string, c *domain.Certification, actor, comment string) error {
	evt := CertificationEvent{
		CertificationID: c.ID,
		ProjectID:       c.ProjectID,
		Number:          c.Number,
		Period:          c.Period.String(),
		Status:          string(c.Status),
		IntegritySeal:   c.IntegritySeal,
		Actor:           actor,
		Comment:         comment,
	}
	if c.Status == domain.CertApproved || c.Status == domain.CertVoid {
		evt.TotalAmount = c.TotalAmount.String()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", eventType, err)
	}
	return outbox.Enqueue(ctx, &domain.OutboxEvent{
		ID:         uuid.New().String(),
		EventType:  eventType,
		EntityType: entityCertification,
		EntityID:   c.ID,
		Payload:    payload,
		Status:     domain.OutboxPending,
		CreatedAt:  time.Now().UTC(),
	})
}
