package service

import (
	"context"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/repository"
)

type outboxService struct {
	outbox repository.OutboxRepo
}

// NewOutboxService exposes the outbox for inspection. Delivery belongs to an
// external dispatcher.
func NewOutboxService(outbox repository.OutboxRepo) OutboxService {
	return &outboxService{outbox: outbox}
}

func (s *outboxService) Pending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return s.outbox.ListPending(ctx, limit)
}

func (s *outboxService) ForEntity(ctx context.Context, entityID string) ([]*domain.OutboxEvent, error) {
	return s.outbox.ListByEntity(ctx, entityID)
}
