package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/domain"
)

const outboxColumns = `id, event_type, entity_type, entity_id, payload, status, retry_count, created_at`

// SQLiteOutboxRepo implements OutboxRepo. Delivery is owned by an external
// dispatcher; this repository only writes and lists events.
type SQLiteOutboxRepo struct {
	db db.DBTX
}

// NewSQLiteOutboxRepo creates a new SQLiteOutboxRepo.
func NewSQLiteOutboxRepo(conn db.DBTX) *SQLiteOutboxRepo {
	return &SQLiteOutboxRepo{db: conn}
}

func (r *SQLiteOutboxRepo) Enqueue(ctx context.Context, e *domain.OutboxEvent) error {
	status := e.Status
	if status == "" {
		status = domain.OutboxPending
	}
	query := `INSERT INTO outbox_events (` + outboxColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.EventType, e.EntityType, e.EntityID, string(e.Payload),
		string(status), e.RetryCount, formatTime(e.CreatedAt))
	if err != nil {
		return persistErr("enqueueing outbox event", err)
	}
	return nil
}

func (r *SQLiteOutboxRepo) ListPending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + outboxColumns + ` FROM outbox_events WHERE status = 'PENDING'
		ORDER BY created_at, rowid LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, persistErr("listing pending outbox events", err)
	}
	defer rows.Close()
	return scanOutboxEvents(rows)
}

func (r *SQLiteOutboxRepo) ListByEntity(ctx context.Context, entityID string) ([]*domain.OutboxEvent, error) {
	query := `SELECT ` + outboxColumns + ` FROM outbox_events WHERE entity_id = ? ORDER BY created_at, rowid`
	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, persistErr("listing outbox events", err)
	}
	defer rows.Close()
	return scanOutboxEvents(rows)
}

func scanOutboxEvents(rows *sql.Rows) ([]*domain.OutboxEvent, error) {
	var events []*domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		var payload, statusStr, createdAtStr string
		err := rows.Scan(&e.ID, &e.EventType, &e.EntityType, &e.EntityID, &payload,
			&statusStr, &e.RetryCount, &createdAtStr)
		if err != nil {
			return nil, persistErr("scanning outbox event", err)
		}
		e.Payload = []byte(payload)
		e.Status = domain.OutboxStatus(statusStr)
		if e.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("outbox event %s: parsing created_at: %w", e.ID, err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterating outbox events", err)
	}
	return events, nil
}
