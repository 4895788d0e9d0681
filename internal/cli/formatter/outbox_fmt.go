package formatter

import (
	"strconv"

	"github.com/alexanderramin/obra/internal/domain"
)

// FormatOutbox renders queued integration events, oldest first.
func FormatOutbox(events []*domain.OutboxEvent) string {
	if len(events) == 0 {
		return RenderBox("Outbox", Dim("No pending events."))
	}
	headers := []string{"EVENT", "ENTITY", "STATUS", "RETRIES", "CREATED"}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.EventType,
			e.EntityType + " " + TruncID(e.EntityID),
			string(e.Status),
			strconv.Itoa(e.RetryCount),
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return RenderBox("Outbox", RenderTable(headers, rows))
}
