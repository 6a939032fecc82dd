package realtime

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTotalsChanged      EventType = "totals_changed"
	EventObligationDeleted  EventType = "obligation_deleted"
	EventReconcileCompleted EventType = "reconcile_completed"
)

// Event is published after a write has committed. Consumers must treat it as a hint and re-read.
type Event struct {
	Type           EventType      `json:"type"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Operation      string         `json:"operation,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

func NewEvent(t EventType, organizationID uuid.UUID, op string, data map[string]any) Event {
	return Event{
		Type:           t,
		OrganizationID: organizationID,
		Operation:      op,
		Data:           data,
		OccurredAt:     time.Now().UTC(),
	}
}
