package services

import (
	"context"
	"time"

	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
	"github.com/yungbote/agencyledger-backend/internal/realtime"
	"github.com/yungbote/agencyledger-backend/internal/realtime/bus"
)

const publishTimeout = 2 * time.Second

// EventPublisher emits post-commit notifications. Failures are logged and never surface to
// the caller since the write has already committed.
type EventPublisher struct {
	bus bus.Bus
	log *logger.Logger
}

func NewEventPublisher(log *logger.Logger, b bus.Bus) *EventPublisher {
	return &EventPublisher{bus: b, log: log.With("service", "EventPublisher")}
}

func (p *EventPublisher) Publish(ctx context.Context, ev realtime.Event) {
	if p == nil || p.bus == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.bus.Publish(pubCtx, ev); err != nil {
		p.log.Warn("event publish failed", "type", string(ev.Type), "op", ev.Operation, "error", err)
	}
}

// TotalsChanged publishes only when a stored aggregate actually moved.
func (p *EventPublisher) TotalsChanged(ctx context.Context, op string, t domainagg.CascadeTotals) {
	if !t.Changed() {
		return
	}
	p.Publish(ctx, realtime.NewEvent(realtime.EventTotalsChanged, t.OrganizationID, op, totalsData(t)))
}

func totalsData(t domainagg.CascadeTotals) map[string]any {
	data := map[string]any{}
	if o := t.Obligation; o != nil {
		data["obligation_id"] = o.ID.String()
		data["obligation_paid"] = o.CurrentPaid.StringFixed(2)
		data["obligation_status"] = o.CurrentStatus
	}
	if a := t.Assignment; a != nil {
		data["assignment_id"] = a.ID.String()
		data["assignment_total_paid"] = a.Current.StringFixed(2)
	}
	if pr := t.Project; pr != nil {
		data["project_id"] = pr.ID.String()
		data["project_total_paid"] = pr.Current.StringFixed(2)
	}
	return data
}
