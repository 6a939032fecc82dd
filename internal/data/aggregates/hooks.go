package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/agencyledger-backend/internal/observability"
)

// Hooks captures aggregate-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncTimeout(name string)
	AddRepaired(level string, n int)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncTimeout(string)                              {}
func (noopHooks) AddRepaired(string, int)                        {}

type observabilityHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks creates aggregate hooks backed by observability metrics.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return &observabilityHooks{metrics: metrics}
}

func (h *observabilityHooks) ObserveOperation(name, status string, dur time.Duration) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.ObserveAggregateOperation(strings.TrimSpace(name), strings.TrimSpace(status), dur)
}

func (h *observabilityHooks) IncConflict(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncAggregateConflict(strings.TrimSpace(name))
}

func (h *observabilityHooks) IncTimeout(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncAggregateTimeout(strings.TrimSpace(name))
}

func (h *observabilityHooks) AddRepaired(level string, n int) {
	if h == nil || h.metrics == nil || n <= 0 {
		return
	}
	h.metrics.AddReconcileRepaired(strings.TrimSpace(level), n)
}
