package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/agencyledger-backend/internal/authz"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
	"github.com/yungbote/agencyledger-backend/internal/realtime"
)

type ReconcileService interface {
	// ReconcileAll repairs every stored aggregate of the caller's organization.
	ReconcileAll(ctx context.Context) (domainagg.ReconcileReport, error)
}

type reconcileService struct {
	log        *logger.Logger
	access     access
	reconciler domainagg.Reconciler
	publisher  *EventPublisher
}

func NewReconcileService(log *logger.Logger, gate authz.Gate, reconciler domainagg.Reconciler, publisher *EventPublisher) ReconcileService {
	serviceLog := log.With("service", "ReconcileService")
	return &reconcileService{
		log:        serviceLog,
		access:     access{gate: gate, log: serviceLog},
		reconciler: reconciler,
		publisher:  publisher,
	}
}

func (s *reconcileService) ReconcileAll(ctx context.Context) (domainagg.ReconcileReport, error) {
	const op = "ReconcileService.ReconcileAll"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionReconcile)
	if err != nil {
		return domainagg.ReconcileReport{}, err
	}
	report, err := s.reconciler.ReconcileAll(ctx, p.OrganizationID)
	if err != nil {
		return report, err
	}
	s.log.Info("reconcile finished",
		"organization_id", p.OrganizationID.String(),
		"obligations_checked", report.ObligationsChecked,
		"repaired", report.Repaired(),
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	s.publisher.Publish(ctx, realtime.NewEvent(realtime.EventReconcileCompleted, p.OrganizationID, op, map[string]any{
		"repaired":             report.Repaired(),
		"obligations_repaired": report.ObligationsRepaired,
		"assignments_repaired": report.AssignmentsRepaired,
		"projects_repaired":    report.ProjectsRepaired,
	}))
	return report, nil
}
