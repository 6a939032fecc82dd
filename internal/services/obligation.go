package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/agencyledger-backend/internal/authz"
	"github.com/yungbote/agencyledger-backend/internal/data/repos"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
	"github.com/yungbote/agencyledger-backend/internal/realtime"
)

type CreateObligationRequest struct {
	Kind         string
	ProjectID    *uuid.UUID
	AssignmentID *uuid.UUID
	TotalAmount  *decimal.Decimal
	Description  string
}

type ObligationService interface {
	Create(ctx context.Context, req CreateObligationRequest) (*ObligationView, error)
	Get(ctx context.Context, obligationID uuid.UUID) (*ObligationView, error)
	Delete(ctx context.Context, obligationID uuid.UUID) (*DeleteObligationView, error)
}

type obligationService struct {
	log         *logger.Logger
	access      access
	obligations domainagg.ObligationAggregate
	orgs        repos.OrganizationRepo
	publisher   *EventPublisher
}

func NewObligationService(
	log *logger.Logger,
	gate authz.Gate,
	obligations domainagg.ObligationAggregate,
	orgs repos.OrganizationRepo,
	publisher *EventPublisher,
) ObligationService {
	serviceLog := log.With("service", "ObligationService")
	return &obligationService{
		log:         serviceLog,
		access:      access{gate: gate, log: serviceLog},
		obligations: obligations,
		orgs:        orgs,
		publisher:   publisher,
	}
}

func (s *obligationService) Create(ctx context.Context, req CreateObligationRequest) (*ObligationView, error) {
	const op = "ObligationService.Create"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionObligationCreate)
	if err != nil {
		return nil, err
	}
	o, err := s.obligations.Create(ctx, domainagg.CreateObligationInput{
		OrganizationID: p.OrganizationID,
		Kind:           req.Kind,
		ProjectID:      req.ProjectID,
		AssignmentID:   req.AssignmentID,
		TotalAmount:    req.TotalAmount,
		Description:    strings.TrimSpace(req.Description),
	})
	if err != nil {
		return nil, err
	}
	v := obligationView(o, currencyOf(ctx, s.orgs, p.OrganizationID))
	return &v, nil
}

func (s *obligationService) Get(ctx context.Context, obligationID uuid.UUID) (*ObligationView, error) {
	const op = "ObligationService.Get"
	p, err := s.access.authorize(ctx, op, obligationID, authz.ActionObligationRead)
	if err != nil {
		return nil, err
	}
	o, err := s.obligations.Get(ctx, p.OrganizationID, obligationID)
	if err != nil {
		return nil, err
	}
	v := obligationView(o, currencyOf(ctx, s.orgs, p.OrganizationID))
	return &v, nil
}

func (s *obligationService) Delete(ctx context.Context, obligationID uuid.UUID) (*DeleteObligationView, error) {
	const op = "ObligationService.Delete"
	p, err := s.access.authorize(ctx, op, obligationID, authz.ActionObligationDelete)
	if err != nil {
		return nil, err
	}
	res, err := s.obligations.Delete(ctx, p.OrganizationID, obligationID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, realtime.NewEvent(realtime.EventObligationDeleted, p.OrganizationID, op, map[string]any{
		"obligation_id":   res.ObligationID.String(),
		"removed_entries": res.RemovedEntries,
	}))
	s.publisher.TotalsChanged(ctx, op, res.Totals)
	return &DeleteObligationView{
		ObligationID:   res.ObligationID,
		RemovedEntries: res.RemovedEntries,
		Totals:         totalsView(res.Totals, currencyOf(ctx, s.orgs, p.OrganizationID)),
	}, nil
}
