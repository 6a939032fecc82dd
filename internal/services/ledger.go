package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/agencyledger-backend/internal/authz"
	"github.com/yungbote/agencyledger-backend/internal/data/repos"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

type AppendEntryRequest struct {
	ObligationID uuid.UUID
	Amount       decimal.Decimal
	Category     string
	RecordedAt   *time.Time
	Metadata     map[string]any
}

type LedgerService interface {
	Append(ctx context.Context, req AppendEntryRequest) (*EntryMutationView, error)
	UpdateAmount(ctx context.Context, entryID uuid.UUID, amount decimal.Decimal) (*EntryMutationView, error)
	Remove(ctx context.Context, entryID uuid.UUID) (*EntryMutationView, error)
	ListByObligation(ctx context.Context, obligationID uuid.UUID) ([]EntryView, error)
}

type ledgerService struct {
	log       *logger.Logger
	access    access
	ledger    domainagg.LedgerAggregate
	entries   repos.LedgerEntryRepo
	orgs      repos.OrganizationRepo
	publisher *EventPublisher
}

func NewLedgerService(
	log *logger.Logger,
	gate authz.Gate,
	ledger domainagg.LedgerAggregate,
	entries repos.LedgerEntryRepo,
	orgs repos.OrganizationRepo,
	publisher *EventPublisher,
) LedgerService {
	serviceLog := log.With("service", "LedgerService")
	return &ledgerService{
		log:       serviceLog,
		access:    access{gate: gate, log: serviceLog},
		ledger:    ledger,
		entries:   entries,
		orgs:      orgs,
		publisher: publisher,
	}
}

func (s *ledgerService) Append(ctx context.Context, req AppendEntryRequest) (*EntryMutationView, error) {
	const op = "LedgerService.Append"
	p, err := s.access.authorize(ctx, op, req.ObligationID, authz.ActionLedgerAppend)
	if err != nil {
		return nil, err
	}
	in := domainagg.AppendEntryInput{
		OrganizationID: p.OrganizationID,
		ObligationID:   req.ObligationID,
		AuthorID:       p.UserID,
		Amount:         req.Amount,
		Category:       req.Category,
		Metadata:       req.Metadata,
	}
	if req.RecordedAt != nil {
		in.RecordedAt = *req.RecordedAt
	}
	res, err := s.ledger.Append(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.TotalsChanged(ctx, op, res.Totals)
	return s.mutationView(ctx, p.OrganizationID, res), nil
}

func (s *ledgerService) UpdateAmount(ctx context.Context, entryID uuid.UUID, amount decimal.Decimal) (*EntryMutationView, error) {
	const op = "LedgerService.UpdateAmount"
	p, err := s.authorizeEntry(ctx, op, entryID, authz.ActionLedgerUpdate)
	if err != nil {
		return nil, err
	}
	res, err := s.ledger.UpdateAmount(ctx, domainagg.UpdateEntryInput{
		OrganizationID: p.OrganizationID,
		EntryID:        entryID,
		Amount:         amount,
	})
	if err != nil {
		return nil, err
	}
	s.publisher.TotalsChanged(ctx, op, res.Totals)
	return s.mutationView(ctx, p.OrganizationID, res), nil
}

func (s *ledgerService) Remove(ctx context.Context, entryID uuid.UUID) (*EntryMutationView, error) {
	const op = "LedgerService.Remove"
	p, err := s.authorizeEntry(ctx, op, entryID, authz.ActionLedgerRemove)
	if err != nil {
		return nil, err
	}
	res, err := s.ledger.Remove(ctx, domainagg.RemoveEntryInput{
		OrganizationID: p.OrganizationID,
		EntryID:        entryID,
	})
	if err != nil {
		return nil, err
	}
	s.publisher.TotalsChanged(ctx, op, res.Totals)
	return s.mutationView(ctx, p.OrganizationID, res), nil
}

func (s *ledgerService) ListByObligation(ctx context.Context, obligationID uuid.UUID) ([]EntryView, error) {
	const op = "LedgerService.ListByObligation"
	p, err := s.access.authorize(ctx, op, obligationID, authz.ActionLedgerRead)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledger.ListByObligation(ctx, p.OrganizationID, obligationID)
	if err != nil {
		return nil, err
	}
	currency := currencyOf(ctx, s.orgs, p.OrganizationID)
	out := make([]EntryView, 0, len(rows))
	for _, e := range rows {
		out = append(out, entryView(e, currency))
	}
	return out, nil
}

// authorizeEntry scopes the gate decision to the entry's obligation. Unknown or foreign
// entries are checked against uuid.Nil and rejected later by the aggregate.
func (s *ledgerService) authorizeEntry(ctx context.Context, op string, entryID uuid.UUID, action authz.Action) (authz.Principal, error) {
	p, err := s.access.principal(ctx, op)
	if err != nil {
		return p, err
	}
	obligationID := uuid.Nil
	if entryID != uuid.Nil && s.entries != nil {
		e, err := s.entries.GetByID(dbctx.Context{Ctx: ctx}, entryID)
		if err != nil {
			return authz.Principal{}, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		if e != nil && e.OrganizationID == p.OrganizationID {
			obligationID = e.ObligationID
		}
	}
	if err := s.access.check(ctx, op, p, obligationID, action); err != nil {
		return authz.Principal{}, err
	}
	return p, nil
}

func (s *ledgerService) mutationView(ctx context.Context, organizationID uuid.UUID, res domainagg.EntryMutationResult) *EntryMutationView {
	currency := currencyOf(ctx, s.orgs, organizationID)
	out := &EntryMutationView{Totals: totalsView(res.Totals, currency)}
	if res.Entry != nil {
		ev := entryView(res.Entry, currency)
		out.Entry = &ev
	}
	return out
}
