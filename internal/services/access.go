package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/agencyledger-backend/internal/authz"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/pkg/ctxutil"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

// access is the gate shim every service runs before touching state.
type access struct {
	gate authz.Gate
	log  *logger.Logger
}

func (a access) principal(ctx context.Context, op string) (authz.Principal, error) {
	p, ok := ctxutil.PrincipalFrom(ctx)
	if !ok {
		return authz.Principal{}, domainagg.NewError(domainagg.CodeUnauthorized, op, "missing principal", nil)
	}
	return p, nil
}

func (a access) check(ctx context.Context, op string, p authz.Principal, obligationID uuid.UUID, action authz.Action) error {
	if a.gate == nil {
		return domainagg.NewError(domainagg.CodeUnauthorized, op, "authorization gate not configured", nil)
	}
	ok, err := a.gate.Allow(ctx, p, p.OrganizationID, obligationID, action)
	if err != nil {
		a.log.Warn("authorization gate failed", "op", op, "action", string(action), "error", err)
		return domainagg.NewError(domainagg.CodeUnauthorized, op, "authorization unavailable", err)
	}
	if !ok {
		return domainagg.NewError(domainagg.CodeUnauthorized, op, "action not permitted: "+string(action), nil)
	}
	return nil
}

// authorize resolves the caller and checks action in one step.
func (a access) authorize(ctx context.Context, op string, obligationID uuid.UUID, action authz.Action) (authz.Principal, error) {
	p, err := a.principal(ctx, op)
	if err != nil {
		return p, err
	}
	if err := a.check(ctx, op, p, obligationID, action); err != nil {
		return authz.Principal{}, err
	}
	return p, nil
}
