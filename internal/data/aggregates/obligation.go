package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

type ObligationAggregateDeps struct {
	Base  BaseDeps
	Repos FinanceRepos
}

type obligationAggregate struct {
	deps   ObligationAggregateDeps
	engine cascade
}

func NewObligationAggregate(deps ObligationAggregateDeps) domainagg.ObligationAggregate {
	deps.Base = deps.Base.withDefaults()
	return &obligationAggregate{deps: deps, engine: cascade{repos: deps.Repos}}
}

func (a *obligationAggregate) Contract() domainagg.Contract {
	return domainagg.ObligationAggregateContract
}

func (a *obligationAggregate) Create(ctx context.Context, in domainagg.CreateObligationInput) (*types.Obligation, error) {
	const op = "Finance.Obligation.Create"
	if in.OrganizationID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id", nil)
	}
	kind, ok := types.NormalizeObligationKind(in.Kind)
	if !ok {
		return nil, invalidShape(op, fmt.Sprintf("unknown obligation kind %q", strings.TrimSpace(in.Kind)))
	}
	hasProject := in.ProjectID != nil && *in.ProjectID != uuid.Nil
	hasAssignment := in.AssignmentID != nil && *in.AssignmentID != uuid.Nil
	switch kind {
	case types.ObligationKindTeam:
		if !hasProject || !hasAssignment || in.TotalAmount == nil {
			return nil, invalidShape(op, "team obligation requires project_id, assignment_id and total_amount")
		}
		if in.TotalAmount.Sign() <= 0 {
			return nil, invalidShape(op, "team obligation total_amount must be positive")
		}
		if err := types.ValidateAmount(*in.TotalAmount); err != nil {
			return nil, invalidAmount(op, err)
		}
	case types.ObligationKindGeneral:
		if hasProject || hasAssignment || in.TotalAmount != nil {
			return nil, invalidShape(op, "general obligation must not carry project_id, assignment_id or total_amount")
		}
	}
	if !a.deps.Repos.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "obligation aggregate repos not configured", nil)
	}

	row := &types.Obligation{
		OrganizationID: in.OrganizationID,
		Kind:           kind,
		Description:    strings.TrimSpace(in.Description),
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if kind == types.ObligationKindTeam {
			p, err := a.deps.Repos.Projects.LockByID(dbc, *in.ProjectID)
			if err != nil {
				return err
			}
			if p == nil {
				return domainagg.NewError(domainagg.CodeProjectNotFound, op, fmt.Sprintf("project not found: %s", *in.ProjectID), nil)
			}
			if p.OrganizationID != in.OrganizationID {
				return crossTenant(op, "project", p.ID)
			}
			asg, err := a.deps.Repos.Assignments.LockByID(dbc, *in.AssignmentID)
			if err != nil {
				return err
			}
			if asg == nil {
				return domainagg.NewError(domainagg.CodeAssignmentNotFound, op, fmt.Sprintf("assignment not found: %s", *in.AssignmentID), nil)
			}
			if asg.OrganizationID != in.OrganizationID {
				return crossTenant(op, "assignment", asg.ID)
			}
			if asg.ProjectID != p.ID {
				return invalidShape(op, "assignment does not belong to project")
			}
			if asg.Status != types.AssignmentStatusActive {
				return invalidShape(op, "assignment is not active")
			}
			pending := types.PaymentStatusPending
			row.ProjectID = &p.ID
			row.AssignmentID = &asg.ID
			row.MemberID = &asg.MemberID
			row.TotalAmount = decimal.NewNullDecimal(*in.TotalAmount)
			row.PaidAmount = decimal.NewNullDecimal(decimal.Zero)
			row.PaymentStatus = &pending
		}
		return a.deps.Repos.Obligations.Create(dbc, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (a *obligationAggregate) Get(ctx context.Context, organizationID, obligationID uuid.UUID) (*types.Obligation, error) {
	const op = "Finance.Obligation.Get"
	if obligationID == uuid.Nil {
		return nil, obligationNotFound(op, obligationID)
	}
	if !a.deps.Repos.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "obligation aggregate repos not configured", nil)
	}
	o, err := a.deps.Repos.Obligations.GetByID(dbctx.Context{Ctx: ctx}, obligationID)
	if err != nil {
		return nil, MapError(op, err)
	}
	if o == nil {
		return nil, obligationNotFound(op, obligationID)
	}
	if o.OrganizationID != organizationID {
		return nil, crossTenant(op, "obligation", obligationID)
	}
	return o, nil
}

func (a *obligationAggregate) Delete(ctx context.Context, organizationID, obligationID uuid.UUID) (domainagg.DeleteObligationResult, error) {
	const op = "Finance.Obligation.Delete"
	var out domainagg.DeleteObligationResult
	if organizationID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id", nil)
	}
	if obligationID == uuid.Nil {
		return out, obligationNotFound(op, obligationID)
	}
	if !a.deps.Repos.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "obligation aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ch, err := a.engine.lockChain(dbc, op, organizationID, obligationID)
		if err != nil {
			return err
		}
		removed, err := a.deps.Repos.Entries.DeleteByObligation(dbc, obligationID)
		if err != nil {
			return err
		}
		if err := a.deps.Repos.Obligations.Delete(dbc, obligationID); err != nil {
			return err
		}
		totals := domainagg.CascadeTotals{OrganizationID: organizationID}
		if totals.Assignment, err = a.engine.rollupAssignment(dbc, ch.assignment); err != nil {
			return err
		}
		if totals.Project, err = a.engine.rollupProject(dbc, ch.project); err != nil {
			return err
		}
		out = domainagg.DeleteObligationResult{
			ObligationID:   obligationID,
			RemovedEntries: removed,
			Totals:         totals,
		}
		return nil
	})
	if err != nil {
		return domainagg.DeleteObligationResult{}, err
	}
	return out, nil
}
