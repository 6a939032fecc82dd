package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

type AssignmentAggregateDeps struct {
	Base  BaseDeps
	Repos FinanceRepos
}

type assignmentAggregate struct {
	deps AssignmentAggregateDeps
}

func NewAssignmentAggregate(deps AssignmentAggregateDeps) domainagg.AssignmentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &assignmentAggregate{deps: deps}
}

func (a *assignmentAggregate) Contract() domainagg.Contract {
	return domainagg.AssignmentAggregateContract
}

func (a *assignmentAggregate) Remove(ctx context.Context, organizationID, assignmentID uuid.UUID) (*types.Assignment, error) {
	const op = "Finance.Assignment.Remove"
	if organizationID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id", nil)
	}
	if a.deps.Repos.Projects == nil || a.deps.Repos.Assignments == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "assignment aggregate repos not configured", nil)
	}
	notFound := domainagg.NewError(domainagg.CodeAssignmentNotFound, op, fmt.Sprintf("assignment not found: %s", assignmentID), nil)
	if assignmentID == uuid.Nil {
		return nil, notFound
	}

	var out *types.Assignment
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		peek, err := a.deps.Repos.Assignments.GetByID(dbc, assignmentID)
		if err != nil {
			return err
		}
		if peek == nil {
			return notFound
		}
		if peek.OrganizationID != organizationID {
			return crossTenant(op, "assignment", assignmentID)
		}
		if _, err := a.deps.Repos.Projects.LockByID(dbc, peek.ProjectID); err != nil {
			return err
		}
		asg, err := a.deps.Repos.Assignments.LockByID(dbc, assignmentID)
		if err != nil {
			return err
		}
		if asg == nil {
			return notFound
		}
		if asg.Status == types.AssignmentStatusRemoved {
			out = asg
			return nil
		}
		now := time.Now().UTC()
		err = a.deps.Base.Guard.Apply(dbc, StatusTransition{
			Table: asg.TableName(),
			ID:    asg.ID,
			From:  []string{types.AssignmentStatusActive},
			To:    types.AssignmentStatusRemoved,
			Set:   map[string]any{"removed_at": now},
		})
		if err != nil {
			return err
		}
		asg.Status = types.AssignmentStatusRemoved
		asg.RemovedAt = &now
		out = asg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
