package aggregates

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/agencyledger-backend/internal/data/repos"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

// FinanceRepos are the table repos the aggregation engine reads and writes.
type FinanceRepos struct {
	Projects    repos.ProjectRepo
	Assignments repos.AssignmentRepo
	Obligations repos.ObligationRepo
	Entries     repos.LedgerEntryRepo
}

func (r FinanceRepos) configured() bool {
	return r.Projects != nil && r.Assignments != nil && r.Obligations != nil && r.Entries != nil
}

// lockedChain is the set of rows one obligation write holds, in lock order.
// project and assignment are nil for general obligations.
type lockedChain struct {
	project    *types.Project
	assignment *types.Assignment
	obligation *types.Obligation
}

// cascade is the aggregation engine: full recompute from ledger rows, bottom-up, inside the
// caller's transaction.
type cascade struct {
	repos FinanceRepos
}

// lockChain resolves the obligation's parents with an unlocked read and then locks
// Project -> Assignment -> Obligation. The obligation is re-read under its lock so a
// concurrent delete surfaces as not found.
func (c cascade) lockChain(dbc dbctx.Context, op string, organizationID, obligationID uuid.UUID) (*lockedChain, error) {
	peek, err := c.repos.Obligations.GetByID(dbc, obligationID)
	if err != nil {
		return nil, err
	}
	if peek == nil {
		return nil, obligationNotFound(op, obligationID)
	}
	if peek.OrganizationID != organizationID {
		return nil, crossTenant(op, "obligation", obligationID)
	}

	out := &lockedChain{}
	if peek.IsTeam() {
		if peek.ProjectID == nil || peek.AssignmentID == nil {
			return nil, InvariantError(fmt.Sprintf("team obligation %s has no project or assignment", obligationID))
		}
		p, err := c.repos.Projects.LockByID(dbc, *peek.ProjectID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, InvariantError(fmt.Sprintf("project %s of obligation %s is missing", *peek.ProjectID, obligationID))
		}
		if p.OrganizationID != organizationID {
			return nil, crossTenant(op, "project", p.ID)
		}
		a, err := c.repos.Assignments.LockByID(dbc, *peek.AssignmentID)
		if err != nil {
			return nil, err
		}
		if a == nil || a.ProjectID != p.ID {
			return nil, InvariantError(fmt.Sprintf("assignment %s of obligation %s is missing or detached", *peek.AssignmentID, obligationID))
		}
		out.project = p
		out.assignment = a
	}

	o, err := c.repos.Obligations.LockByID(dbc, obligationID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, obligationNotFound(op, obligationID)
	}
	out.obligation = o
	return out, nil
}

// recompute derives paid/status of the locked obligation from its entries and rolls the
// result up to the assignment and the project. Columns are written only when the derived
// value differs from the stored one.
func (c cascade) recompute(dbc dbctx.Context, ch *lockedChain) (domainagg.CascadeTotals, error) {
	o := ch.obligation
	totals := domainagg.CascadeTotals{OrganizationID: o.OrganizationID}
	if !o.IsTeam() {
		return totals, nil
	}
	if !o.TotalAmount.Valid {
		return totals, InvariantError(fmt.Sprintf("team obligation %s has no total_amount", o.ID))
	}

	amounts, err := c.repos.Entries.ListAmountsByObligation(dbc, o.ID)
	if err != nil {
		return totals, err
	}
	paid := types.SumAmounts(amounts)
	status := types.DerivePaymentStatus(paid, o.TotalAmount.Decimal)

	ot := &domainagg.ObligationTotals{
		ID:             o.ID,
		PreviousPaid:   o.Paid(),
		CurrentPaid:    paid,
		PreviousStatus: o.Status(),
		CurrentStatus:  status,
	}
	if ot.Changed() || !o.PaidAmount.Valid || o.PaymentStatus == nil {
		if err := c.repos.Obligations.SetDerived(dbc, o.ID, paid, status); err != nil {
			return totals, err
		}
		o.PaidAmount = decimal.NewNullDecimal(paid)
		o.PaymentStatus = &status
	}
	totals.Obligation = ot

	if totals.Assignment, err = c.rollupAssignment(dbc, ch.assignment); err != nil {
		return totals, err
	}
	if totals.Project, err = c.rollupProject(dbc, ch.project); err != nil {
		return totals, err
	}
	return totals, nil
}

// rollupAssignment requires the assignment (and its project) to be locked by the caller.
func (c cascade) rollupAssignment(dbc dbctx.Context, a *types.Assignment) (*domainagg.LevelTotal, error) {
	if a == nil {
		return nil, nil
	}
	paid, err := c.repos.Obligations.ListPaidByAssignment(dbc, a.ID)
	if err != nil {
		return nil, err
	}
	lt := &domainagg.LevelTotal{ID: a.ID, Previous: a.TotalPaid, Current: types.SumNullAmounts(paid)}
	if lt.Changed() {
		if err := c.repos.Assignments.SetDerivedTotals(dbc, a.ID, lt.Current); err != nil {
			return nil, err
		}
		a.TotalPaid = lt.Current
	}
	return lt, nil
}

// rollupProject requires the project to be locked by the caller.
func (c cascade) rollupProject(dbc dbctx.Context, p *types.Project) (*domainagg.LevelTotal, error) {
	if p == nil {
		return nil, nil
	}
	paid, err := c.repos.Obligations.ListPaidByProject(dbc, p.ID)
	if err != nil {
		return nil, err
	}
	lt := &domainagg.LevelTotal{ID: p.ID, Previous: p.TotalPaid, Current: types.SumNullAmounts(paid)}
	if lt.Changed() {
		if err := c.repos.Projects.SetDerivedTotals(dbc, p.ID, lt.Current); err != nil {
			return nil, err
		}
		p.TotalPaid = lt.Current
	}
	return lt, nil
}
