package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/agencyledger-backend/internal/data/repos"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
	"github.com/yungbote/agencyledger-backend/internal/pkg/pointers"
)

// Money pairs the exact amount with a display string in the organization currency.
type Money struct {
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

func newMoney(v decimal.Decimal, currency string) Money {
	return Money{Amount: v.StringFixed(types.AmountScale), Display: types.FormatAmount(v, currency)}
}

func newNullMoney(v decimal.NullDecimal, currency string) *Money {
	if !v.Valid {
		return nil
	}
	return pointers.Ptr(newMoney(v.Decimal, currency))
}

type ProjectView struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	ClientID       *uuid.UUID `json:"client_id,omitempty"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	Currency       string     `json:"currency"`
	Budget         *Money     `json:"budget,omitempty"`
	TotalPaid      Money      `json:"total_paid"`
	// Remaining is budget minus total paid and may be negative.
	Remaining   *Money           `json:"remaining,omitempty"`
	Assignments []AssignmentView `json:"assignments,omitempty"`
	Obligations []ObligationView `json:"obligations,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type AssignmentView struct {
	ID              uuid.UUID  `json:"id"`
	ProjectID       uuid.UUID  `json:"project_id"`
	MemberID        uuid.UUID  `json:"member_id"`
	Status          string     `json:"status"`
	AllocatedBudget *Money     `json:"allocated_budget,omitempty"`
	TotalPaid       Money      `json:"total_paid"`
	RemovedAt       *time.Time `json:"removed_at,omitempty"`
}

type ObligationView struct {
	ID            uuid.UUID  `json:"id"`
	Kind          string     `json:"kind"`
	ProjectID     *uuid.UUID `json:"project_id,omitempty"`
	AssignmentID  *uuid.UUID `json:"assignment_id,omitempty"`
	MemberID      *uuid.UUID `json:"member_id,omitempty"`
	Description   string     `json:"description,omitempty"`
	TotalAmount   *Money     `json:"total_amount,omitempty"`
	PaidAmount    *Money     `json:"paid_amount,omitempty"`
	Outstanding   *Money     `json:"outstanding,omitempty"`
	PaymentStatus string     `json:"payment_status,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type EntryView struct {
	ID           uuid.UUID       `json:"id"`
	ObligationID uuid.UUID       `json:"obligation_id"`
	Seq          int64           `json:"seq"`
	Amount       Money           `json:"amount"`
	Category     string          `json:"category"`
	AuthorID     uuid.UUID       `json:"author_id"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

type TotalsView struct {
	ObligationID        *uuid.UUID `json:"obligation_id,omitempty"`
	ObligationPaid      *Money     `json:"obligation_paid,omitempty"`
	ObligationStatus    string     `json:"obligation_status,omitempty"`
	AssignmentID        *uuid.UUID `json:"assignment_id,omitempty"`
	AssignmentTotalPaid *Money     `json:"assignment_total_paid,omitempty"`
	ProjectID           *uuid.UUID `json:"project_id,omitempty"`
	ProjectTotalPaid    *Money     `json:"project_total_paid,omitempty"`
}

type EntryMutationView struct {
	Entry  *EntryView `json:"entry,omitempty"`
	Totals TotalsView `json:"totals"`
}

type DeleteObligationView struct {
	ObligationID   uuid.UUID  `json:"obligation_id"`
	RemovedEntries int64      `json:"removed_entries"`
	Totals         TotalsView `json:"totals"`
}

func projectView(p *types.Project, currency string) ProjectView {
	v := ProjectView{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		ClientID:       p.ClientID,
		Name:           p.Name,
		Status:         p.Status,
		Currency:       currency,
		Budget:         newNullMoney(p.Budget, currency),
		TotalPaid:      newMoney(p.TotalPaid, currency),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.Budget.Valid {
		v.Remaining = pointers.Ptr(newMoney(p.Budget.Decimal.Sub(p.TotalPaid), currency))
	}
	return v
}

func assignmentView(a *types.Assignment, currency string) AssignmentView {
	return AssignmentView{
		ID:              a.ID,
		ProjectID:       a.ProjectID,
		MemberID:        a.MemberID,
		Status:          a.Status,
		AllocatedBudget: newNullMoney(a.AllocatedBudget, currency),
		TotalPaid:       newMoney(a.TotalPaid, currency),
		RemovedAt:       a.RemovedAt,
	}
}

func obligationView(o *types.Obligation, currency string) ObligationView {
	v := ObligationView{
		ID:           o.ID,
		Kind:         o.Kind,
		ProjectID:    o.ProjectID,
		AssignmentID: o.AssignmentID,
		MemberID:     o.MemberID,
		Description:  o.Description,
		TotalAmount:  newNullMoney(o.TotalAmount, currency),
		CreatedAt:    o.CreatedAt,
	}
	if o.IsTeam() {
		v.PaidAmount = pointers.Ptr(newMoney(o.Paid(), currency))
		v.PaymentStatus = o.Status()
		if o.TotalAmount.Valid {
			out := decimal.Max(o.TotalAmount.Decimal.Sub(o.Paid()), decimal.Zero)
			v.Outstanding = pointers.Ptr(newMoney(out, currency))
		}
	}
	return v
}

func entryView(e *types.LedgerEntry, currency string) EntryView {
	v := EntryView{
		ID:           e.ID,
		ObligationID: e.ObligationID,
		Seq:          e.Seq,
		Amount:       newMoney(e.Amount, currency),
		Category:     e.Category,
		AuthorID:     e.AuthorID,
		RecordedAt:   e.RecordedAt,
	}
	if len(e.Metadata) > 0 {
		v.Metadata = json.RawMessage(e.Metadata)
	}
	return v
}

func totalsView(t domainagg.CascadeTotals, currency string) TotalsView {
	var v TotalsView
	if o := t.Obligation; o != nil {
		v.ObligationID = pointers.Ptr(o.ID)
		v.ObligationPaid = pointers.Ptr(newMoney(o.CurrentPaid, currency))
		v.ObligationStatus = o.CurrentStatus
	}
	if a := t.Assignment; a != nil {
		v.AssignmentID = pointers.Ptr(a.ID)
		v.AssignmentTotalPaid = pointers.Ptr(newMoney(a.Current, currency))
	}
	if p := t.Project; p != nil {
		v.ProjectID = pointers.Ptr(p.ID)
		v.ProjectTotalPaid = pointers.Ptr(newMoney(p.Current, currency))
	}
	return v
}

// currencyOf returns the organization currency, empty when the row is missing so amounts
// still render as plain fixed-point strings.
func currencyOf(ctx context.Context, orgs repos.OrganizationRepo, organizationID uuid.UUID) string {
	if orgs == nil {
		return ""
	}
	org, err := orgs.GetByID(dbctx.Context{Ctx: ctx}, organizationID)
	if err != nil || org == nil {
		return ""
	}
	return org.Currency
}
