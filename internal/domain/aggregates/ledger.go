package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yungbote/agencyledger-backend/internal/domain/finance"
)

var LedgerAggregateContract = Contract{
	Name:             "Finance.LedgerAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	LockOrder:        FinanceLockOrder,
	Notes: "Owns ledger_entry writes and the recompute of obligation paid_amount/payment_status, " +
		"assignment total_paid and project total_paid in the same transaction.",
}

// LedgerAggregate records payments against obligations.
//
// Write method failures return *aggregates.Error with codes:
// CodeInvalidAmount, CodeValidation, CodeEntryNotFound, CodeObligationNotFound,
// CodeCrossTenantReference, CodeAggregationFailed, CodeAggregationTimeout.
type LedgerAggregate interface {
	Aggregate

	// Append records a new entry and recomputes the cascade.
	Append(ctx context.Context, in AppendEntryInput) (EntryMutationResult, error)

	// UpdateAmount replaces an entry amount and recomputes the cascade.
	UpdateAmount(ctx context.Context, in UpdateEntryInput) (EntryMutationResult, error)

	// Remove deletes an entry and recomputes the cascade.
	Remove(ctx context.Context, in RemoveEntryInput) (EntryMutationResult, error)

	// ListByObligation returns entries ordered by recorded_at, ties broken by seq.
	ListByObligation(ctx context.Context, organizationID, obligationID uuid.UUID) ([]*finance.LedgerEntry, error)
}

type AppendEntryInput struct {
	OrganizationID uuid.UUID
	ObligationID   uuid.UUID
	AuthorID       uuid.UUID
	Amount         decimal.Decimal
	Category       string
	RecordedAt     time.Time
	Metadata       map[string]any
}

type UpdateEntryInput struct {
	OrganizationID uuid.UUID
	EntryID        uuid.UUID
	Amount         decimal.Decimal
}

type RemoveEntryInput struct {
	OrganizationID uuid.UUID
	EntryID        uuid.UUID
}

type EntryMutationResult struct {
	Entry  *finance.LedgerEntry
	Totals CascadeTotals
}

// CascadeTotals reports the aggregate values before and after one recompute.
// Assignment and Project are nil for general obligations.
type CascadeTotals struct {
	OrganizationID uuid.UUID
	Obligation     *ObligationTotals
	Assignment     *LevelTotal
	Project        *LevelTotal
}

type ObligationTotals struct {
	ID             uuid.UUID
	PreviousPaid   decimal.Decimal
	CurrentPaid    decimal.Decimal
	PreviousStatus string
	CurrentStatus  string
}

func (o *ObligationTotals) Changed() bool {
	if o == nil {
		return false
	}
	return !o.PreviousPaid.Equal(o.CurrentPaid) || o.PreviousStatus != o.CurrentStatus
}

type LevelTotal struct {
	ID       uuid.UUID
	Previous decimal.Decimal
	Current  decimal.Decimal
}

func (l *LevelTotal) Changed() bool {
	return l != nil && !l.Previous.Equal(l.Current)
}

// Changed reports whether any stored aggregate moved.
func (c CascadeTotals) Changed() bool {
	return c.Obligation.Changed() || c.Assignment.Changed() || c.Project.Changed()
}
