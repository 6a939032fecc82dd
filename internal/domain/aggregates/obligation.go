package aggregates

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yungbote/agencyledger-backend/internal/domain/finance"
)

var ObligationAggregateContract = Contract{
	Name:             "Finance.ObligationAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	LockOrder:        FinanceLockOrder,
	Notes: "Owns obligation shape validation at creation and cascading deletes of ledger entries " +
		"with the assignment/project recompute.",
}

// ObligationAggregate owns obligation lifecycle.
//
// Write method failures return *aggregates.Error with codes:
// CodeInvalidObligationShape, CodeInvalidAmount, CodeObligationNotFound, CodeProjectNotFound,
// CodeAssignmentNotFound, CodeCrossTenantReference, CodeAggregationFailed, CodeAggregationTimeout.
type ObligationAggregate interface {
	Aggregate

	Create(ctx context.Context, in CreateObligationInput) (*finance.Obligation, error)
	Get(ctx context.Context, organizationID, obligationID uuid.UUID) (*finance.Obligation, error)
	Delete(ctx context.Context, organizationID, obligationID uuid.UUID) (DeleteObligationResult, error)
}

// CreateObligationInput: team obligations need ProjectID, AssignmentID and TotalAmount;
// general obligations must carry none of them.
type CreateObligationInput struct {
	OrganizationID uuid.UUID
	Kind           string
	ProjectID      *uuid.UUID
	AssignmentID   *uuid.UUID
	TotalAmount    *decimal.Decimal
	Description    string
}

type DeleteObligationResult struct {
	ObligationID   uuid.UUID
	RemovedEntries int64
	Totals         CascadeTotals
}
