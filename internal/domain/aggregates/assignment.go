package aggregates

import (
	"context"

	"github.com/google/uuid"
	"github.com/yungbote/agencyledger-backend/internal/domain/finance"
)

var AssignmentAggregateContract = Contract{
	Name:             "Finance.AssignmentAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	LockOrder:        []string{"project", "assignment"},
	Notes: "Owns the active->removed transition so it cannot interleave with team obligation " +
		"creation against the same assignment.",
}

// AssignmentAggregate owns assignment lifecycle transitions. Removal is logical: totals and
// historical obligations are kept.
type AssignmentAggregate interface {
	Aggregate

	Remove(ctx context.Context, organizationID, assignmentID uuid.UUID) (*finance.Assignment, error)
}
