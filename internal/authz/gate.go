package authz

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type Action string

const (
	ActionLedgerRead   Action = "ledger.read"
	ActionLedgerAppend Action = "ledger.append"
	ActionLedgerUpdate Action = "ledger.update"
	ActionLedgerRemove Action = "ledger.remove"

	ActionObligationRead   Action = "obligation.read"
	ActionObligationCreate Action = "obligation.create"
	ActionObligationDelete Action = "obligation.delete"

	ActionProjectRead     Action = "project.read"
	ActionProjectWrite    Action = "project.write"
	ActionAssignmentWrite Action = "assignment.write"

	ActionReconcile Action = "finance.reconcile"
)

const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
	RoleViewer  = "viewer"
)

// Principal is an authenticated caller scoped to exactly one organization.
type Principal struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           string
}

func (p Principal) Valid() bool {
	return p.UserID != uuid.Nil && p.OrganizationID != uuid.Nil && strings.TrimSpace(p.Role) != ""
}

// Gate decides whether principal may perform action. obligationID is uuid.Nil for actions
// that are not scoped to a single obligation.
type Gate interface {
	Allow(ctx context.Context, p Principal, organizationID, obligationID uuid.UUID, action Action) (bool, error)
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context, p Principal, organizationID, obligationID uuid.UUID, action Action) (bool, error)

func (f GateFunc) Allow(ctx context.Context, p Principal, organizationID, obligationID uuid.UUID, action Action) (bool, error) {
	return f(ctx, p, organizationID, obligationID, action)
}
