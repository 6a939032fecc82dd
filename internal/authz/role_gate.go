package authz

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

// Policy maps a role to the set of actions it may perform.
type Policy map[string]map[Action]bool

var readActions = []Action{ActionLedgerRead, ActionObligationRead, ActionProjectRead}

var writeActions = []Action{
	ActionLedgerAppend, ActionLedgerUpdate, ActionLedgerRemove,
	ActionObligationCreate, ActionObligationDelete,
	ActionProjectWrite, ActionAssignmentWrite,
}

// DefaultPolicy: owner/admin may do everything, manager everything except reconcile,
// member/viewer read only.
func DefaultPolicy() Policy {
	p := Policy{}
	grant := func(role string, actions ...Action) {
		if p[role] == nil {
			p[role] = map[Action]bool{}
		}
		for _, a := range actions {
			p[role][a] = true
		}
	}
	for _, role := range []string{RoleOwner, RoleAdmin} {
		grant(role, readActions...)
		grant(role, writeActions...)
		grant(role, ActionReconcile)
	}
	grant(RoleManager, readActions...)
	grant(RoleManager, writeActions...)
	grant(RoleMember, readActions...)
	grant(RoleViewer, readActions...)
	return p
}

// RoleGate approves an action when the principal belongs to the target organization and its
// role is granted the action.
type RoleGate struct {
	log    *logger.Logger
	policy Policy
}

func NewRoleGate(log *logger.Logger, policy Policy) *RoleGate {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &RoleGate{log: log.With("gate", "RoleGate"), policy: policy}
}

func (g *RoleGate) Allow(_ context.Context, p Principal, organizationID, obligationID uuid.UUID, action Action) (bool, error) {
	if !p.Valid() || organizationID == uuid.Nil {
		return false, nil
	}
	if p.OrganizationID != organizationID {
		g.log.Warn("cross-organization access denied",
			"principal_id", p.UserID.String(),
			"principal_org", p.OrganizationID.String(),
			"target_org", organizationID.String(),
			"action", string(action),
		)
		return false, nil
	}
	allowed := g.policy[strings.ToLower(strings.TrimSpace(p.Role))][action]
	if !allowed {
		g.log.Debug("action denied by role policy",
			"principal_id", p.UserID.String(),
			"role", p.Role,
			"action", string(action),
			"obligation_id", obligationID.String(),
		)
	}
	return allowed, nil
}
