package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var ReconcileContract = Contract{
	Name:             "Finance.Reconciler",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	LockOrder:        FinanceLockOrder,
	Notes:            "Recomputes every aggregate of an organization from ledger entries; one transaction per obligation.",
}

// Reconciler repairs drift between stored aggregates and the ledger. Running it twice in a
// row repairs nothing the second time.
type Reconciler interface {
	Aggregate

	ReconcileAll(ctx context.Context, organizationID uuid.UUID) (ReconcileReport, error)
}

type ReconcileReport struct {
	OrganizationID uuid.UUID `json:"organization_id"`

	ObligationsChecked  int `json:"obligations_checked"`
	ObligationsRepaired int `json:"obligations_repaired"`
	AssignmentsChecked  int `json:"assignments_checked"`
	AssignmentsRepaired int `json:"assignments_repaired"`
	ProjectsChecked     int `json:"projects_checked"`
	ProjectsRepaired    int `json:"projects_repaired"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r ReconcileReport) Repaired() int {
	return r.ObligationsRepaired + r.AssignmentsRepaired + r.ProjectsRepaired
}
