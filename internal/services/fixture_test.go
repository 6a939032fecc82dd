package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/agencyledger-backend/internal/authz"
	dataagg "github.com/yungbote/agencyledger-backend/internal/data/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/data/repos"
	repotest "github.com/yungbote/agencyledger-backend/internal/data/repos/testutil"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/ctxutil"
	"github.com/yungbote/agencyledger-backend/internal/realtime/bus"
)

type serviceFixture struct {
	db  *gorm.DB
	bus *bus.MemoryBus
	org *types.Organization

	ledger      LedgerService
	obligations ObligationService
	projects    ProjectService
	reconcile   ReconcileService
}

func newServiceFixture(t *testing.T, gate authz.Gate) *serviceFixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	if gate == nil {
		gate = authz.NewRoleGate(log, nil)
	}
	orgs := repos.NewOrganizationRepo(db, log)
	rs := dataagg.FinanceRepos{
		Projects:    repos.NewProjectRepo(db, log),
		Assignments: repos.NewAssignmentRepo(db, log),
		Obligations: repos.NewObligationRepo(db, log),
		Entries:     repos.NewLedgerEntryRepo(db, log),
	}
	base := dataagg.BaseDeps{DB: db, Log: log, Runner: dataagg.NewGormTxRunner(db)}
	memBus := bus.NewMemoryBus()
	pub := NewEventPublisher(log, memBus)

	org := repotest.SeedOrganization(t, context.Background(), db, "USD")
	return &serviceFixture{
		db:  db,
		bus: memBus,
		org: org,
		ledger: NewLedgerService(log, gate,
			dataagg.NewLedgerAggregate(dataagg.LedgerAggregateDeps{Base: base, Repos: rs}),
			rs.Entries, orgs, pub),
		obligations: NewObligationService(log, gate,
			dataagg.NewObligationAggregate(dataagg.ObligationAggregateDeps{Base: base, Repos: rs}),
			orgs, pub),
		projects: NewProjectService(db, log, gate, orgs, rs.Projects, rs.Assignments, rs.Obligations,
			dataagg.NewAssignmentAggregate(dataagg.AssignmentAggregateDeps{Base: base, Repos: rs})),
		reconcile: NewReconcileService(log, gate,
			dataagg.NewReconciler(dataagg.ReconcilerDeps{Base: base, Repos: rs, Concurrency: 2}), pub),
	}
}

func (f *serviceFixture) as(role string) context.Context {
	return ctxutil.WithPrincipal(context.Background(), authz.Principal{
		UserID:         uuid.New(),
		OrganizationID: f.org.ID,
		Role:           role,
	})
}

type teamObligation struct {
	project    *ProjectView
	assignment *AssignmentView
	obligation *ObligationView
}

func (f *serviceFixture) seedTeam(t *testing.T, total string) teamObligation {
	t.Helper()
	ctx := f.as(authz.RoleOwner)
	p, err := f.projects.CreateProject(ctx, CreateProjectRequest{Name: "Relaunch", Budget: ptrDec("10000"), Status: "ongoing"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	a, err := f.projects.CreateAssignment(ctx, p.ID, CreateAssignmentRequest{MemberID: uuid.New(), AllocatedBudget: ptrDec("6000")})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	o, err := f.obligations.Create(ctx, CreateObligationRequest{
		Kind:         types.ObligationKindTeam,
		ProjectID:    &p.ID,
		AssignmentID: &a.ID,
		TotalAmount:  ptrDec(total),
		Description:  "design sprint",
	})
	if err != nil {
		t.Fatalf("Create obligation: %v", err)
	}
	return teamObligation{project: p, assignment: a, obligation: o}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
