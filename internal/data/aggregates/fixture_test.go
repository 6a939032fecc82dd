package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/agencyledger-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/agencyledger-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/agencyledger-backend/internal/data/repos"
	repotest "github.com/yungbote/agencyledger-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

// financeFixture wires every aggregate against one test database. Aggregate tests use the
// database directly rather than repotest.Tx: the aggregates open their own transactions.
type financeFixture struct {
	db    *gorm.DB
	repos aggregates.FinanceRepos
	hooks *aggtest.HooksRecorder

	ledger      domainagg.LedgerAggregate
	obligations domainagg.ObligationAggregate
	assignments domainagg.AssignmentAggregate
	reconciler  domainagg.Reconciler
}

func newFinanceFixture(t *testing.T, opts ...aggregates.TxOption) *financeFixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	rs := aggregates.FinanceRepos{
		Projects:    repos.NewProjectRepo(db, log),
		Assignments: repos.NewAssignmentRepo(db, log),
		Obligations: repos.NewObligationRepo(db, log),
		Entries:     repos.NewLedgerEntryRepo(db, log),
	}
	return newFinanceFixtureWith(t, db, rs, aggregates.NewGormTxRunner(db, opts...))
}

func newFinanceFixtureWith(t *testing.T, db *gorm.DB, rs aggregates.FinanceRepos, runner aggregates.TxRunner) *financeFixture {
	t.Helper()
	hooks := &aggtest.HooksRecorder{}
	base := aggregates.BaseDeps{
		DB:     db,
		Log:    repotest.Logger(t),
		Runner: runner,
		Hooks:  hooks,
		Guard:  aggregates.NewStatusGuard(db),
	}
	return &financeFixture{
		db:          db,
		repos:       rs,
		hooks:       hooks,
		ledger:      aggregates.NewLedgerAggregate(aggregates.LedgerAggregateDeps{Base: base, Repos: rs}),
		obligations: aggregates.NewObligationAggregate(aggregates.ObligationAggregateDeps{Base: base, Repos: rs}),
		assignments: aggregates.NewAssignmentAggregate(aggregates.AssignmentAggregateDeps{Base: base, Repos: rs}),
		reconciler:  aggregates.NewReconciler(aggregates.ReconcilerDeps{Base: base, Repos: rs, Concurrency: 3}),
	}
}

type teamSetup struct {
	org        *types.Organization
	project    *types.Project
	assignment *types.Assignment
	obligation *types.Obligation
}

func (f *financeFixture) seedTeam(t *testing.T, total string) teamSetup {
	t.Helper()
	ctx := context.Background()
	org := repotest.SeedOrganization(t, ctx, f.db, "USD")
	p := repotest.SeedProject(t, ctx, f.db, org.ID, "100000")
	a := repotest.SeedAssignment(t, ctx, f.db, p, "60000")
	o := repotest.SeedTeamObligation(t, ctx, f.db, a, total)
	return teamSetup{org: org, project: p, assignment: a, obligation: o}
}

func (f *financeFixture) append(t *testing.T, s teamSetup, obligationID uuid.UUID, amount, category string) domainagg.EntryMutationResult {
	t.Helper()
	res, err := f.ledger.Append(context.Background(), domainagg.AppendEntryInput{
		OrganizationID: s.org.ID,
		ObligationID:   obligationID,
		AuthorID:       uuid.New(),
		Amount:         dec(amount),
		Category:       category,
	})
	if err != nil {
		t.Fatalf("Append %s: %v", amount, err)
	}
	return res
}

func (f *financeFixture) obligation(t *testing.T, id uuid.UUID) *types.Obligation {
	t.Helper()
	o, err := f.repos.Obligations.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || o == nil {
		t.Fatalf("load obligation %s: got=%v err=%v", id, o, err)
	}
	return o
}

func (f *financeFixture) assignmentPaid(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	a, err := f.repos.Assignments.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || a == nil {
		t.Fatalf("load assignment %s: got=%v err=%v", id, a, err)
	}
	return a.TotalPaid
}

func (f *financeFixture) projectPaid(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	p, err := f.repos.Projects.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || p == nil {
		t.Fatalf("load project %s: got=%v err=%v", id, p, err)
	}
	return p.TotalPaid
}

func (f *financeFixture) entryCount(t *testing.T, obligationID uuid.UUID) int {
	t.Helper()
	rows, err := f.repos.Entries.ListByObligation(dbctx.Context{Ctx: context.Background()}, obligationID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	return len(rows)
}

// assertInvariants checks the sum, status and rollup invariants for one team chain.
func (f *financeFixture) assertInvariants(t *testing.T, s teamSetup) {
	t.Helper()
	dbc := dbctx.Context{Ctx: context.Background()}
	team, err := f.repos.Obligations.ListTeamByOrganization(dbc, s.org.ID)
	if err != nil {
		t.Fatalf("list team obligations: %v", err)
	}
	byAssignment := map[uuid.UUID]decimal.Decimal{}
	byProject := map[uuid.UUID]decimal.Decimal{}
	for _, o := range team {
		amounts, err := f.repos.Entries.ListAmountsByObligation(dbc, o.ID)
		if err != nil {
			t.Fatalf("list amounts: %v", err)
		}
		sum := types.SumAmounts(amounts)
		if !o.Paid().Equal(sum) {
			t.Fatalf("obligation %s: paid=%s sum(entries)=%s", o.ID, o.Paid(), sum)
		}
		if want := types.DerivePaymentStatus(sum, o.TotalAmount.Decimal); o.Status() != want {
			t.Fatalf("obligation %s: status=%q want %q", o.ID, o.Status(), want)
		}
		byAssignment[*o.AssignmentID] = byAssignment[*o.AssignmentID].Add(sum)
		byProject[*o.ProjectID] = byProject[*o.ProjectID].Add(sum)
	}
	for id, want := range byAssignment {
		if got := f.assignmentPaid(t, id); !got.Equal(want) {
			t.Fatalf("assignment %s: total_paid=%s want %s", id, got, want)
		}
	}
	for id, want := range byProject {
		if got := f.projectPaid(t, id); !got.Equal(want) {
			t.Fatalf("project %s: total_paid=%s want %s", id, got, want)
		}
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
