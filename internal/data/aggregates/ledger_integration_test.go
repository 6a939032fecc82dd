package aggregates_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/agencyledger-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/agencyledger-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/agencyledger-backend/internal/data/repos"
	repotest "github.com/yungbote/agencyledger-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

func TestLedgerAppendThenCompleteScenarioA(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "50000")

	res := f.append(t, s, s.obligation.ID, "15000", types.CategoryAdvance)
	if res.Entry == nil || res.Entry.Seq != 1 {
		t.Fatalf("first entry: %+v", res.Entry)
	}
	if res.Totals.Obligation == nil || !res.Totals.Obligation.CurrentPaid.Equal(dec("15000")) {
		t.Fatalf("totals after first append: %+v", res.Totals.Obligation)
	}
	o := f.obligation(t, s.obligation.ID)
	if !o.Paid().Equal(dec("15000")) || o.Status() != types.PaymentStatusPartial {
		t.Fatalf("after 15000: paid=%s status=%q", o.Paid(), o.Status())
	}

	res = f.append(t, s, s.obligation.ID, "35000", types.CategoryFinal)
	if res.Entry.Seq != 2 {
		t.Fatalf("second entry seq=%d", res.Entry.Seq)
	}
	o = f.obligation(t, s.obligation.ID)
	if !o.Paid().Equal(dec("50000")) || o.Status() != types.PaymentStatusCompleted {
		t.Fatalf("after 35000: paid=%s status=%q", o.Paid(), o.Status())
	}
	if got := f.assignmentPaid(t, s.assignment.ID); !got.Equal(dec("50000")) {
		t.Fatalf("assignment total_paid=%s", got)
	}
	if got := f.projectPaid(t, s.project.ID); !got.Equal(dec("50000")) {
		t.Fatalf("project total_paid=%s", got)
	}
	if !res.Totals.Project.Changed() || !res.Totals.Project.Previous.Equal(dec("15000")) {
		t.Fatalf("project level totals: %+v", res.Totals.Project)
	}
	f.assertInvariants(t, s)
}

func TestLedgerRemoveIsNonMonotonicScenarioB(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "50000")
	f.append(t, s, s.obligation.ID, "15000", types.CategoryAdvance)
	final := f.append(t, s, s.obligation.ID, "35000", types.CategoryFinal)

	if _, err := f.ledger.Remove(context.Background(), domainagg.RemoveEntryInput{
		OrganizationID: s.org.ID,
		EntryID:        final.Entry.ID,
	}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	o := f.obligation(t, s.obligation.ID)
	if !o.Paid().Equal(dec("15000")) || o.Status() != types.PaymentStatusPartial {
		t.Fatalf("after remove: paid=%s status=%q", o.Paid(), o.Status())
	}
	f.assertInvariants(t, s)
}

func TestLedgerStatusReturnsToPendingWhenAllEntriesRemoved(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	e1 := f.append(t, s, s.obligation.ID, "400", "")
	e2 := f.append(t, s, s.obligation.ID, "600", "")
	if got := f.obligation(t, s.obligation.ID).Status(); got != types.PaymentStatusCompleted {
		t.Fatalf("status at boundary=%q want completed", got)
	}

	for _, e := range []*types.LedgerEntry{e1.Entry, e2.Entry} {
		if _, err := f.ledger.Remove(context.Background(), domainagg.RemoveEntryInput{OrganizationID: s.org.ID, EntryID: e.ID}); err != nil {
			t.Fatalf("Remove: %v", err)
		}
	}
	o := f.obligation(t, s.obligation.ID)
	if !o.Paid().IsZero() || o.Status() != types.PaymentStatusPending {
		t.Fatalf("after removing all: paid=%s status=%q", o.Paid(), o.Status())
	}
	if got := f.projectPaid(t, s.project.ID); !got.IsZero() {
		t.Fatalf("project total_paid=%s", got)
	}
}

func TestLedgerUpdateAmountRecomputes(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	res := f.append(t, s, s.obligation.ID, "1000", types.CategoryFinal)

	upd, err := f.ledger.UpdateAmount(context.Background(), domainagg.UpdateEntryInput{
		OrganizationID: s.org.ID,
		EntryID:        res.Entry.ID,
		Amount:         dec("250.75"),
	})
	if err != nil {
		t.Fatalf("UpdateAmount: %v", err)
	}
	if !upd.Entry.Amount.Equal(dec("250.75")) {
		t.Fatalf("returned entry amount=%s", upd.Entry.Amount)
	}
	if upd.Totals.Obligation.PreviousStatus != types.PaymentStatusCompleted || upd.Totals.Obligation.CurrentStatus != types.PaymentStatusPartial {
		t.Fatalf("status transition: %+v", upd.Totals.Obligation)
	}
	f.assertInvariants(t, s)
}

func TestLedgerAppendValidation(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	ctx := context.Background()

	cases := []struct {
		name   string
		amount string
		cat    string
		want   domainagg.ErrorCode
	}{
		{"zero", "0", "", domainagg.CodeInvalidAmount},
		{"negative", "-10", "", domainagg.CodeInvalidAmount},
		{"three decimals", "10.005", "", domainagg.CodeInvalidAmount},
		{"too large", "1000000000000", "", domainagg.CodeInvalidAmount},
		{"unknown category", "10", "refund", domainagg.CodeValidation},
	}
	for _, tc := range cases {
		_, err := f.ledger.Append(ctx, domainagg.AppendEntryInput{
			OrganizationID: s.org.ID,
			ObligationID:   s.obligation.ID,
			AuthorID:       uuid.New(),
			Amount:         dec(tc.amount),
			Category:       tc.cat,
		})
		if !domainagg.IsCode(err, tc.want) {
			t.Fatalf("%s: want %s got %v", tc.name, tc.want, err)
		}
	}
	if n := f.entryCount(t, s.obligation.ID); n != 0 {
		t.Fatalf("validation failures must not write, entries=%d", n)
	}
	if len(f.hooks.Operations) != 0 {
		t.Fatalf("validation runs before any transaction, got ops %+v", f.hooks.Operations)
	}
}

func TestLedgerUnknownIds(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	ctx := context.Background()

	_, err := f.ledger.Append(ctx, domainagg.AppendEntryInput{
		OrganizationID: s.org.ID,
		ObligationID:   uuid.New(),
		AuthorID:       uuid.New(),
		Amount:         dec("10"),
	})
	if !domainagg.IsCode(err, domainagg.CodeObligationNotFound) {
		t.Fatalf("append to unknown obligation: %v", err)
	}
	_, err = f.ledger.UpdateAmount(ctx, domainagg.UpdateEntryInput{OrganizationID: s.org.ID, EntryID: uuid.New(), Amount: dec("10")})
	if !domainagg.IsCode(err, domainagg.CodeEntryNotFound) {
		t.Fatalf("update unknown entry: %v", err)
	}
	_, err = f.ledger.Remove(ctx, domainagg.RemoveEntryInput{OrganizationID: s.org.ID, EntryID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeEntryNotFound) {
		t.Fatalf("remove unknown entry: %v", err)
	}
}

func TestLedgerNilIdsAreNotFound(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	ctx := context.Background()

	if _, err := f.ledger.ListByObligation(ctx, s.org.ID, uuid.Nil); !domainagg.IsCode(err, domainagg.CodeObligationNotFound) {
		t.Fatalf("list nil obligation: %v", err)
	}
	_, err := f.ledger.Append(ctx, domainagg.AppendEntryInput{
		OrganizationID: s.org.ID,
		ObligationID:   uuid.Nil,
		AuthorID:       uuid.New(),
		Amount:         dec("10"),
	})
	if !domainagg.IsCode(err, domainagg.CodeObligationNotFound) {
		t.Fatalf("append nil obligation: %v", err)
	}
	_, err = f.ledger.UpdateAmount(ctx, domainagg.UpdateEntryInput{OrganizationID: s.org.ID, EntryID: uuid.Nil, Amount: dec("10")})
	if !domainagg.IsCode(err, domainagg.CodeEntryNotFound) {
		t.Fatalf("update nil entry: %v", err)
	}
	_, err = f.ledger.Remove(ctx, domainagg.RemoveEntryInput{OrganizationID: s.org.ID, EntryID: uuid.Nil})
	if !domainagg.IsCode(err, domainagg.CodeEntryNotFound) {
		t.Fatalf("remove nil entry: %v", err)
	}
	if len(f.hooks.Operations) != 0 {
		t.Fatalf("nil ids are rejected before any transaction, got ops %+v", f.hooks.Operations)
	}
}

func TestLedgerCrossTenantReference(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	other := repotest.SeedOrganization(t, context.Background(), f.db, "USD")
	ctx := context.Background()

	_, err := f.ledger.Append(ctx, domainagg.AppendEntryInput{
		OrganizationID: other.ID,
		ObligationID:   s.obligation.ID,
		AuthorID:       uuid.New(),
		Amount:         dec("10"),
	})
	if !domainagg.IsCode(err, domainagg.CodeCrossTenantReference) {
		t.Fatalf("cross-tenant append: %v", err)
	}

	res := f.append(t, s, s.obligation.ID, "10", "")
	_, err = f.ledger.Remove(ctx, domainagg.RemoveEntryInput{OrganizationID: other.ID, EntryID: res.Entry.ID})
	if !domainagg.IsCode(err, domainagg.CodeCrossTenantReference) {
		t.Fatalf("cross-tenant remove: %v", err)
	}
	if _, err := f.ledger.ListByObligation(ctx, other.ID, s.obligation.ID); !domainagg.IsCode(err, domainagg.CodeCrossTenantReference) {
		t.Fatalf("cross-tenant list: %v", err)
	}
	if n := f.entryCount(t, s.obligation.ID); n != 1 {
		t.Fatalf("entries=%d", n)
	}
}

func TestLedgerGeneralObligationSkipsAggregation(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	org := repotest.SeedOrganization(t, ctx, f.db, "USD")
	g := repotest.SeedGeneralObligation(t, ctx, f.db, org.ID)

	res, err := f.ledger.Append(ctx, domainagg.AppendEntryInput{
		OrganizationID: org.ID,
		ObligationID:   g.ID,
		AuthorID:       uuid.New(),
		Amount:         dec("99.99"),
		Metadata:       map[string]any{"note": "annual plan", "invoice": "INV-7"},
	})
	if err != nil {
		t.Fatalf("Append general: %v", err)
	}
	if res.Totals.Obligation != nil || res.Totals.Assignment != nil || res.Totals.Project != nil {
		t.Fatalf("general obligation must not report totals: %+v", res.Totals)
	}
	o := f.obligation(t, g.ID)
	if o.PaidAmount.Valid || o.PaymentStatus != nil {
		t.Fatalf("general obligation derived fields must stay null: paid=%+v status=%v", o.PaidAmount, o.PaymentStatus)
	}

	rows, err := f.ledger.ListByObligation(ctx, org.ID, g.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByObligation: n=%d err=%v", len(rows), err)
	}
	var meta map[string]any
	if err := json.Unmarshal(rows[0].Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["invoice"] != "INV-7" {
		t.Fatalf("metadata roundtrip: %+v", meta)
	}
}

func TestLedgerListOrdersByRecordedAtThenSeq(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		amount string
		at     time.Time
	}{
		{"1", base.Add(2 * time.Hour)},
		{"2", base},
		{"3", base},
	} {
		if _, err := f.ledger.Append(ctx, domainagg.AppendEntryInput{
			OrganizationID: s.org.ID,
			ObligationID:   s.obligation.ID,
			AuthorID:       uuid.New(),
			Amount:         dec(tc.amount),
			RecordedAt:     tc.at,
		}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	rows, err := f.ledger.ListByObligation(ctx, s.org.ID, s.obligation.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("ListByObligation: n=%d err=%v", len(rows), err)
	}
	want := []int64{2, 3, 1}
	for i, r := range rows {
		if r.Seq != want[i] {
			t.Fatalf("position %d: seq=%d want %d", i, r.Seq, want[i])
		}
	}
}

type failingProjectRepo struct {
	repos.ProjectRepo
	err error
}

func (r failingProjectRepo) SetDerivedTotals(dbctx.Context, uuid.UUID, decimal.Decimal) error {
	return r.err
}

func TestLedgerAppendRollsBackWhenRollupFails(t *testing.T) {
	base := newFinanceFixture(t)
	s := base.seedTeam(t, "1000")

	rs := base.repos
	rs.Projects = failingProjectRepo{ProjectRepo: rs.Projects, err: errors.New("disk full")}
	f := newFinanceFixtureWith(t, base.db, rs, aggregates.NewGormTxRunner(base.db))

	_, err := f.ledger.Append(context.Background(), domainagg.AppendEntryInput{
		OrganizationID: s.org.ID,
		ObligationID:   s.obligation.ID,
		AuthorID:       uuid.New(),
		Amount:         dec("300"),
	})
	if !domainagg.IsCode(err, domainagg.CodeAggregationFailed) {
		t.Fatalf("want aggregation_failed, got %v", err)
	}
	if n := base.entryCount(t, s.obligation.ID); n != 0 {
		t.Fatalf("entry must be rolled back, entries=%d", n)
	}
	o := base.obligation(t, s.obligation.ID)
	if !o.Paid().IsZero() || o.Status() != types.PaymentStatusPending {
		t.Fatalf("obligation must be rolled back: paid=%s status=%q", o.Paid(), o.Status())
	}
	if got := base.assignmentPaid(t, s.assignment.ID); !got.IsZero() {
		t.Fatalf("assignment must be rolled back: %s", got)
	}
	if st := f.hooks.Statuses("Finance.Ledger.Append"); len(st) != 1 || st[0] != string(domainagg.CodeAggregationFailed) {
		t.Fatalf("hook statuses: %+v", st)
	}
}

func TestLedgerAppendRollsBackOnInjectedCommitFailure(t *testing.T) {
	base := newFinanceFixture(t)
	s := base.seedTeam(t, "1000")
	runner := &aggtest.InjectedTxRunner{
		Inner:      aggregates.NewGormTxRunner(base.db),
		FailCommit: errors.New("connection reset during commit"),
	}
	f := newFinanceFixtureWith(t, base.db, base.repos, runner)

	_, err := f.ledger.Append(context.Background(), domainagg.AppendEntryInput{
		OrganizationID: s.org.ID,
		ObligationID:   s.obligation.ID,
		AuthorID:       uuid.New(),
		Amount:         dec("1000"),
	})
	if !domainagg.IsCode(err, domainagg.CodeAggregationFailed) {
		t.Fatalf("want aggregation_failed, got %v", err)
	}
	if runner.RollbackCalls != 1 || runner.CommitCalls != 0 {
		t.Fatalf("runner counters commit=%d rollback=%d", runner.CommitCalls, runner.RollbackCalls)
	}
	if n := base.entryCount(t, s.obligation.ID); n != 0 {
		t.Fatalf("entries=%d", n)
	}
	base.assertInvariants(t, s)
}

func TestLedgerAppendTimesOutWhileChainIsHeld(t *testing.T) {
	f := newFinanceFixture(t,
		aggregates.WithLockTimeout(100*time.Millisecond),
		aggregates.WithTimeout(300*time.Millisecond),
	)
	s := f.seedTeam(t, "1000")

	hold := f.db.Begin()
	if hold.Error != nil {
		t.Fatalf("begin hold: %v", hold.Error)
	}
	if repotest.IsPostgres() {
		if _, err := f.repos.Projects.LockByID(dbctx.Context{Ctx: context.Background(), Tx: hold}, s.project.ID); err != nil {
			t.Fatalf("hold project lock: %v", err)
		}
	}
	// On SQLite holding the transaction holds the only pooled connection.

	_, err := f.ledger.Append(context.Background(), domainagg.AppendEntryInput{
		OrganizationID: s.org.ID,
		ObligationID:   s.obligation.ID,
		AuthorID:       uuid.New(),
		Amount:         dec("10"),
	})
	_ = hold.Rollback().Error

	if !domainagg.IsCode(err, domainagg.CodeAggregationTimeout) {
		t.Fatalf("want aggregation_timeout, got %v", err)
	}
	if !domainagg.IsRetryable(err) {
		t.Fatalf("timeout must be retryable")
	}
	if len(f.hooks.Timeouts) != 1 {
		t.Fatalf("timeout hook: %+v", f.hooks.Timeouts)
	}
	if n := f.entryCount(t, s.obligation.ID); n != 0 {
		t.Fatalf("entries=%d", n)
	}
}
