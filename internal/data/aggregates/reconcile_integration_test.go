package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/yungbote/agencyledger-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
)

func TestReconcileRepairsDriftAndIsIdempotent(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	ctx := context.Background()
	a2 := repotest.SeedAssignment(t, ctx, f.db, s.project, "")
	o2 := repotest.SeedTeamObligation(t, ctx, f.db, a2, "300")
	f.append(t, s, s.obligation.ID, "400", "")
	f.append(t, s, o2.ID, "300", "")

	// Drift: an entry written without recompute, a corrupted project total, and an
	// assignment whose only obligation vanished out of band.
	repotest.SeedEntry(t, ctx, f.db, s.obligation, 99, "600")
	if err := f.db.Model(&types.Project{}).Where("id = ?", s.project.ID).Update("total_paid", dec("1")).Error; err != nil {
		t.Fatalf("corrupt project: %v", err)
	}
	orphan := repotest.SeedAssignment(t, ctx, f.db, s.project, "")
	if err := f.db.Model(&types.Assignment{}).Where("id = ?", orphan.ID).Update("total_paid", dec("75")).Error; err != nil {
		t.Fatalf("corrupt orphan: %v", err)
	}

	report, err := f.reconciler.ReconcileAll(ctx, s.org.ID)
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if report.ObligationsChecked != 2 || report.AssignmentsChecked != 3 || report.ProjectsChecked != 1 {
		t.Fatalf("checked counts: %+v", report)
	}
	if report.ObligationsRepaired != 1 || report.AssignmentsRepaired != 2 || report.ProjectsRepaired != 1 {
		t.Fatalf("repaired counts: %+v", report)
	}
	o := f.obligation(t, s.obligation.ID)
	if !o.Paid().Equal(dec("1000")) || o.Status() != types.PaymentStatusCompleted {
		t.Fatalf("obligation after reconcile: paid=%s status=%q", o.Paid(), o.Status())
	}
	if got := f.projectPaid(t, s.project.ID); !got.Equal(dec("1300")) {
		t.Fatalf("project after reconcile=%s", got)
	}
	if got := f.assignmentPaid(t, orphan.ID); !got.IsZero() {
		t.Fatalf("orphan assignment after reconcile=%s", got)
	}
	f.assertInvariants(t, s)
	if f.hooks.Repaired["assignment"] != 2 {
		t.Fatalf("repair hook: %+v", f.hooks.Repaired)
	}

	again, err := f.reconciler.ReconcileAll(ctx, s.org.ID)
	if err != nil {
		t.Fatalf("second ReconcileAll: %v", err)
	}
	if again.Repaired() != 0 {
		t.Fatalf("second pass must repair nothing: %+v", again)
	}
}

func TestReconcileValidation(t *testing.T) {
	f := newFinanceFixture(t)
	if _, err := f.reconciler.ReconcileAll(context.Background(), uuid.Nil); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("nil org: %v", err)
	}
	report, err := f.reconciler.ReconcileAll(context.Background(), uuid.New())
	if err != nil || report.ObligationsChecked != 0 {
		t.Fatalf("empty org: %+v err=%v", report, err)
	}
}
