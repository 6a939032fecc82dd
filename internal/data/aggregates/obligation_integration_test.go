package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/yungbote/agencyledger-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

func TestObligationCreateTeam(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	org := repotest.SeedOrganization(t, ctx, f.db, "USD")
	p := repotest.SeedProject(t, ctx, f.db, org.ID, "5000")
	a := repotest.SeedAssignment(t, ctx, f.db, p, "2000")

	o, err := f.obligations.Create(ctx, domainagg.CreateObligationInput{
		OrganizationID: org.ID,
		Kind:           "team",
		ProjectID:      &p.ID,
		AssignmentID:   &a.ID,
		TotalAmount:    ptrDec("2500"),
		Description:    "design sprint",
	})
	if err != nil {
		t.Fatalf("Create team: %v", err)
	}
	got, err := f.obligations.Get(ctx, org.ID, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.MemberID == nil || *got.MemberID != a.MemberID {
		t.Fatalf("member must be copied from assignment: %v", got.MemberID)
	}
	if got.Status() != types.PaymentStatusPending || !got.Paid().IsZero() {
		t.Fatalf("initial derived: paid=%s status=%q", got.Paid(), got.Status())
	}
	// total above the allocated budget is accepted
	if !got.TotalAmount.Decimal.Equal(dec("2500")) {
		t.Fatalf("total=%s", got.TotalAmount.Decimal)
	}
}

func TestObligationCreateShapeScenarioD(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	org := repotest.SeedOrganization(t, ctx, f.db, "USD")
	p := repotest.SeedProject(t, ctx, f.db, org.ID, "")
	a := repotest.SeedAssignment(t, ctx, f.db, p, "")
	otherProject := repotest.SeedProject(t, ctx, f.db, org.ID, "")

	cases := []struct {
		name string
		in   domainagg.CreateObligationInput
		want domainagg.ErrorCode
	}{
		{"team without total", domainagg.CreateObligationInput{Kind: "team", ProjectID: &p.ID, AssignmentID: &a.ID}, domainagg.CodeInvalidObligationShape},
		{"team without assignment", domainagg.CreateObligationInput{Kind: "team", ProjectID: &p.ID, TotalAmount: ptrDec("10")}, domainagg.CodeInvalidObligationShape},
		{"general with project", domainagg.CreateObligationInput{Kind: "general", ProjectID: &p.ID}, domainagg.CodeInvalidObligationShape},
		{"general with total", domainagg.CreateObligationInput{Kind: "general", TotalAmount: ptrDec("10")}, domainagg.CodeInvalidObligationShape},
		{"unknown kind", domainagg.CreateObligationInput{Kind: "vendor"}, domainagg.CodeInvalidObligationShape},
		{"zero total", domainagg.CreateObligationInput{Kind: "team", ProjectID: &p.ID, AssignmentID: &a.ID, TotalAmount: ptrDec("0")}, domainagg.CodeInvalidObligationShape},
		{"negative total", domainagg.CreateObligationInput{Kind: "team", ProjectID: &p.ID, AssignmentID: &a.ID, TotalAmount: ptrDec("-5")}, domainagg.CodeInvalidObligationShape},
		{"total with three decimals", domainagg.CreateObligationInput{Kind: "team", ProjectID: &p.ID, AssignmentID: &a.ID, TotalAmount: ptrDec("10.005")}, domainagg.CodeInvalidAmount},
		{"total out of range", domainagg.CreateObligationInput{Kind: "team", ProjectID: &p.ID, AssignmentID: &a.ID, TotalAmount: ptrDec("1000000000000")}, domainagg.CodeInvalidAmount},
		{"assignment of other project", domainagg.CreateObligationInput{Kind: "team", ProjectID: &otherProject.ID, AssignmentID: &a.ID, TotalAmount: ptrDec("10")}, domainagg.CodeInvalidObligationShape},
		{"unknown project", domainagg.CreateObligationInput{Kind: "team", ProjectID: ptrUUID(uuid.New()), AssignmentID: &a.ID, TotalAmount: ptrDec("10")}, domainagg.CodeProjectNotFound},
		{"unknown assignment", domainagg.CreateObligationInput{Kind: "team", ProjectID: &p.ID, AssignmentID: ptrUUID(uuid.New()), TotalAmount: ptrDec("10")}, domainagg.CodeAssignmentNotFound},
	}
	for _, tc := range cases {
		tc.in.OrganizationID = org.ID
		if _, err := f.obligations.Create(ctx, tc.in); !domainagg.IsCode(err, tc.want) {
			t.Fatalf("%s: want %s got %v", tc.name, tc.want, err)
		}
	}
	team, err := f.repos.Obligations.ListTeamByOrganization(dbctx.Context{Ctx: ctx}, org.ID)
	if err != nil || len(team) != 0 {
		t.Fatalf("no obligation may be created, got n=%d err=%v", len(team), err)
	}
}

func TestObligationCreateRejectsRemovedAssignmentAndForeignProject(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	org := repotest.SeedOrganization(t, ctx, f.db, "USD")
	p := repotest.SeedProject(t, ctx, f.db, org.ID, "")
	a := repotest.SeedAssignment(t, ctx, f.db, p, "")

	if _, err := f.assignments.Remove(ctx, org.ID, a.ID); err != nil {
		t.Fatalf("Remove assignment: %v", err)
	}
	_, err := f.obligations.Create(ctx, domainagg.CreateObligationInput{
		OrganizationID: org.ID, Kind: "team", ProjectID: &p.ID, AssignmentID: &a.ID, TotalAmount: ptrDec("10"),
	})
	if !domainagg.IsCode(err, domainagg.CodeInvalidObligationShape) {
		t.Fatalf("removed assignment: %v", err)
	}

	other := repotest.SeedOrganization(t, ctx, f.db, "EUR")
	_, err = f.obligations.Create(ctx, domainagg.CreateObligationInput{
		OrganizationID: other.ID, Kind: "team", ProjectID: &p.ID, AssignmentID: &a.ID, TotalAmount: ptrDec("10"),
	})
	if !domainagg.IsCode(err, domainagg.CodeCrossTenantReference) {
		t.Fatalf("foreign project: %v", err)
	}
}

func TestObligationDeleteCascadesAndRollsUp(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	ctx := context.Background()
	sibling := repotest.SeedTeamObligation(t, ctx, f.db, s.assignment, "500")

	f.append(t, s, s.obligation.ID, "600", "")
	f.append(t, s, s.obligation.ID, "100", "")
	f.append(t, s, sibling.ID, "200", "")
	if got := f.projectPaid(t, s.project.ID); !got.Equal(dec("900")) {
		t.Fatalf("project before delete=%s", got)
	}

	res, err := f.obligations.Delete(ctx, s.org.ID, s.obligation.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.RemovedEntries != 2 {
		t.Fatalf("removed entries=%d", res.RemovedEntries)
	}
	if res.Totals.Project == nil || !res.Totals.Project.Current.Equal(dec("200")) {
		t.Fatalf("project totals: %+v", res.Totals.Project)
	}
	if got := f.assignmentPaid(t, s.assignment.ID); !got.Equal(dec("200")) {
		t.Fatalf("assignment after delete=%s", got)
	}
	if got := f.projectPaid(t, s.project.ID); !got.Equal(dec("200")) {
		t.Fatalf("project after delete=%s", got)
	}
	if n := f.entryCount(t, s.obligation.ID); n != 0 {
		t.Fatalf("orphan entries=%d", n)
	}
	if _, err := f.obligations.Get(ctx, s.org.ID, s.obligation.ID); !domainagg.IsCode(err, domainagg.CodeObligationNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
	if _, err := f.obligations.Delete(ctx, s.org.ID, s.obligation.ID); !domainagg.IsCode(err, domainagg.CodeObligationNotFound) {
		t.Fatalf("second Delete: %v", err)
	}
	f.assertInvariants(t, s)
}

func TestAssignmentRemoveKeepsTotals(t *testing.T) {
	f := newFinanceFixture(t)
	s := f.seedTeam(t, "1000")
	ctx := context.Background()
	f.append(t, s, s.obligation.ID, "250", "")

	a, err := f.assignments.Remove(ctx, s.org.ID, s.assignment.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if a.Status != types.AssignmentStatusRemoved || a.RemovedAt == nil {
		t.Fatalf("removed assignment: %+v", a)
	}
	again, err := f.assignments.Remove(ctx, s.org.ID, s.assignment.ID)
	if err != nil || again.Status != types.AssignmentStatusRemoved {
		t.Fatalf("second Remove should be a no-op: %+v err=%v", again, err)
	}
	if got := f.assignmentPaid(t, s.assignment.ID); !got.Equal(dec("250")) {
		t.Fatalf("assignment total kept=%s", got)
	}
	// entries against existing obligations are still accepted
	f.append(t, s, s.obligation.ID, "50", "")
	f.assertInvariants(t, s)

	if _, err := f.assignments.Remove(ctx, uuid.New(), s.assignment.ID); !domainagg.IsCode(err, domainagg.CodeCrossTenantReference) {
		t.Fatalf("cross tenant remove: %v", err)
	}
	if _, err := f.assignments.Remove(ctx, s.org.ID, uuid.New()); !domainagg.IsCode(err, domainagg.CodeAssignmentNotFound) {
		t.Fatalf("unknown remove: %v", err)
	}
}

func ptrUUID(v uuid.UUID) *uuid.UUID { return &v }
