package aggregates

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

const defaultReconcileConcurrency = 4

type ReconcilerDeps struct {
	Base        BaseDeps
	Repos       FinanceRepos
	Concurrency int
}

type reconciler struct {
	deps   ReconcilerDeps
	engine cascade
}

func NewReconciler(deps ReconcilerDeps) domainagg.Reconciler {
	deps.Base = deps.Base.withDefaults()
	if deps.Concurrency <= 0 {
		deps.Concurrency = defaultReconcileConcurrency
	}
	return &reconciler{deps: deps, engine: cascade{repos: deps.Repos}}
}

func (r *reconciler) Contract() domainagg.Contract {
	return domainagg.ReconcileContract
}

// repairTally collects distinct repaired ids per level across concurrent workers.
type repairTally struct {
	mu          sync.Mutex
	obligations map[uuid.UUID]struct{}
	assignments map[uuid.UUID]struct{}
	projects    map[uuid.UUID]struct{}
	checked     int
}

func newRepairTally() *repairTally {
	return &repairTally{
		obligations: map[uuid.UUID]struct{}{},
		assignments: map[uuid.UUID]struct{}{},
		projects:    map[uuid.UUID]struct{}{},
	}
}

func (t *repairTally) add(totals domainagg.CascadeTotals) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if totals.Obligation.Changed() {
		t.obligations[totals.Obligation.ID] = struct{}{}
	}
	if totals.Assignment.Changed() {
		t.assignments[totals.Assignment.ID] = struct{}{}
	}
	if totals.Project.Changed() {
		t.projects[totals.Project.ID] = struct{}{}
	}
}

func (t *repairTally) check() {
	t.mu.Lock()
	t.checked++
	t.mu.Unlock()
}

// ReconcileAll recomputes every team obligation in its own transaction, then every
// assignment and project of the organization.
func (r *reconciler) ReconcileAll(ctx context.Context, organizationID uuid.UUID) (domainagg.ReconcileReport, error) {
	const op = "Finance.Reconcile.All"
	report := domainagg.ReconcileReport{OrganizationID: organizationID, StartedAt: time.Now().UTC()}
	if organizationID == uuid.Nil {
		return report, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id", nil)
	}
	if !r.deps.Repos.configured() {
		return report, domainagg.NewError(domainagg.CodeInternal, op, "reconciler repos not configured", nil)
	}
	log := r.deps.Base.Log.With("op", op, "organization_id", organizationID.String())
	read := dbctx.Context{Ctx: ctx}

	obligations, err := r.deps.Repos.Obligations.ListTeamByOrganization(read, organizationID)
	if err != nil {
		return report, MapError(op, err)
	}
	tally := newRepairTally()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.deps.Concurrency)
	for _, o := range obligations {
		obligationID := o.ID
		g.Go(func() error {
			totals, err := r.reconcileObligation(gctx, organizationID, obligationID)
			if domainagg.IsCode(err, domainagg.CodeObligationNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			tally.check()
			tally.add(totals)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.ObligationsChecked = tally.checked

	assignments, err := r.deps.Repos.Assignments.ListByOrganization(read, organizationID)
	if err != nil {
		return report, MapError(op, err)
	}
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(r.deps.Concurrency)
	for _, a := range assignments {
		asg := a
		g.Go(func() error {
			lt, err := r.reconcileAssignment(gctx, asg.ProjectID, asg.ID)
			if err != nil {
				return err
			}
			tally.add(domainagg.CascadeTotals{Assignment: lt})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.AssignmentsChecked = len(assignments)

	projects, err := r.deps.Repos.Projects.ListByOrganization(read, organizationID)
	if err != nil {
		return report, MapError(op, err)
	}
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(r.deps.Concurrency)
	for _, p := range projects {
		projectID := p.ID
		g.Go(func() error {
			lt, err := r.reconcileProject(gctx, projectID)
			if err != nil {
				return err
			}
			tally.add(domainagg.CascadeTotals{Project: lt})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.ProjectsChecked = len(projects)

	report.ObligationsRepaired = len(tally.obligations)
	report.AssignmentsRepaired = len(tally.assignments)
	report.ProjectsRepaired = len(tally.projects)
	report.FinishedAt = time.Now().UTC()

	r.deps.Base.Hooks.AddRepaired("obligation", report.ObligationsRepaired)
	r.deps.Base.Hooks.AddRepaired("assignment", report.AssignmentsRepaired)
	r.deps.Base.Hooks.AddRepaired("project", report.ProjectsRepaired)
	if report.Repaired() > 0 {
		log.Warn("reconcile repaired drift",
			"obligations", report.ObligationsRepaired,
			"assignments", report.AssignmentsRepaired,
			"projects", report.ProjectsRepaired,
		)
	} else {
		log.Info("reconcile clean", "obligations_checked", report.ObligationsChecked)
	}
	return report, nil
}

func (r *reconciler) reconcileObligation(ctx context.Context, organizationID, obligationID uuid.UUID) (domainagg.CascadeTotals, error) {
	const op = "Finance.Reconcile.Obligation"
	var out domainagg.CascadeTotals
	err := executeWrite(ctx, r.deps.Base, op, func(dbc dbctx.Context) error {
		ch, err := r.engine.lockChain(dbc, op, organizationID, obligationID)
		if err != nil {
			return err
		}
		out, err = r.engine.recompute(dbc, ch)
		return err
	})
	return out, err
}

func (r *reconciler) reconcileAssignment(ctx context.Context, projectID, assignmentID uuid.UUID) (*domainagg.LevelTotal, error) {
	const op = "Finance.Reconcile.Assignment"
	var out *domainagg.LevelTotal
	err := executeWrite(ctx, r.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := r.deps.Repos.Projects.LockByID(dbc, projectID); err != nil {
			return err
		}
		a, err := r.deps.Repos.Assignments.LockByID(dbc, assignmentID)
		if err != nil || a == nil {
			return err
		}
		out, err = r.engine.rollupAssignment(dbc, a)
		return err
	})
	return out, err
}

func (r *reconciler) reconcileProject(ctx context.Context, projectID uuid.UUID) (*domainagg.LevelTotal, error) {
	const op = "Finance.Reconcile.Project"
	var out *domainagg.LevelTotal
	err := executeWrite(ctx, r.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := r.deps.Repos.Projects.LockByID(dbc, projectID)
		if err != nil || p == nil {
			return err
		}
		out, err = r.engine.rollupProject(dbc, p)
		return err
	})
	return out, err
}
