package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/agencyledger-backend/internal/authz"
	dataagg "github.com/yungbote/agencyledger-backend/internal/data/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/data/repos"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

type CreateProjectRequest struct {
	Name     string
	ClientID *uuid.UUID
	Budget   *decimal.Decimal
	Status   string
}

// UpdateProjectRequest only touches non-derived columns. ClearBudget wins over Budget.
type UpdateProjectRequest struct {
	Name        *string
	Budget      *decimal.Decimal
	ClearBudget bool
	Status      *string
}

type CreateAssignmentRequest struct {
	MemberID        uuid.UUID
	AllocatedBudget *decimal.Decimal
}

type UpdateAssignmentRequest struct {
	AllocatedBudget      *decimal.Decimal
	ClearAllocatedBudget bool
}

type ProjectService interface {
	CreateProject(ctx context.Context, req CreateProjectRequest) (*ProjectView, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*ProjectView, error)
	ListProjects(ctx context.Context) ([]ProjectView, error)
	UpdateProject(ctx context.Context, projectID uuid.UUID, req UpdateProjectRequest) (*ProjectView, error)

	CreateAssignment(ctx context.Context, projectID uuid.UUID, req CreateAssignmentRequest) (*AssignmentView, error)
	ListAssignments(ctx context.Context, projectID uuid.UUID) ([]AssignmentView, error)
	UpdateAssignment(ctx context.Context, assignmentID uuid.UUID, req UpdateAssignmentRequest) (*AssignmentView, error)
	RemoveAssignment(ctx context.Context, assignmentID uuid.UUID) (*AssignmentView, error)
}

type projectService struct {
	db          *gorm.DB
	log         *logger.Logger
	access      access
	orgs        repos.OrganizationRepo
	projects    repos.ProjectRepo
	assignments repos.AssignmentRepo
	obligations repos.ObligationRepo
	assignAgg   domainagg.AssignmentAggregate
}

func NewProjectService(
	db *gorm.DB,
	log *logger.Logger,
	gate authz.Gate,
	orgs repos.OrganizationRepo,
	projects repos.ProjectRepo,
	assignments repos.AssignmentRepo,
	obligations repos.ObligationRepo,
	assignAgg domainagg.AssignmentAggregate,
) ProjectService {
	serviceLog := log.With("service", "ProjectService")
	return &projectService{
		db:          db,
		log:         serviceLog,
		access:      access{gate: gate, log: serviceLog},
		orgs:        orgs,
		projects:    projects,
		assignments: assignments,
		obligations: obligations,
		assignAgg:   assignAgg,
	}
}

func (s *projectService) CreateProject(ctx context.Context, req CreateProjectRequest) (*ProjectView, error) {
	const op = "ProjectService.CreateProject"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionProjectWrite)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "name is required", nil)
	}
	status, ok := types.NormalizeProjectStatus(req.Status)
	if !ok {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "unknown project status: "+req.Status, nil)
	}
	row := &types.Project{
		OrganizationID: p.OrganizationID,
		ClientID:       req.ClientID,
		Name:           name,
		TotalPaid:      decimal.Zero,
		Status:         status,
	}
	if req.Budget != nil {
		if err := types.ValidateBudget(*req.Budget); err != nil {
			return nil, domainagg.NewError(domainagg.CodeInvalidAmount, op, err.Error(), err)
		}
		row.Budget = decimal.NewNullDecimal(*req.Budget)
	}
	if status == types.ProjectStatusOngoing {
		now := time.Now().UTC()
		row.StartedAt = &now
	}
	if err := s.projects.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		return nil, storeError(op, err)
	}
	v := projectView(row, currencyOf(ctx, s.orgs, p.OrganizationID))
	return &v, nil
}

func (s *projectService) GetProject(ctx context.Context, projectID uuid.UUID) (*ProjectView, error) {
	const op = "ProjectService.GetProject"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionProjectRead)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.loadProject(dbc, op, p.OrganizationID, projectID)
	if err != nil {
		return nil, err
	}
	asgs, err := s.assignments.ListByProject(dbc, row.ID)
	if err != nil {
		return nil, storeError(op, err)
	}
	obls, err := s.obligations.ListByProject(dbc, row.ID)
	if err != nil {
		return nil, storeError(op, err)
	}
	currency := currencyOf(ctx, s.orgs, p.OrganizationID)
	v := projectView(row, currency)
	for _, a := range asgs {
		v.Assignments = append(v.Assignments, assignmentView(a, currency))
	}
	for _, o := range obls {
		v.Obligations = append(v.Obligations, obligationView(o, currency))
	}
	return &v, nil
}

func (s *projectService) ListProjects(ctx context.Context) ([]ProjectView, error) {
	const op = "ProjectService.ListProjects"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionProjectRead)
	if err != nil {
		return nil, err
	}
	rows, err := s.projects.ListByOrganization(dbctx.Context{Ctx: ctx}, p.OrganizationID)
	if err != nil {
		return nil, storeError(op, err)
	}
	currency := currencyOf(ctx, s.orgs, p.OrganizationID)
	out := make([]ProjectView, 0, len(rows))
	for _, row := range rows {
		out = append(out, projectView(row, currency))
	}
	return out, nil
}

func (s *projectService) UpdateProject(ctx context.Context, projectID uuid.UUID, req UpdateProjectRequest) (*ProjectView, error) {
	const op = "ProjectService.UpdateProject"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionProjectWrite)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "name cannot be empty", nil)
		}
		updates["name"] = name
	}
	switch {
	case req.ClearBudget:
		updates["budget"] = nil
	case req.Budget != nil:
		if err := types.ValidateBudget(*req.Budget); err != nil {
			return nil, domainagg.NewError(domainagg.CodeInvalidAmount, op, err.Error(), err)
		}
		updates["budget"] = *req.Budget
	}
	var status string
	if req.Status != nil {
		v, ok := types.NormalizeProjectStatus(*req.Status)
		if !ok || strings.TrimSpace(*req.Status) == "" {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "unknown project status: "+*req.Status, nil)
		}
		status = v
		updates["status"] = v
	}

	var out *types.Project
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.loadProject(dbc, op, p.OrganizationID, projectID); err != nil {
			return err
		}
		row, err := s.projects.LockByID(dbc, projectID)
		if err != nil {
			return err
		}
		if row == nil {
			return projectNotFound(op, projectID)
		}
		now := time.Now().UTC()
		if status == types.ProjectStatusOngoing && row.StartedAt == nil {
			updates["started_at"] = now
		}
		if status == types.ProjectStatusCompleted && row.CompletedAt == nil {
			updates["completed_at"] = now
		}
		if len(updates) > 0 {
			if err := s.projects.UpdateFields(dbc, projectID, updates); err != nil {
				return err
			}
		}
		out, err = s.projects.GetByID(dbc, projectID)
		return err
	})
	if err != nil {
		return nil, storeError(op, err)
	}
	v := projectView(out, currencyOf(ctx, s.orgs, p.OrganizationID))
	return &v, nil
}

func (s *projectService) CreateAssignment(ctx context.Context, projectID uuid.UUID, req CreateAssignmentRequest) (*AssignmentView, error) {
	const op = "ProjectService.CreateAssignment"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionAssignmentWrite)
	if err != nil {
		return nil, err
	}
	if req.MemberID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "member_id is required", nil)
	}
	row := &types.Assignment{
		OrganizationID: p.OrganizationID,
		ProjectID:      projectID,
		MemberID:       req.MemberID,
		TotalPaid:      decimal.Zero,
		Status:         types.AssignmentStatusActive,
	}
	if req.AllocatedBudget != nil {
		if err := types.ValidateBudget(*req.AllocatedBudget); err != nil {
			return nil, domainagg.NewError(domainagg.CodeInvalidAmount, op, err.Error(), err)
		}
		row.AllocatedBudget = decimal.NewNullDecimal(*req.AllocatedBudget)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.loadProject(dbc, op, p.OrganizationID, projectID); err != nil {
			return err
		}
		if _, err := s.projects.LockByID(dbc, projectID); err != nil {
			return err
		}
		return s.assignments.Create(dbc, row)
	})
	if err != nil {
		return nil, storeError(op, err)
	}
	v := assignmentView(row, currencyOf(ctx, s.orgs, p.OrganizationID))
	return &v, nil
}

func (s *projectService) ListAssignments(ctx context.Context, projectID uuid.UUID) ([]AssignmentView, error) {
	const op = "ProjectService.ListAssignments"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionProjectRead)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.loadProject(dbc, op, p.OrganizationID, projectID); err != nil {
		return nil, err
	}
	rows, err := s.assignments.ListByProject(dbc, projectID)
	if err != nil {
		return nil, storeError(op, err)
	}
	currency := currencyOf(ctx, s.orgs, p.OrganizationID)
	out := make([]AssignmentView, 0, len(rows))
	for _, a := range rows {
		out = append(out, assignmentView(a, currency))
	}
	return out, nil
}

func (s *projectService) UpdateAssignment(ctx context.Context, assignmentID uuid.UUID, req UpdateAssignmentRequest) (*AssignmentView, error) {
	const op = "ProjectService.UpdateAssignment"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionAssignmentWrite)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	switch {
	case req.ClearAllocatedBudget:
		updates["allocated_budget"] = nil
	case req.AllocatedBudget != nil:
		if err := types.ValidateBudget(*req.AllocatedBudget); err != nil {
			return nil, domainagg.NewError(domainagg.CodeInvalidAmount, op, err.Error(), err)
		}
		updates["allocated_budget"] = *req.AllocatedBudget
	default:
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "nothing to update", nil)
	}

	var out *types.Assignment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		peek, err := s.assignments.GetByID(dbc, assignmentID)
		if err != nil {
			return err
		}
		if peek == nil {
			return assignmentNotFound(op, assignmentID)
		}
		if peek.OrganizationID != p.OrganizationID {
			return domainagg.NewError(domainagg.CodeCrossTenantReference, op, fmt.Sprintf("assignment %s belongs to another organization", assignmentID), nil)
		}
		if _, err := s.projects.LockByID(dbc, peek.ProjectID); err != nil {
			return err
		}
		if _, err := s.assignments.LockByID(dbc, assignmentID); err != nil {
			return err
		}
		if err := s.assignments.UpdateFields(dbc, assignmentID, updates); err != nil {
			return err
		}
		out, err = s.assignments.GetByID(dbc, assignmentID)
		return err
	})
	if err != nil {
		return nil, storeError(op, err)
	}
	v := assignmentView(out, currencyOf(ctx, s.orgs, p.OrganizationID))
	return &v, nil
}

func (s *projectService) RemoveAssignment(ctx context.Context, assignmentID uuid.UUID) (*AssignmentView, error) {
	const op = "ProjectService.RemoveAssignment"
	p, err := s.access.authorize(ctx, op, uuid.Nil, authz.ActionAssignmentWrite)
	if err != nil {
		return nil, err
	}
	row, err := s.assignAgg.Remove(ctx, p.OrganizationID, assignmentID)
	if err != nil {
		return nil, err
	}
	v := assignmentView(row, currencyOf(ctx, s.orgs, p.OrganizationID))
	return &v, nil
}

func (s *projectService) loadProject(dbc dbctx.Context, op string, organizationID, projectID uuid.UUID) (*types.Project, error) {
	if projectID == uuid.Nil {
		return nil, projectNotFound(op, projectID)
	}
	row, err := s.projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, storeError(op, err)
	}
	if row == nil {
		return nil, projectNotFound(op, projectID)
	}
	if row.OrganizationID != organizationID {
		return nil, domainagg.NewError(domainagg.CodeCrossTenantReference, op, fmt.Sprintf("project %s belongs to another organization", projectID), nil)
	}
	return row, nil
}

func projectNotFound(op string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeProjectNotFound, op, fmt.Sprintf("project not found: %s", id), nil)
}

func assignmentNotFound(op string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeAssignmentNotFound, op, fmt.Sprintf("assignment not found: %s", id), nil)
}

// storeError keeps coded errors and conflicts, everything else from a plain CRUD write is internal.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	mapped := dataagg.MapError(op, err)
	switch domainagg.CodeOf(mapped) {
	case domainagg.CodeAggregationFailed:
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	default:
		return mapped
	}
}
