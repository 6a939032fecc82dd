package finance

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

type AssignmentRepo interface {
	Create(dbc dbctx.Context, row *types.Assignment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assignment, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Assignment, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Assignment, error)
	ListByOrganization(dbc dbctx.Context, organizationID uuid.UUID) ([]*types.Assignment, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetDerivedTotals(dbc dbctx.Context, id uuid.UUID, totalPaid decimal.Decimal) error
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, log *logger.Logger) AssignmentRepo {
	return &assignmentRepo{db: db, log: log.With("repo", "AssignmentRepo")}
}

func (r *assignmentRepo) Create(dbc dbctx.Context, row *types.Assignment) error {
	if row == nil || row.OrganizationID == uuid.Nil || row.ProjectID == uuid.Nil || row.MemberID == uuid.Nil {
		return fmt.Errorf("invalid assignment")
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *assignmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assignment, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	var out types.Assignment
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assignmentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Assignment, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	var out types.Assignment
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assignmentRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Assignment, error) {
	var out []*types.Assignment
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) ListByOrganization(dbc dbctx.Context, organizationID uuid.UUID) ([]*types.Assignment, error) {
	var out []*types.Assignment
	if organizationID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("organization_id = ?", organizationID).
		Order("project_id ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if _, ok := updates["total_paid"]; ok {
		return fmt.Errorf("%w: total_paid", ErrDerivedField)
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).
		Model(&types.Assignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *assignmentRepo) SetDerivedTotals(dbc dbctx.Context, id uuid.UUID, totalPaid decimal.Decimal) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.DB(r.db).
		Model(&types.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_paid": totalPaid,
			"updated_at": time.Now().UTC(),
		}).Error
}
