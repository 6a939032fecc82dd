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

// ErrDerivedField is returned when a CRUD update tries to write an engine-owned column.
var ErrDerivedField = errors.New("derived field is not writable")

type ProjectRepo interface {
	Create(dbc dbctx.Context, row *types.Project) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	ListByOrganization(dbc dbctx.Context, organizationID uuid.UUID) ([]*types.Project, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetDerivedTotals(dbc dbctx.Context, id uuid.UUID, totalPaid decimal.Decimal) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, log *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: log.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, row *types.Project) error {
	if row == nil || row.OrganizationID == uuid.Nil {
		return fmt.Errorf("invalid project")
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	var out types.Project
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *projectRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	var out types.Project
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

func (r *projectRepo) ListByOrganization(dbc dbctx.Context, organizationID uuid.UUID) ([]*types.Project, error) {
	var out []*types.Project
	if organizationID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("organization_id = ?", organizationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *projectRepo) SetDerivedTotals(dbc dbctx.Context, id uuid.UUID, totalPaid decimal.Decimal) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.DB(r.db).
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_paid": totalPaid,
			"updated_at": time.Now().UTC(),
		}).Error
}
