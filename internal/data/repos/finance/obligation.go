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

type ObligationRepo interface {
	Create(dbc dbctx.Context, row *types.Obligation) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Obligation, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Obligation, error)
	ListTeamByOrganization(dbc dbctx.Context, organizationID uuid.UUID) ([]*types.Obligation, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Obligation, error)
	// ListPaidByAssignment / ListPaidByProject return paid_amount of every team obligation
	// under the parent. Summing happens in the caller.
	ListPaidByAssignment(dbc dbctx.Context, assignmentID uuid.UUID) ([]decimal.NullDecimal, error)
	ListPaidByProject(dbc dbctx.Context, projectID uuid.UUID) ([]decimal.NullDecimal, error)
	SetDerived(dbc dbctx.Context, id uuid.UUID, paid decimal.Decimal, status string) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type obligationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewObligationRepo(db *gorm.DB, log *logger.Logger) ObligationRepo {
	return &obligationRepo{db: db, log: log.With("repo", "ObligationRepo")}
}

func (r *obligationRepo) Create(dbc dbctx.Context, row *types.Obligation) error {
	if row == nil || row.OrganizationID == uuid.Nil || row.Kind == "" {
		return fmt.Errorf("invalid obligation")
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *obligationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Obligation, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	var out types.Obligation
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *obligationRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Obligation, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	var out types.Obligation
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

func (r *obligationRepo) ListTeamByOrganization(dbc dbctx.Context, organizationID uuid.UUID) ([]*types.Obligation, error) {
	var out []*types.Obligation
	if organizationID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("organization_id = ? AND kind = ?", organizationID, types.ObligationKindTeam).
		Order("project_id ASC, assignment_id ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *obligationRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Obligation, error) {
	var out []*types.Obligation
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

func (r *obligationRepo) ListPaidByAssignment(dbc dbctx.Context, assignmentID uuid.UUID) ([]decimal.NullDecimal, error) {
	var out []decimal.NullDecimal
	if assignmentID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.Obligation{}).
		Where("assignment_id = ? AND kind = ?", assignmentID, types.ObligationKindTeam).
		Pluck("paid_amount", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *obligationRepo) ListPaidByProject(dbc dbctx.Context, projectID uuid.UUID) ([]decimal.NullDecimal, error) {
	var out []decimal.NullDecimal
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.Obligation{}).
		Where("project_id = ? AND kind = ?", projectID, types.ObligationKindTeam).
		Pluck("paid_amount", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *obligationRepo) SetDerived(dbc dbctx.Context, id uuid.UUID, paid decimal.Decimal, status string) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.DB(r.db).
		Model(&types.Obligation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"paid_amount":    paid,
			"payment_status": status,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *obligationRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Obligation{}).Error
}
