package finance

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

type OrganizationRepo interface {
	Create(dbc dbctx.Context, row *types.Organization) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error)
}

type organizationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrganizationRepo(db *gorm.DB, log *logger.Logger) OrganizationRepo {
	return &organizationRepo{db: db, log: log.With("repo", "OrganizationRepo")}
}

func (r *organizationRepo) Create(dbc dbctx.Context, row *types.Organization) error {
	if row == nil {
		return fmt.Errorf("invalid organization")
	}
	code, err := types.ValidateCurrency(row.Currency)
	if err != nil {
		return err
	}
	row.Currency = code
	return dbc.DB(r.db).Create(row).Error
}

func (r *organizationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	var out types.Organization
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
