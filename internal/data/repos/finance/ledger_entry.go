package finance

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

type LedgerEntryRepo interface {
	Create(dbc dbctx.Context, row *types.LedgerEntry) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LedgerEntry, error)
	ListByObligation(dbc dbctx.Context, obligationID uuid.UUID) ([]*types.LedgerEntry, error)
	ListAmountsByObligation(dbc dbctx.Context, obligationID uuid.UUID) ([]decimal.Decimal, error)
	// NextSeq must be called while the obligation row is locked.
	NextSeq(dbc dbctx.Context, obligationID uuid.UUID) (int64, error)
	UpdateAmount(dbc dbctx.Context, id uuid.UUID, amount decimal.Decimal) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByObligation(dbc dbctx.Context, obligationID uuid.UUID) (int64, error)
}

type ledgerEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerEntryRepo(db *gorm.DB, log *logger.Logger) LedgerEntryRepo {
	return &ledgerEntryRepo{db: db, log: log.With("repo", "LedgerEntryRepo")}
}

func (r *ledgerEntryRepo) Create(dbc dbctx.Context, row *types.LedgerEntry) error {
	if row == nil || row.OrganizationID == uuid.Nil || row.ObligationID == uuid.Nil {
		return fmt.Errorf("invalid ledger entry")
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *ledgerEntryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LedgerEntry, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	var out types.LedgerEntry
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ledgerEntryRepo) ListByObligation(dbc dbctx.Context, obligationID uuid.UUID) ([]*types.LedgerEntry, error) {
	var out []*types.LedgerEntry
	if obligationID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("obligation_id = ?", obligationID).
		Order("recorded_at ASC, seq ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ledgerEntryRepo) ListAmountsByObligation(dbc dbctx.Context, obligationID uuid.UUID) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	if obligationID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.LedgerEntry{}).
		Where("obligation_id = ?", obligationID).
		Pluck("amount", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ledgerEntryRepo) NextSeq(dbc dbctx.Context, obligationID uuid.UUID) (int64, error) {
	if obligationID == uuid.Nil {
		return 0, fmt.Errorf("missing obligation id")
	}
	var max int64
	if err := dbc.DB(r.db).
		Model(&types.LedgerEntry{}).
		Where("obligation_id = ?", obligationID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *ledgerEntryRepo) UpdateAmount(dbc dbctx.Context, id uuid.UUID, amount decimal.Decimal) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.DB(r.db).
		Model(&types.LedgerEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount":     amount,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *ledgerEntryRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.LedgerEntry{}).Error
}

func (r *ledgerEntryRepo) DeleteByObligation(dbc dbctx.Context, obligationID uuid.UUID) (int64, error) {
	if obligationID == uuid.Nil {
		return 0, fmt.Errorf("missing obligation id")
	}
	res := dbc.DB(r.db).Where("obligation_id = ?", obligationID).Delete(&types.LedgerEntry{})
	return res.RowsAffected, res.Error
}
