package repos

import (
	"github.com/yungbote/agencyledger-backend/internal/data/repos/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

type OrganizationRepo = finance.OrganizationRepo
type ProjectRepo = finance.ProjectRepo
type AssignmentRepo = finance.AssignmentRepo
type ObligationRepo = finance.ObligationRepo
type LedgerEntryRepo = finance.LedgerEntryRepo

func NewOrganizationRepo(db *gorm.DB, baseLog *logger.Logger) OrganizationRepo {
	return finance.NewOrganizationRepo(db, baseLog)
}
func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return finance.NewProjectRepo(db, baseLog)
}
func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return finance.NewAssignmentRepo(db, baseLog)
}
func NewObligationRepo(db *gorm.DB, baseLog *logger.Logger) ObligationRepo {
	return finance.NewObligationRepo(db, baseLog)
}
func NewLedgerEntryRepo(db *gorm.DB, baseLog *logger.Logger) LedgerEntryRepo {
	return finance.NewLedgerEntryRepo(db, baseLog)
}
