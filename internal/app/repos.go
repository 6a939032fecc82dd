package app

import (
	"gorm.io/gorm"

	dataagg "github.com/yungbote/agencyledger-backend/internal/data/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/data/repos"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

type Repos struct {
	Organization repos.OrganizationRepo
	Project      repos.ProjectRepo
	Assignment   repos.AssignmentRepo
	Obligation   repos.ObligationRepo
	LedgerEntry  repos.LedgerEntryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Organization: repos.NewOrganizationRepo(db, log),
		Project:      repos.NewProjectRepo(db, log),
		Assignment:   repos.NewAssignmentRepo(db, log),
		Obligation:   repos.NewObligationRepo(db, log),
		LedgerEntry:  repos.NewLedgerEntryRepo(db, log),
	}
}

// finance narrows the repo set to what the aggregation engine reads and writes.
func (r Repos) finance() dataagg.FinanceRepos {
	return dataagg.FinanceRepos{
		Projects:    r.Project,
		Assignments: r.Assignment,
		Obligations: r.Obligation,
		Entries:     r.LedgerEntry,
	}
}
