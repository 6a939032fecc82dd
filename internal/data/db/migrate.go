package db

import (
	"fmt"

	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.All()...); err != nil {
		return err
	}
	return EnsureFinanceIndexes(db)
}

// EnsureFinanceIndexes adds the partial indexes the rollup queries use. The statements are
// valid on both Postgres and SQLite.
func EnsureFinanceIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_obligation_team_assignment", `
			CREATE INDEX IF NOT EXISTS idx_obligation_team_assignment
			ON obligation (assignment_id)
			WHERE kind = 'team';`},
		{"idx_obligation_team_project", `
			CREATE INDEX IF NOT EXISTS idx_obligation_team_project
			ON obligation (project_id)
			WHERE kind = 'team';`},
		{"idx_ledger_entry_obligation_recorded", `
			CREATE INDEX IF NOT EXISTS idx_ledger_entry_obligation_recorded
			ON ledger_entry (obligation_id, recorded_at, seq);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
