package aggregates

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

// StatusTransition describes a lifecycle move of one row, e.g. assignment active -> removed.
type StatusTransition struct {
	Table string
	ID    uuid.UUID
	From  []string
	To    string
	// Set holds extra columns written with the new status.
	Set map[string]any
}

// StatusGuard applies a StatusTransition as a single conditional UPDATE so a concurrent
// writer that already moved the row makes the transition fail instead of overwrite it.
type StatusGuard struct {
	db *gorm.DB
}

func NewStatusGuard(db *gorm.DB) StatusGuard {
	return StatusGuard{db: db}
}

// Apply returns a conflict error when the row is no longer in one of the From states.
func (g StatusGuard) Apply(dbc dbctx.Context, tr StatusTransition) error {
	if dbc.Tx == nil && g.db == nil {
		return ValidationError("missing db transaction context")
	}
	table := strings.TrimSpace(tr.Table)
	if table == "" || tr.ID == uuid.Nil {
		return ValidationError("status transition needs a table and an id")
	}
	if len(tr.From) == 0 || strings.TrimSpace(tr.To) == "" {
		return ValidationError("status transition needs source and target states")
	}

	updates := make(map[string]any, len(tr.Set)+2)
	for k, v := range tr.Set {
		updates[k] = v
	}
	updates["status"] = tr.To
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}

	res := dbc.DB(g.db).Table(table).
		Where("id = ? AND status IN ?", tr.ID, tr.From).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(fmt.Sprintf("%s %s is no longer %s", table, tr.ID, strings.Join(tr.From, "/")))
	}
	return nil
}
