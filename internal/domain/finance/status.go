package finance

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ProjectStatusNew       = "new"
	ProjectStatusOngoing   = "ongoing"
	ProjectStatusCompleted = "completed"

	AssignmentStatusActive  = "active"
	AssignmentStatusRemoved = "removed"

	ObligationKindTeam    = "team"
	ObligationKindGeneral = "general"

	PaymentStatusPending   = "pending"
	PaymentStatusPartial   = "partial"
	PaymentStatusCompleted = "completed"

	CategoryAdvance   = "advance"
	CategoryMilestone = "milestone"
	CategoryRegular   = "regular"
	CategoryFinal     = "final"
)

// DerivePaymentStatus is the only source of payment_status.
// paid == 0 is pending; paid >= total is completed (the boundary counts as completed);
// anything in between is partial. Status follows paid down as well as up.
func DerivePaymentStatus(paid, total decimal.Decimal) string {
	switch {
	case paid.Sign() <= 0:
		return PaymentStatusPending
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusCompleted
	default:
		return PaymentStatusPartial
	}
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// NormalizeCategory defaults an empty category to regular.
func NormalizeCategory(s string) (string, bool) {
	switch v := normalize(s); v {
	case "":
		return CategoryRegular, true
	case CategoryAdvance, CategoryMilestone, CategoryRegular, CategoryFinal:
		return v, true
	default:
		return "", false
	}
}

func NormalizeObligationKind(s string) (string, bool) {
	switch v := normalize(s); v {
	case ObligationKindTeam, ObligationKindGeneral:
		return v, true
	default:
		return "", false
	}
}

// NormalizeProjectStatus defaults an empty status to new.
func NormalizeProjectStatus(s string) (string, bool) {
	switch v := normalize(s); v {
	case "":
		return ProjectStatusNew, true
	case ProjectStatusNew, ProjectStatusOngoing, ProjectStatusCompleted:
		return v, true
	default:
		return "", false
	}
}
