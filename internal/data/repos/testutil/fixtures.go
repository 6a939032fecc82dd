package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
)

func SeedOrganization(tb testing.TB, ctx context.Context, tx *gorm.DB, currency string) *types.Organization {
	tb.Helper()
	o := &types.Organization{
		ID:       uuid.New(),
		Name:     "agency",
		Currency: currency,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed organization: %v", err)
	}
	return o
}

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, budget string) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           "project",
		TotalPaid:      decimal.Zero,
		Status:         types.ProjectStatusOngoing,
	}
	if budget != "" {
		p.Budget = decimal.NewNullDecimal(decimal.RequireFromString(budget))
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, p *types.Project, allocated string) *types.Assignment {
	tb.Helper()
	a := &types.Assignment{
		ID:             uuid.New(),
		OrganizationID: p.OrganizationID,
		ProjectID:      p.ID,
		MemberID:       uuid.New(),
		TotalPaid:      decimal.Zero,
		Status:         types.AssignmentStatusActive,
	}
	if allocated != "" {
		a.AllocatedBudget = decimal.NewNullDecimal(decimal.RequireFromString(allocated))
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func SeedTeamObligation(tb testing.TB, ctx context.Context, tx *gorm.DB, a *types.Assignment, total string) *types.Obligation {
	tb.Helper()
	pending := types.PaymentStatusPending
	o := &types.Obligation{
		ID:             uuid.New(),
		OrganizationID: a.OrganizationID,
		Kind:           types.ObligationKindTeam,
		ProjectID:      PtrUUID(a.ProjectID),
		AssignmentID:   PtrUUID(a.ID),
		MemberID:       PtrUUID(a.MemberID),
		TotalAmount:    decimal.NewNullDecimal(decimal.RequireFromString(total)),
		PaidAmount:     decimal.NewNullDecimal(decimal.Zero),
		PaymentStatus:  &pending,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed team obligation: %v", err)
	}
	return o
}

func SeedGeneralObligation(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID) *types.Obligation {
	tb.Helper()
	o := &types.Obligation{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Kind:           types.ObligationKindGeneral,
		Description:    "software licences",
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed general obligation: %v", err)
	}
	return o
}

// SeedEntry writes a ledger row directly, without any recompute.
func SeedEntry(tb testing.TB, ctx context.Context, tx *gorm.DB, o *types.Obligation, seq int64, amount string) *types.LedgerEntry {
	tb.Helper()
	e := &types.LedgerEntry{
		ID:             uuid.New(),
		OrganizationID: o.OrganizationID,
		ObligationID:   o.ID,
		Seq:            seq,
		Amount:         decimal.RequireFromString(amount),
		Category:       types.CategoryRegular,
		AuthorID:       uuid.New(),
		RecordedAt:     time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed ledger entry: %v", err)
	}
	return e
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
