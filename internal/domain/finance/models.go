package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Organization is the tenant boundary. Rows are provisioned elsewhere; this service only
// reads the currency code.
type Organization struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name     string `gorm:"column:name;not null" json:"name"`
	Currency string `gorm:"column:currency;type:char(3);not null" json:"currency"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Organization) TableName() string { return "organization" }

func (o *Organization) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Project carries the budget and the derived total paid across all of its team obligations.
type Project struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	ClientID       *uuid.UUID `gorm:"type:uuid;index" json:"client_id,omitempty"`

	Name   string              `gorm:"column:name;not null" json:"name"`
	Budget decimal.NullDecimal `gorm:"column:budget;type:numeric(14,2)" json:"budget"`

	// Derived. Written only by the aggregation engine.
	TotalPaid decimal.Decimal `gorm:"column:total_paid;type:numeric(14,2);not null;default:0" json:"total_paid"`

	// new|ongoing|completed
	Status string `gorm:"column:status;not null;default:'new';index" json:"status"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Assignment links a team member to a project with an optional budget allocation.
// Removal is logical so historical ledger attribution survives.
type Assignment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	ProjectID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_project_member,priority:1" json:"project_id"`
	MemberID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_project_member,priority:2;index" json:"member_id"`

	AllocatedBudget decimal.NullDecimal `gorm:"column:allocated_budget;type:numeric(14,2)" json:"allocated_budget"`

	// Derived. Written only by the aggregation engine.
	TotalPaid decimal.Decimal `gorm:"column:total_paid;type:numeric(14,2);not null;default:0" json:"total_paid"`

	// active|removed
	Status    string     `gorm:"column:status;not null;default:'active';index" json:"status"`
	RemovedAt *time.Time `json:"removed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Assignment) TableName() string { return "assignment" }

func (a *Assignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Obligation is an amount owed ("expense"). Team obligations hang off a project assignment
// and carry derived payment fields; general obligations are flat costs outside aggregation.
type Obligation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`

	// team|general
	Kind string `gorm:"column:kind;not null;index" json:"kind"`

	ProjectID    *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	AssignmentID *uuid.UUID `gorm:"type:uuid;index" json:"assignment_id,omitempty"`
	MemberID     *uuid.UUID `gorm:"type:uuid;index" json:"member_id,omitempty"`

	Description string `gorm:"column:description" json:"description,omitempty"`

	TotalAmount decimal.NullDecimal `gorm:"column:total_amount;type:numeric(14,2)" json:"total_amount"`

	// Derived (team only). Written only by the aggregation engine.
	PaidAmount    decimal.NullDecimal `gorm:"column:paid_amount;type:numeric(14,2)" json:"paid_amount"`
	PaymentStatus *string             `gorm:"column:payment_status;index" json:"payment_status,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Obligation) TableName() string { return "obligation" }

func (o *Obligation) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *Obligation) IsTeam() bool { return o != nil && o.Kind == ObligationKindTeam }

// Paid returns the stored paid amount, zero when unset.
func (o *Obligation) Paid() decimal.Decimal {
	if o == nil || !o.PaidAmount.Valid {
		return decimal.Zero
	}
	return o.PaidAmount.Decimal
}

// Status returns the stored payment status, empty when unset.
func (o *Obligation) Status() string {
	if o == nil || o.PaymentStatus == nil {
		return ""
	}
	return *o.PaymentStatus
}

// LedgerEntry is one recorded payment against an obligation. Corrections are made by
// updating the amount or deleting the entry, never by negative entries.
type LedgerEntry struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	ObligationID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_entry_obligation_seq,priority:1;index" json:"obligation_id"`

	// Per-obligation audit order, allocated under the obligation row lock.
	Seq int64 `gorm:"column:seq;type:bigint;not null;uniqueIndex:idx_ledger_entry_obligation_seq,priority:2" json:"seq"`

	Amount decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null" json:"amount"`

	// advance|milestone|regular|final (informational)
	Category string    `gorm:"column:category;not null" json:"category"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`

	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (LedgerEntry) TableName() string { return "ledger_entry" }

func (e *LedgerEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model, in dependency order, for migrations.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&Project{},
		&Assignment{},
		&Obligation{},
		&LedgerEntry{},
	}
}
