package aggregates

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

type LedgerAggregateDeps struct {
	Base  BaseDeps
	Repos FinanceRepos
}

type ledgerAggregate struct {
	deps   LedgerAggregateDeps
	engine cascade
}

func NewLedgerAggregate(deps LedgerAggregateDeps) domainagg.LedgerAggregate {
	deps.Base = deps.Base.withDefaults()
	return &ledgerAggregate{deps: deps, engine: cascade{repos: deps.Repos}}
}

func (a *ledgerAggregate) Contract() domainagg.Contract {
	return domainagg.LedgerAggregateContract
}

func (a *ledgerAggregate) Append(ctx context.Context, in domainagg.AppendEntryInput) (domainagg.EntryMutationResult, error) {
	const op = "Finance.Ledger.Append"
	var out domainagg.EntryMutationResult
	if in.OrganizationID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id", nil)
	}
	if in.ObligationID == uuid.Nil {
		return out, obligationNotFound(op, in.ObligationID)
	}
	if in.AuthorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing author_id", nil)
	}
	if err := types.ValidateAmount(in.Amount); err != nil {
		return out, invalidAmount(op, err)
	}
	category, ok := types.NormalizeCategory(in.Category)
	if !ok {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "unknown category: "+strings.TrimSpace(in.Category), nil)
	}
	var meta datatypes.JSON
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return out, domainagg.NewError(domainagg.CodeValidation, op, "metadata is not valid json", err)
		}
		meta = datatypes.JSON(raw)
	}
	if !a.deps.Repos.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "ledger aggregate repos not configured", nil)
	}
	recordedAt := in.RecordedAt.UTC()
	if in.RecordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ch, err := a.engine.lockChain(dbc, op, in.OrganizationID, in.ObligationID)
		if err != nil {
			return err
		}
		seq, err := a.deps.Repos.Entries.NextSeq(dbc, ch.obligation.ID)
		if err != nil {
			return err
		}
		entry := &types.LedgerEntry{
			OrganizationID: in.OrganizationID,
			ObligationID:   ch.obligation.ID,
			Seq:            seq,
			Amount:         in.Amount,
			Category:       category,
			AuthorID:       in.AuthorID,
			Metadata:       meta,
			RecordedAt:     recordedAt,
		}
		if err := a.deps.Repos.Entries.Create(dbc, entry); err != nil {
			return err
		}
		totals, err := a.engine.recompute(dbc, ch)
		if err != nil {
			return err
		}
		out = domainagg.EntryMutationResult{Entry: entry, Totals: totals}
		return nil
	})
	if err != nil {
		return domainagg.EntryMutationResult{}, err
	}
	return out, nil
}

func (a *ledgerAggregate) UpdateAmount(ctx context.Context, in domainagg.UpdateEntryInput) (domainagg.EntryMutationResult, error) {
	const op = "Finance.Ledger.UpdateAmount"
	var out domainagg.EntryMutationResult
	if in.OrganizationID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id", nil)
	}
	if in.EntryID == uuid.Nil {
		return out, entryNotFound(op, in.EntryID)
	}
	if err := types.ValidateAmount(in.Amount); err != nil {
		return out, invalidAmount(op, err)
	}
	if !a.deps.Repos.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "ledger aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		entry, ch, err := a.lockEntry(dbc, op, in.OrganizationID, in.EntryID)
		if err != nil {
			return err
		}
		if err := a.deps.Repos.Entries.UpdateAmount(dbc, entry.ID, in.Amount); err != nil {
			return err
		}
		entry.Amount = in.Amount
		totals, err := a.engine.recompute(dbc, ch)
		if err != nil {
			return err
		}
		out = domainagg.EntryMutationResult{Entry: entry, Totals: totals}
		return nil
	})
	if err != nil {
		return domainagg.EntryMutationResult{}, err
	}
	return out, nil
}

func (a *ledgerAggregate) Remove(ctx context.Context, in domainagg.RemoveEntryInput) (domainagg.EntryMutationResult, error) {
	const op = "Finance.Ledger.Remove"
	var out domainagg.EntryMutationResult
	if in.OrganizationID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id", nil)
	}
	if in.EntryID == uuid.Nil {
		return out, entryNotFound(op, in.EntryID)
	}
	if !a.deps.Repos.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "ledger aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		entry, ch, err := a.lockEntry(dbc, op, in.OrganizationID, in.EntryID)
		if err != nil {
			return err
		}
		if err := a.deps.Repos.Entries.Delete(dbc, entry.ID); err != nil {
			return err
		}
		totals, err := a.engine.recompute(dbc, ch)
		if err != nil {
			return err
		}
		out = domainagg.EntryMutationResult{Entry: entry, Totals: totals}
		return nil
	})
	if err != nil {
		return domainagg.EntryMutationResult{}, err
	}
	return out, nil
}

func (a *ledgerAggregate) ListByObligation(ctx context.Context, organizationID, obligationID uuid.UUID) ([]*types.LedgerEntry, error) {
	const op = "Finance.Ledger.ListByObligation"
	if obligationID == uuid.Nil {
		return nil, obligationNotFound(op, obligationID)
	}
	if !a.deps.Repos.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "ledger aggregate repos not configured", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	o, err := a.deps.Repos.Obligations.GetByID(dbc, obligationID)
	if err != nil {
		return nil, MapError(op, err)
	}
	if o == nil {
		return nil, obligationNotFound(op, obligationID)
	}
	if o.OrganizationID != organizationID {
		return nil, crossTenant(op, "obligation", obligationID)
	}
	rows, err := a.deps.Repos.Entries.ListByObligation(dbc, obligationID)
	if err != nil {
		return nil, MapError(op, err)
	}
	return rows, nil
}

// lockEntry locks the chain above an entry and re-reads the entry under the obligation lock.
func (a *ledgerAggregate) lockEntry(dbc dbctx.Context, op string, organizationID, entryID uuid.UUID) (*types.LedgerEntry, *lockedChain, error) {
	peek, err := a.deps.Repos.Entries.GetByID(dbc, entryID)
	if err != nil {
		return nil, nil, err
	}
	if peek == nil {
		return nil, nil, entryNotFound(op, entryID)
	}
	if peek.OrganizationID != organizationID {
		return nil, nil, crossTenant(op, "ledger entry", entryID)
	}
	ch, err := a.engine.lockChain(dbc, op, organizationID, peek.ObligationID)
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeObligationNotFound) {
			return nil, nil, entryNotFound(op, entryID)
		}
		return nil, nil, err
	}
	entry, err := a.deps.Repos.Entries.GetByID(dbc, entryID)
	if err != nil {
		return nil, nil, err
	}
	if entry == nil {
		return nil, nil, entryNotFound(op, entryID)
	}
	return entry, ch, nil
}
