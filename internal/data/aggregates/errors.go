package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	"gorm.io/gorm"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("aggregate validation")
	// ErrInvariant indicates the stored rows contradict the aggregation tree.
	ErrInvariant = errors.New("aggregate invariant violation")
	// ErrConflict indicates a uniqueness or compare-and-set conflict.
	ErrConflict = errors.New("aggregate conflict")
	// ErrRetryable indicates a transient lock/serialization failure.
	ErrRetryable = errors.New("aggregate retryable")
)

// ValidationError tags an error as validation failure.
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// InvariantError tags an error as invariant violation.
func InvariantError(msg string) error {
	return errors.Join(ErrInvariant, errors.New(strings.TrimSpace(msg)))
}

// ConflictError tags an error as conflict failure.
func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

// RetryableError tags an error as retryable failure.
func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

// MapError maps infrastructure/domain failures into aggregate error codes.
// Anything not recognized is an aggregation failure: the unit was rolled back.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return domainagg.Wrap(domainagg.CodeValidation, op, err)
	case errors.Is(err, ErrInvariant):
		return domainagg.Wrap(domainagg.CodeAggregationFailed, op, err)
	case errors.Is(err, ErrConflict):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case errors.Is(err, ErrRetryable):
		return domainagg.Wrap(domainagg.CodeAggregationTimeout, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeAggregationFailed, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeAggregationTimeout, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return domainagg.Wrap(domainagg.CodeConflict, op, err) // unique_violation
		case "23503":
			return domainagg.Wrap(domainagg.CodeAggregationFailed, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03", "57014":
			return domainagg.Wrap(domainagg.CodeAggregationTimeout, op, err) // serialization/deadlock/lock_not_available/query_canceled
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "already exists"):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "lock not available"):
		return domainagg.Wrap(domainagg.CodeAggregationTimeout, op, err)
	default:
		return domainagg.Wrap(domainagg.CodeAggregationFailed, op, err)
	}
}

func obligationNotFound(op string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeObligationNotFound, op, fmt.Sprintf("obligation not found: %s", id), nil)
}

func entryNotFound(op string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeEntryNotFound, op, fmt.Sprintf("ledger entry not found: %s", id), nil)
}

func crossTenant(op, kind string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeCrossTenantReference, op, fmt.Sprintf("%s %s belongs to another organization", kind, id), nil)
}

func invalidAmount(op string, err error) error {
	return domainagg.NewError(domainagg.CodeInvalidAmount, op, err.Error(), err)
}

func invalidShape(op, msg string) error {
	return domainagg.NewError(domainagg.CodeInvalidObligationShape, op, msg, nil)
}
