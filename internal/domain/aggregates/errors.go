package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes aggregate failure semantics across the ledger engine.
type ErrorCode string

const (
	CodeInvalidAmount          ErrorCode = "invalid_amount"
	CodeEntryNotFound          ErrorCode = "entry_not_found"
	CodeObligationNotFound     ErrorCode = "obligation_not_found"
	CodeProjectNotFound        ErrorCode = "project_not_found"
	CodeAssignmentNotFound     ErrorCode = "assignment_not_found"
	CodeInvalidObligationShape ErrorCode = "invalid_obligation_shape"
	CodeCrossTenantReference   ErrorCode = "cross_tenant_reference"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeAggregationFailed      ErrorCode = "aggregation_failed"
	CodeAggregationTimeout     ErrorCode = "aggregation_timeout"
	CodeValidation             ErrorCode = "validation"
	CodeConflict               ErrorCode = "conflict"
	CodeInternal               ErrorCode = "internal"
)

// Error is the canonical aggregate error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// IsRetryable reports whether the caller may retry the whole operation unchanged.
func IsRetryable(err error) bool {
	return IsCode(err, CodeAggregationTimeout)
}

// IsNotFound reports whether err is one of the *_not_found codes.
func IsNotFound(err error) bool {
	switch CodeOf(err) {
	case CodeEntryNotFound, CodeObligationNotFound, CodeProjectNotFound, CodeAssignmentNotFound:
		return true
	default:
		return false
	}
}
