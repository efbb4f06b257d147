package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/reconcile"
	"github.com/roach88/extvars/internal/registry"
)

// Error is the single error type returned across the engine boundary.
//
// Error wraps the underlying cause, so both errors.Is against registry and
// host sentinels and the IsXxx helpers below work on the same value.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ID is the variable involved, when there is one.
	ID ir.VarID

	// Category is the category involved, when there is one.
	Category ir.Category

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeDuplicateName indicates a case-insensitive name collision.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeEmptyName indicates a blank name.
	ErrCodeEmptyName ErrorCode = "EMPTY_NAME"

	// ErrCodeUnknownCategory indicates a tag outside the catalog.
	ErrCodeUnknownCategory ErrorCode = "UNKNOWN_CATEGORY"

	// ErrCodeNotFound indicates an unknown variable id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeCapacityExceeded indicates the category is full.
	ErrCodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodeHostUnavailable indicates the host store or graph is missing or broken.
	ErrCodeHostUnavailable ErrorCode = "HOST_UNAVAILABLE"

	// ErrCodePartialReconciliation indicates some records were not pushed.
	ErrCodePartialReconciliation ErrorCode = "PARTIAL_RECONCILIATION"

	// ErrCodeInvalidRecord indicates a record that cannot enter the shadow
	// registry (duplicate or missing id), typically from replay or import.
	ErrCodeInvalidRecord ErrorCode = "INVALID_RECORD"

	// ErrCodePersistence indicates the persister failed.
	ErrCodePersistence ErrorCode = "PERSISTENCE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, e.Message, e.ID)
	}
	if e.Category != "" {
		return fmt.Sprintf("%s: %s (category=%s)", e.Code, e.Message, e.Category)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsDuplicateName reports whether err is a duplicate name error.
func IsDuplicateName(err error) bool { return hasCode(err, ErrCodeDuplicateName) }

// IsEmptyName reports whether err is an empty name error.
func IsEmptyName(err error) bool { return hasCode(err, ErrCodeEmptyName) }

// IsUnknownCategory reports whether err is an unknown category error.
func IsUnknownCategory(err error) bool { return hasCode(err, ErrCodeUnknownCategory) }

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsCapacityExceeded reports whether err is a capacity error.
func IsCapacityExceeded(err error) bool { return hasCode(err, ErrCodeCapacityExceeded) }

// IsHostUnavailable reports whether err is a host availability error.
// Matches both *Error with ErrCodeHostUnavailable and a bare host.ErrUnavailable.
func IsHostUnavailable(err error) bool {
	return hasCode(err, ErrCodeHostUnavailable) || errors.Is(err, host.ErrUnavailable)
}

// IsPartialReconciliation reports whether err is a partial reconciliation
// error. Matches both *Error and a bare *reconcile.PartialReconciliationError.
func IsPartialReconciliation(err error) bool {
	if hasCode(err, ErrCodePartialReconciliation) {
		return true
	}
	var pe *reconcile.PartialReconciliationError
	return errors.As(err, &pe)
}

// classify converts an error from a lower layer into an *Error.
// Returns nil for nil.
func classify(err error, id ir.VarID, category ir.Category) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	out := &Error{Message: err.Error(), ID: id, Category: category, Err: err}
	var pe *reconcile.PartialReconciliationError
	switch {
	case errors.Is(err, registry.ErrDuplicateName):
		out.Code = ErrCodeDuplicateName
	case errors.Is(err, registry.ErrEmptyName):
		out.Code = ErrCodeEmptyName
	case errors.Is(err, registry.ErrUnknownCategory):
		out.Code = ErrCodeUnknownCategory
	case errors.Is(err, registry.ErrNotFound):
		out.Code = ErrCodeNotFound
	case errors.Is(err, registry.ErrCapacity):
		out.Code = ErrCodeCapacityExceeded
	case errors.Is(err, host.ErrUnavailable):
		out.Code = ErrCodeHostUnavailable
	case errors.As(err, &pe):
		out.Code = ErrCodePartialReconciliation
	default:
		out.Code = ErrCodeInvalidRecord
	}
	return out
}

// persistenceError wraps a persister failure.
func persistenceError(op string, err error) *Error {
	return &Error{
		Code:    ErrCodePersistence,
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     err,
	}
}

// newNotFound creates an *Error for an unknown id.
func newNotFound(id ir.VarID) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "variable not found",
		ID:      id,
		Err:     registry.ErrNotFound,
	}
}

// hostPanic converts a recovered host panic into an *Error.
func hostPanic(op string, r any) *Error {
	return &Error{
		Code:    ErrCodeHostUnavailable,
		Message: fmt.Sprintf("%s: host panicked: %v", op, r),
		Err:     host.ErrUnavailable,
	}
}
