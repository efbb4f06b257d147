package registry

import (
	"errors"
	"fmt"

	"github.com/roach88/extvars/internal/ir"
)

// Sentinel errors returned (wrapped) by Store operations.
var (
	ErrDuplicateName   = errors.New("duplicate name")
	ErrEmptyName       = errors.New("empty name")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNotFound        = errors.New("variable not found")
	ErrCapacity        = errors.New("category is full")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrMissingID       = errors.New("missing id")
)

// DuplicateNameError reports a case-insensitive name collision in a category.
type DuplicateNameError struct {
	Category ir.Category
	Name     string
	Existing ir.VarID
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate name %q in category %s (already used by %s)", e.Name, e.Category, e.Existing)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// CapacityError reports that a category reached its record limit.
type CapacityError struct {
	Category ir.Category
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("category %s is full (limit %d)", e.Category, e.Limit)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }
