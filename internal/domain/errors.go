package domain

import (
	"errors"
	"fmt"

	"github.com/mtlprog/fundbook/internal/money"
)

var (
	// ErrNotFound indicates that a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateSnapshotDate is returned when a snapshot already exists for the date
	// and duplicate dates are rejected.
	ErrDuplicateSnapshotDate = errors.New("snapshot already exists for date")
)

// NotFoundError names the missing record. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound builds a NotFoundError for the given entity and identifier.
func NewNotFound(entity string, id fmt.Stringer) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// ArithmeticError is a failed money operation: division by zero or an invalid rounding mode.
type ArithmeticError = money.Error

// ConsistencyError reports a violated cross-row invariant or an incomplete write.
// The current operation must be abandoned and rolled back.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "consistency violation: " + e.Reason
}

// Inconsistent builds a ConsistencyError with a formatted reason.
func Inconsistent(format string, args ...any) *ConsistencyError {
	return &ConsistencyError{Reason: fmt.Sprintf(format, args...)}
}

// IsArithmetic reports whether err is or wraps an ArithmeticError.
func IsArithmetic(err error) bool {
	var target *ArithmeticError
	return errors.As(err, &target)
}

// IsConsistency reports whether err is or wraps a ConsistencyError.
func IsConsistency(err error) bool {
	var target *ConsistencyError
	return errors.As(err, &target)
}
