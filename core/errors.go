/*
errors.go - Centralized error taxonomy for the leave tracker

PURPOSE:
  All error categories in one place for consistency and discoverability.
  Domain packages (directory, leave) build structured errors that unwrap
  onto these sentinels, so callers can classify with errors.Is().

ERROR CATEGORIES:
  1. Validation errors - Malformed or out-of-range input
  2. Conflict errors   - Uniqueness, overlap, or invalid state transitions
  3. Permission errors - Authorization failures
  4. Not-found errors  - Missing entities
  5. Internal errors   - Invariant violations (e.g. unreadable balance)

CONTRACT:
  Every public operation returns either a success value or one labeled
  error. No operation leaves persisted state partially updated on failure.

USAGE:
  if core.IsConflict(err) {
      // email already taken, overlapping leave, ...
  }

SEE ALSO:
  - directory/service.go: builds ValidationError/ConflictError/...
  - leave/ledger.go: same
  - api/handlers.go: maps categories to HTTP status codes
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the category for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is the category for uniqueness violations, overlapping
	// leave ranges, and invalid state transitions.
	ErrConflict = errors.New("conflict")

	// ErrPermission is the category for authorization failures.
	ErrPermission = errors.New("permission denied")

	// ErrNotFound is the category for missing entities.
	ErrNotFound = errors.New("not found")

	// ErrInternal is the category for invariant violations, such as a
	// stored balance that cannot be read back.
	ErrInternal = errors.New("internal error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field failed and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation builds a field-level validation error.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports a uniqueness or state conflict on a resource.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Resource, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflict builds a conflict error.
func NewConflict(resource, reason string) *ConflictError {
	return &ConflictError{Resource: resource, Reason: reason}
}

// PermissionError reports a denied action for a principal.
type PermissionError struct {
	Principal Principal
	Action    string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("principal %s may not %s", e.Principal, e.Action)
}

func (e *PermissionError) Unwrap() error { return ErrPermission }

// NewPermission builds a permission error.
func NewPermission(p Principal, action string) *PermissionError {
	return &PermissionError{Principal: p, Action: action}
}

// NotFoundError reports a missing entity by kind and identifier.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound builds a not-found error.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InternalError reports an invariant violation during an operation.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *InternalError) Unwrap() error { return ErrInternal }

// NewInternal wraps a low-level failure as an internal error.
func NewInternal(op string, err error) *InternalError {
	return &InternalError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true for malformed-input failures.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict returns true for uniqueness/overlap/state conflicts.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsPermission returns true for authorization failures.
func IsPermission(err error) bool { return errors.Is(err, ErrPermission) }

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsClientError returns true if the error is due to the caller's input
// or privileges rather than a server-side fault.
func IsClientError(err error) bool {
	return IsValidation(err) || IsConflict(err) || IsPermission(err) || IsNotFound(err)
}
