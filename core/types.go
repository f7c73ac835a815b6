/*
Package core provides the shared kernel of the leave tracker.

PURPOSE:
  Types and contracts shared by the User Directory and the Leave Ledger:
  typed identifiers, the authenticated principal, the clock abstraction,
  the error taxonomy, and the persistence interfaces.

KEY CONCEPTS IN THIS FILE (types.go):
  - UserID / LeaveID: Type-safe identifiers
  - Principal: The authenticated caller, passed explicitly into every call
  - User / Leave: The two persisted record types
  - Clock: Injectable wall-clock supplier

DESIGN PRINCIPLES:
  1. Explicit identity: No ambient "current user" state. Every operation
     receives the caller as a Principal parameter.
  2. Precision: decimal.Decimal for day balances, never float64.
  3. Type Safety: Strong typing for IDs prevents mixing user/leave IDs.
  4. Derived data: Leave.Days is computed from the date range, never set
     by callers.

SEE ALSO:
  - errors.go: Error taxonomy
  - store.go: Persistence interfaces
*/
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND PRINCIPAL
// =============================================================================

type UserID string
type LeaveID string

// Principal is the authenticated actor invoking an operation. Resolution
// of the principal (sessions, tokens) happens outside this module; here it
// is an opaque user identifier threaded through every call.
type Principal UserID

// UserID returns the principal as a directory identifier.
func (p Principal) UserID() UserID { return UserID(p) }

func (p Principal) String() string { return string(p) }

// =============================================================================
// USER - Directory record
// =============================================================================

// DefaultAvailableDays is the leave allowance granted at registration.
var DefaultAvailableDays = decimal.NewFromInt(21)

// User is a directory record: identity, profile, privilege flags, and the
// remaining leave-day allowance.
type User struct {
	ID            UserID
	Name          string
	Email         string
	IsActive      bool
	IsAdmin       bool
	AvailableDays decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// =============================================================================
// LEAVE - Ledger record
// =============================================================================

// LeaveStatus is one of the three recognized request states.
type LeaveStatus string

const (
	StatusPending  LeaveStatus = "PENDING"
	StatusApproved LeaveStatus = "APPROVED"
	StatusRejected LeaveStatus = "REJECTED"
)

// ValidStatus reports whether s is one of the recognized statuses.
func ValidStatus(s LeaveStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Leave is a single leave request. Days is derived from the date range at
// creation/update time. UserID is immutable after creation.
type Leave struct {
	ID        LeaveID
	UserID    UserID
	StartDate time.Time
	EndDate   time.Time
	Days      decimal.Decimal
	Status    LeaveStatus
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// =============================================================================
// CLOCK - Injectable time source
// =============================================================================

// Clock supplies the current wall-clock time. Injected so the
// current-calendar-year rule and record timestamps are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
