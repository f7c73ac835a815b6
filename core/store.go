/*
store.go - Persistence interfaces for users and leaves

PURPOSE:
  Defines the interface between the domain services and the database.
  Both collections are keyed by identifier; List methods return records
  in a stable order. Different implementations can use SQLite or
  in-memory storage.

KEY INTERFACES:
  UserStore:  User record persistence
  LeaveStore: Leave record persistence
  Store:      Both collections together
  TxStore:    Transactional operations (atomic multi-record writes)

ATOMICITY:
  Creating a leave and debiting the owner's balance must appear atomic
  to external observers. TxStore.WithTx wraps both writes in a single
  critical section: a SQL transaction for SQLite, a mutex-guarded
  snapshot/rollback region for the in-memory store.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - store/memory/memory.go: In-memory for testing and dev

SEE ALSO:
  - directory/service.go: Uses UserStore
  - leave/ledger.go: Uses LeaveStore + TxStore
*/
package core

import "context"

// =============================================================================
// USER STORE
// =============================================================================

// UserStore persists directory records.
type UserStore interface {
	// SaveUser inserts or replaces a user record.
	SaveUser(ctx context.Context, u User) error

	// GetUser returns the user or nil if absent.
	GetUser(ctx context.Context, id UserID) (*User, error)

	// GetUserByEmail returns the user with the given email or nil if absent.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsers returns all users ordered by creation time, then ID.
	ListUsers(ctx context.Context) ([]User, error)

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int, error)
}

// =============================================================================
// LEAVE STORE
// =============================================================================

// LeaveStore persists leave records.
type LeaveStore interface {
	// SaveLeave inserts or replaces a leave record.
	SaveLeave(ctx context.Context, l Leave) error

	// GetLeave returns the leave or nil if absent.
	GetLeave(ctx context.Context, id LeaveID) (*Leave, error)

	// ListLeavesByUser returns all leaves owned by the user, ordered by
	// start date, then ID.
	ListLeavesByUser(ctx context.Context, userID UserID) ([]Leave, error)

	// DeleteLeave removes a leave record. Removing an absent record is an error.
	DeleteLeave(ctx context.Context, id LeaveID) error
}

// =============================================================================
// COMBINED AND TRANSACTIONAL STORES
// =============================================================================

// Store combines both collections.
type Store interface {
	UserStore
	LeaveStore
}

// TxStore wraps Store with transaction support. Use this when a single
// operation writes both collections (e.g. persisting a leave and
// adjusting the owner's balance).
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, all writes are rolled back.
	// If fn returns nil, all writes are committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
