/*
Package directory implements the User Directory.

PURPOSE:
  Stores user records (identity, profile, admin/active flags, available-day
  balance), enforces email uniqueness, and exposes the balance-adjustment
  operation the Leave Ledger debits and credits against.

KEY RULES:
  - Email is uniquely constrained across all users (case-insensitive).
  - The very first user registered in an empty directory is granted
    IsActive=true and IsAdmin=true. Everyone after that starts inactive,
    non-admin, pending approval by an admin.
  - Promote: granting admin implies active; deactivation strips admin.
    An admin cannot change their own flags through Promote.
  - AdjustBalance is internal plumbing for the ledger. It applies a raw
    delta with no floor; normal request flows reject insufficient
    balances before ever calling it, so a negative balance can only be
    the result of an administrative override.

SEE ALSO:
  - core/store.go: UserStore interface
  - leave/ledger.go: The Balancer consumer
*/
package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-tracker/core"
)

// =============================================================================
// BALANCE ADJUSTMENT DIRECTION
// =============================================================================

// Direction selects whether AdjustBalance adds to or subtracts from the
// user's available days.
type Direction string

const (
	Add      Direction = "ADD"
	Subtract Direction = "SUBTRACT"
)

// Balancer is the balance-adjustment surface the Leave Ledger calls back
// into. The ledger never reaches into user records directly.
type Balancer interface {
	AdjustBalance(ctx context.Context, store core.Store, id core.UserID, days decimal.Decimal, dir Direction) error
}

// =============================================================================
// SERVICE
// =============================================================================

// Service implements the User Directory over a persistence store.
type Service struct {
	store core.TxStore
	clock core.Clock
}

// NewService creates a directory service.
func NewService(store core.TxStore, clock core.Clock) *Service {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Service{store: store, clock: clock}
}

var _ Balancer = (*Service)(nil)

// =============================================================================
// REGISTRATION
// =============================================================================

// Create registers a new user. The first user in an empty directory is
// granted admin and active status; everyone else starts pending.
func (s *Service) Create(ctx context.Context, name, email string) (*core.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, core.NewValidation("name", "must not be empty")
	}
	if email == "" {
		return nil, core.NewValidation("email", "must not be empty")
	}
	if !validEmail(email) {
		return nil, core.NewValidation("email", "malformed address")
	}

	var created core.User
	err := s.store.WithTx(ctx, func(tx core.Store) error {
		existing, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			return core.NewInternal("lookup email", err)
		}
		if existing != nil {
			return core.NewConflict("user", "email already registered")
		}

		count, err := tx.CountUsers(ctx)
		if err != nil {
			return core.NewInternal("count users", err)
		}

		first := count == 0
		created = core.User{
			ID:            core.UserID(uuid.NewString()),
			Name:          name,
			Email:         email,
			IsActive:      first,
			IsAdmin:       first,
			AvailableDays: core.DefaultAvailableDays,
			CreatedAt:     s.clock.Now(),
		}
		return tx.SaveUser(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// =============================================================================
// LOOKUP
// =============================================================================

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id core.UserID) (*core.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, core.NewInternal("get user", err)
	}
	if u == nil {
		return nil, core.NewNotFound("user", string(id))
	}
	return u, nil
}

// List returns all users. Admin only.
func (s *Service) List(ctx context.Context, principal core.Principal) ([]core.User, error) {
	caller, err := s.Get(ctx, principal.UserID())
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin {
		return nil, core.NewPermission(principal, "list users")
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, core.NewInternal("list users", err)
	}
	return users, nil
}

// =============================================================================
// PROFILE UPDATE
// =============================================================================

// ProfileUpdate carries the optional profile fields. Nil means "leave the
// field untouched"; this is the explicit rendering of a partial-update
// payload.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// UpdateProfile applies the supplied fields to the caller's own record.
// Absent or empty fields are untouched, never cleared. Email changes are
// re-validated for syntax and uniqueness.
func (s *Service) UpdateProfile(ctx context.Context, principal core.Principal, update ProfileUpdate) (*core.User, error) {
	var updated core.User
	err := s.store.WithTx(ctx, func(tx core.Store) error {
		u, err := tx.GetUser(ctx, principal.UserID())
		if err != nil {
			return core.NewInternal("get user", err)
		}
		if u == nil {
			return core.NewNotFound("user", principal.String())
		}

		changed := false

		if update.Name != nil {
			if name := strings.TrimSpace(*update.Name); name != "" {
				u.Name = name
				changed = true
			}
		}

		if update.Email != nil {
			if email := normalizeEmail(*update.Email); email != "" && email != u.Email {
				if !validEmail(email) {
					return core.NewValidation("email", "malformed address")
				}
				other, err := tx.GetUserByEmail(ctx, email)
				if err != nil {
					return core.NewInternal("lookup email", err)
				}
				if other != nil && other.ID != u.ID {
					return core.NewConflict("user", "email already registered")
				}
				u.Email = email
				changed = true
			}
		}

		if changed {
			now := s.clock.Now()
			u.UpdatedAt = &now
			if err := tx.SaveUser(ctx, *u); err != nil {
				return core.NewInternal("save user", err)
			}
		}
		updated = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// =============================================================================
// PROMOTION
// =============================================================================

// PromoteUpdate carries the optional privilege flags.
type PromoteUpdate struct {
	IsAdmin  *bool
	IsActive *bool
}

// Promote changes a target user's admin/active flags. Admin only, and
// never against the caller's own record. Granting admin implies active;
// deactivation always strips admin rights.
func (s *Service) Promote(ctx context.Context, principal core.Principal, targetID core.UserID, update PromoteUpdate) (*core.User, error) {
	var updated core.User
	err := s.store.WithTx(ctx, func(tx core.Store) error {
		caller, err := tx.GetUser(ctx, principal.UserID())
		if err != nil {
			return core.NewInternal("get caller", err)
		}
		if caller == nil {
			return core.NewNotFound("user", principal.String())
		}
		if !caller.IsAdmin {
			return core.NewPermission(principal, "promote users")
		}
		if caller.ID == targetID {
			return core.NewPermission(principal, "modify own privileges")
		}

		target, err := tx.GetUser(ctx, targetID)
		if err != nil {
			return core.NewInternal("get target", err)
		}
		if target == nil {
			return core.NewNotFound("user", string(targetID))
		}

		if update.IsAdmin != nil {
			target.IsAdmin = *update.IsAdmin
			if target.IsAdmin {
				target.IsActive = true
			}
		}
		if update.IsActive != nil {
			target.IsActive = *update.IsActive
			if !target.IsActive {
				target.IsAdmin = false
			}
		}

		now := s.clock.Now()
		target.UpdatedAt = &now
		if err := tx.SaveUser(ctx, *target); err != nil {
			return core.NewInternal("save target", err)
		}
		updated = *target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// =============================================================================
// BALANCE ADJUSTMENT (internal, called by the Leave Ledger)
// =============================================================================

// AdjustBalance applies a day delta to a user's available balance. The
// Leave Ledger calls this inside its own transaction, passing the
// transactional store view so the leave write and the balance write
// commit or roll back together.
func (s *Service) AdjustBalance(ctx context.Context, store core.Store, id core.UserID, days decimal.Decimal, dir Direction) error {
	if store == nil {
		store = s.store
	}

	u, err := store.GetUser(ctx, id)
	if err != nil {
		return core.NewInternal("read balance", err)
	}
	if u == nil {
		return core.NewNotFound("user", string(id))
	}

	switch dir {
	case Add:
		u.AvailableDays = u.AvailableDays.Add(days)
	case Subtract:
		u.AvailableDays = u.AvailableDays.Sub(days)
	default:
		return core.NewValidation("direction", "must be ADD or SUBTRACT")
	}

	now := s.clock.Now()
	u.UpdatedAt = &now
	if err := store.SaveUser(ctx, *u); err != nil {
		return core.NewInternal("save balance", err)
	}
	return nil
}
