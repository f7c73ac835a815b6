/*
Package leave implements the Leave Ledger.

PURPOSE:
  Stores leave requests per user, enforces the non-overlap and
  calendar-year rules, and on status change debits or credits the User
  Directory's available-day balance.

STATE MACHINE:
  PENDING -> {APPROVED, REJECTED}, and PENDING -> deleted (cancellation).
  The status-update operation does not lock terminal states: an admin may
  move a request out of APPROVED or REJECTED again. Deletion, however, is
  only permitted while the request is PENDING.

BALANCE RULE (canonical):
  - Creating a request SUBTRACTs its day count immediately.
  - A transition into REJECTED refunds the day count (ADD).
  - Any other target status is a balance no-op, including re-approval.
  - Deleting a PENDING request refunds the day count.
  The refund fires once per transition into REJECTED; setting REJECTED on
  an already-rejected request does not refund again.

ATOMICITY:
  Every operation that touches both a leave record and the owner's
  balance runs inside a single TxStore.WithTx region, so the pair of
  writes commits or rolls back together.

KNOWN GAP (inherited, kept deliberately):
  UpdateDates recomputes the day count but does not re-check overlap or
  balance sufficiency against the new range. See DESIGN.md.

SEE ALSO:
  - core/store.go: LeaveStore + TxStore interfaces
  - directory/service.go: Balancer implementation
*/
package leave

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/leave-tracker/core"
	"github.com/warp/leave-tracker/directory"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger implements the leave-request lifecycle over a persistence store
// and the directory's balance-adjustment surface.
type Ledger struct {
	store    core.TxStore
	balancer directory.Balancer
	clock    core.Clock
}

// NewLedger creates a leave ledger.
func NewLedger(store core.TxStore, balancer directory.Balancer, clock core.Clock) *Ledger {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Ledger{store: store, balancer: balancer, clock: clock}
}

// =============================================================================
// REQUEST - Create a PENDING leave and debit the balance
// =============================================================================

// Request validates and persists a new leave request for the principal.
// Validation order: user exists, account active, date ordering, span at
// least one day, sufficient balance, current calendar year, no overlap
// with the user's existing leaves. All checks run before any write; the
// leave insert and the balance debit share one transaction.
func (l *Ledger) Request(ctx context.Context, principal core.Principal, start, end time.Time) (*core.Leave, error) {
	var created core.Leave
	err := l.store.WithTx(ctx, func(tx core.Store) error {
		user, err := tx.GetUser(ctx, principal.UserID())
		if err != nil {
			return core.NewInternal("get user", err)
		}
		if user == nil {
			return core.NewNotFound("user", principal.String())
		}
		if !user.IsActive {
			return core.NewPermission(principal, "request leave with an inactive account")
		}

		if !start.Before(end) {
			return core.NewValidation("dates", "start date must precede end date")
		}

		days := daySpan(start, end)
		if days.IsZero() {
			return core.NewValidation("dates", "leave must be at least one day")
		}
		if days.GreaterThan(user.AvailableDays) {
			return core.NewValidation("days", "insufficient balance")
		}

		year := l.clock.Now().Year()
		if !withinYear(start, year) || !withinYear(end, year) {
			return core.NewValidation("dates", "leave must fall within the current calendar year")
		}

		existing, err := tx.ListLeavesByUser(ctx, user.ID)
		if err != nil {
			return core.NewInternal("list leaves", err)
		}
		for _, other := range existing {
			if overlaps(start, end, other.StartDate, other.EndDate) {
				return core.NewConflict("leave", "requested range overlaps an existing leave")
			}
		}

		created = core.Leave{
			ID:        core.LeaveID(uuid.NewString()),
			UserID:    user.ID,
			StartDate: start,
			EndDate:   end,
			Days:      days,
			Status:    core.StatusPending,
			CreatedAt: l.clock.Now(),
		}
		if err := tx.SaveLeave(ctx, created); err != nil {
			return core.NewInternal("save leave", err)
		}

		return l.balancer.AdjustBalance(ctx, tx, user.ID, days, directory.Subtract)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// =============================================================================
// UPDATE DATES - Owner changes the range, day count is recomputed
// =============================================================================

// UpdateDates changes a leave's date range and recomputes its day count.
// Owner only. The new range is not re-checked for overlap or balance
// sufficiency; only the span itself is validated.
func (l *Ledger) UpdateDates(ctx context.Context, principal core.Principal, id core.LeaveID, start, end time.Time) (*core.Leave, error) {
	var updated core.Leave
	err := l.store.WithTx(ctx, func(tx core.Store) error {
		lv, err := tx.GetLeave(ctx, id)
		if err != nil {
			return core.NewInternal("get leave", err)
		}
		if lv == nil {
			return core.NewNotFound("leave", string(id))
		}
		if lv.UserID != principal.UserID() {
			return core.NewPermission(principal, "update another user's leave")
		}

		if !start.Before(end) {
			return core.NewValidation("dates", "start date must precede end date")
		}
		days := daySpan(start, end)
		if days.IsZero() {
			return core.NewValidation("dates", "leave must be at least one day")
		}

		lv.StartDate = start
		lv.EndDate = end
		lv.Days = days
		now := l.clock.Now()
		lv.UpdatedAt = &now

		if err := tx.SaveLeave(ctx, *lv); err != nil {
			return core.NewInternal("save leave", err)
		}
		updated = *lv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// =============================================================================
// UPDATE STATUS - Admin transition, REJECTED refunds
// =============================================================================

// UpdateStatus moves a leave to a new status. Admin only. A transition
// into REJECTED refunds the leave's day count to the owner; every other
// target status leaves the balance untouched.
func (l *Ledger) UpdateStatus(ctx context.Context, principal core.Principal, id core.LeaveID, status core.LeaveStatus) (*core.Leave, error) {
	if !core.ValidStatus(status) {
		return nil, core.NewValidation("status", "must be PENDING, APPROVED or REJECTED")
	}

	var updated core.Leave
	err := l.store.WithTx(ctx, func(tx core.Store) error {
		caller, err := tx.GetUser(ctx, principal.UserID())
		if err != nil {
			return core.NewInternal("get caller", err)
		}
		if caller == nil {
			return core.NewNotFound("user", principal.String())
		}
		if !caller.IsAdmin {
			return core.NewPermission(principal, "change leave status")
		}

		lv, err := tx.GetLeave(ctx, id)
		if err != nil {
			return core.NewInternal("get leave", err)
		}
		if lv == nil {
			return core.NewNotFound("leave", string(id))
		}

		refund := status == core.StatusRejected && lv.Status != core.StatusRejected

		lv.Status = status
		now := l.clock.Now()
		lv.UpdatedAt = &now
		if err := tx.SaveLeave(ctx, *lv); err != nil {
			return core.NewInternal("save leave", err)
		}

		if refund {
			if err := l.balancer.AdjustBalance(ctx, tx, lv.UserID, lv.Days, directory.Add); err != nil {
				return err
			}
		}
		updated = *lv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// =============================================================================
// DELETE - Cancellation, PENDING only, refunds
// =============================================================================

// Delete cancels a PENDING leave, refunding its day count. Owner only.
// Non-PENDING leaves cannot be deleted.
func (l *Ledger) Delete(ctx context.Context, principal core.Principal, id core.LeaveID) (*core.Leave, error) {
	var deleted core.Leave
	err := l.store.WithTx(ctx, func(tx core.Store) error {
		lv, err := tx.GetLeave(ctx, id)
		if err != nil {
			return core.NewInternal("get leave", err)
		}
		if lv == nil {
			return core.NewNotFound("leave", string(id))
		}
		if lv.UserID != principal.UserID() {
			return core.NewPermission(principal, "delete another user's leave")
		}
		if lv.Status != core.StatusPending {
			return core.NewConflict("leave", "only pending leaves can be deleted")
		}

		if err := tx.DeleteLeave(ctx, id); err != nil {
			return core.NewInternal("delete leave", err)
		}
		if err := l.balancer.AdjustBalance(ctx, tx, lv.UserID, lv.Days, directory.Add); err != nil {
			return err
		}
		deleted = *lv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns a single leave, visible to its owner and to admins.
func (l *Ledger) Get(ctx context.Context, principal core.Principal, id core.LeaveID) (*core.Leave, error) {
	lv, err := l.store.GetLeave(ctx, id)
	if err != nil {
		return nil, core.NewInternal("get leave", err)
	}
	if lv == nil {
		return nil, core.NewNotFound("leave", string(id))
	}
	if lv.UserID != principal.UserID() {
		caller, err := l.store.GetUser(ctx, principal.UserID())
		if err != nil {
			return nil, core.NewInternal("get caller", err)
		}
		if caller == nil || !caller.IsAdmin {
			return nil, core.NewPermission(principal, "view another user's leave")
		}
	}
	return lv, nil
}

// ListMine returns all of the principal's leave requests.
func (l *Ledger) ListMine(ctx context.Context, principal core.Principal) ([]core.Leave, error) {
	if err := l.requireActive(ctx, principal); err != nil {
		return nil, err
	}
	leaves, err := l.store.ListLeavesByUser(ctx, principal.UserID())
	if err != nil {
		return nil, core.NewInternal("list leaves", err)
	}
	return leaves, nil
}

// ListMineByStatus returns the principal's leave requests with the given
// status. Unknown statuses are rejected.
func (l *Ledger) ListMineByStatus(ctx context.Context, principal core.Principal, status core.LeaveStatus) ([]core.Leave, error) {
	if !core.ValidStatus(status) {
		return nil, core.NewValidation("status", "must be PENDING, APPROVED or REJECTED")
	}
	all, err := l.ListMine(ctx, principal)
	if err != nil {
		return nil, err
	}
	filtered := make([]core.Leave, 0, len(all))
	for _, lv := range all {
		if lv.Status == status {
			filtered = append(filtered, lv)
		}
	}
	return filtered, nil
}

func (l *Ledger) requireActive(ctx context.Context, principal core.Principal) error {
	user, err := l.store.GetUser(ctx, principal.UserID())
	if err != nil {
		return core.NewInternal("get user", err)
	}
	if user == nil {
		return core.NewNotFound("user", principal.String())
	}
	if !user.IsActive {
		return core.NewPermission(principal, "use the leave ledger with an inactive account")
	}
	return nil
}
