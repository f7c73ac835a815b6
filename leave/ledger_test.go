package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-tracker/core"
	"github.com/warp/leave-tracker/directory"
	"github.com/warp/leave-tracker/leave"
	"github.com/warp/leave-tracker/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	dir    *directory.Service
	ledger *leave.Ledger
	admin  core.Principal
	member core.Principal
}

// newFixture registers an admin (first user) and an activated member.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	clock := core.FixedClock{At: testNow}
	dir := directory.NewService(store, clock)
	ledger := leave.NewLedger(store, dir, clock)

	admin, err := dir.Create(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)

	member, err := dir.Create(ctx, "Grace", "grace@example.com")
	require.NoError(t, err)

	active := true
	_, err = dir.Promote(ctx, core.Principal(admin.ID), member.ID, directory.PromoteUpdate{IsActive: &active})
	require.NoError(t, err)

	return &fixture{
		store:  store,
		dir:    dir,
		ledger: ledger,
		admin:  core.Principal(admin.ID),
		member: core.Principal(member.ID),
	}
}

func date(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) balanceOf(t *testing.T, p core.Principal) decimal.Decimal {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), p.UserID())
	require.NoError(t, err)
	require.NotNil(t, u)
	return u.AvailableDays
}

// =============================================================================
// REQUEST - day computation and balance debit
// =============================================================================

func TestRequest_ComputesDaysAndDebitsBalance(t *testing.T) {
	// GIVEN: A member with 21 available days
	// WHEN: They request Jan 1 - Jan 5 (a 4-day span)
	// THEN: The leave is PENDING with days=4 and the balance drops to 17

	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)

	assert.Equal(t, core.StatusPending, lv.Status)
	assert.True(t, lv.Days.Equal(decimal.NewFromInt(4)), "got %s", lv.Days)
	assert.Equal(t, f.member.UserID(), lv.UserID)
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(17)))
}

func TestRequest_SubDaySpanFloorsToOneDay(t *testing.T) {
	// A six-hour span rounds to zero whole days but still costs one.

	f := newFixture(t)
	ctx := context.Background()

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

	lv, err := f.ledger.Request(ctx, f.member, start, end)
	require.NoError(t, err)

	assert.True(t, lv.Days.Equal(decimal.NewFromInt(1)))
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(20)))
}

func TestRequest_StartMustPrecedeEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Request(ctx, f.member, date(time.March, 5), date(time.March, 1))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.ledger.Request(ctx, f.member, date(time.March, 5), date(time.March, 5))
	assert.ErrorIs(t, err, core.ErrValidation)

	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(21)), "failed request must not touch the balance")
}

func TestRequest_InsufficientBalance_Validation(t *testing.T) {
	// GIVEN: A member with 21 available days
	// WHEN: They request a 30-day span
	// THEN: ValidationError and the balance is unchanged

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Request(ctx, f.member, date(time.July, 1), date(time.July, 31))
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(21)))
}

func TestRequest_OutsideCurrentYear_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Entirely last year
	_, err := f.ledger.Request(ctx, f.member,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, core.ErrValidation)

	// Straddling the year boundary
	_, err = f.ledger.Request(ctx, f.member,
		date(time.December, 30),
		time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestRequest_OverlappingRange_Conflict(t *testing.T) {
	// GIVEN: A pending leave Jan 1 - Jan 5
	// WHEN: The member requests Jan 3 - Jan 6
	// THEN: ConflictError; the failed attempt leaves the balance unchanged

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)
	balanceAfterFirst := f.balanceOf(t, f.member)

	_, err = f.ledger.Request(ctx, f.member, date(time.January, 3), date(time.January, 6))
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.True(t, f.balanceOf(t, f.member).Equal(balanceAfterFirst))
}

func TestRequest_OverlapVariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Request(ctx, f.member, date(time.May, 10), date(time.May, 20))
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end time.Time
		conflict   bool
	}{
		{"contained inside", date(time.May, 12), date(time.May, 15), true},
		{"containing", date(time.May, 9), date(time.May, 20), true},
		{"shared end point", date(time.May, 20), date(time.May, 22), true},
		{"shared start point", date(time.May, 8), date(time.May, 10), true},
		{"disjoint before", date(time.May, 1), date(time.May, 5), false},
		{"disjoint after", date(time.May, 25), date(time.May, 28), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lv, err := f.ledger.Request(ctx, f.member, tt.start, tt.end)
			if tt.conflict {
				assert.ErrorIs(t, err, core.ErrConflict)
				return
			}
			require.NoError(t, err)
			// Clean up so later subtests only race the original range.
			_, err = f.ledger.Delete(ctx, f.member, lv.ID)
			require.NoError(t, err)
		})
	}
}

func TestRequest_DifferentUsersMayOverlap(t *testing.T) {
	// Overlap is per user; the admin and the member can be off together.

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Request(ctx, f.member, date(time.April, 1), date(time.April, 5))
	require.NoError(t, err)

	_, err = f.ledger.Request(ctx, f.admin, date(time.April, 1), date(time.April, 5))
	assert.NoError(t, err)
}

func TestRequest_InactiveUser_Permission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive, err := f.dir.Create(ctx, "Edsger", "edsger@example.com")
	require.NoError(t, err)

	_, err = f.ledger.Request(ctx, core.Principal(inactive.ID), date(time.March, 1), date(time.March, 5))
	assert.ErrorIs(t, err, core.ErrPermission)
}

func TestRequest_UnknownUser_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Request(context.Background(), "ghost", date(time.March, 1), date(time.March, 5))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

func TestUpdateStatus_RejectRefundsDays(t *testing.T) {
	// GIVEN: A pending 4-day leave (balance 21 -> 17)
	// WHEN: An admin rejects it
	// THEN: The balance returns to 21

	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)
	require.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(17)))

	rejected, err := f.ledger.UpdateStatus(ctx, f.admin, lv.ID, core.StatusRejected)
	require.NoError(t, err)

	assert.Equal(t, core.StatusRejected, rejected.Status)
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(21)))
}

func TestUpdateStatus_ApproveIsBalanceNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)

	approved, err := f.ledger.UpdateStatus(ctx, f.admin, lv.ID, core.StatusApproved)
	require.NoError(t, err)

	assert.Equal(t, core.StatusApproved, approved.Status)
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(17)), "approval must not change the balance")
}

func TestUpdateStatus_RepeatedReject_RefundsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)

	_, err = f.ledger.UpdateStatus(ctx, f.admin, lv.ID, core.StatusRejected)
	require.NoError(t, err)
	_, err = f.ledger.UpdateStatus(ctx, f.admin, lv.ID, core.StatusRejected)
	require.NoError(t, err)

	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(21)), "second reject must not refund again")
}

func TestUpdateStatus_RejectAfterApprove_Refunds(t *testing.T) {
	// The state machine is loose: APPROVED -> REJECTED is allowed and
	// triggers the refund.

	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)

	_, err = f.ledger.UpdateStatus(ctx, f.admin, lv.ID, core.StatusApproved)
	require.NoError(t, err)
	_, err = f.ledger.UpdateStatus(ctx, f.admin, lv.ID, core.StatusRejected)
	require.NoError(t, err)

	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(21)))
}

func TestUpdateStatus_NonAdmin_Permission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)

	_, err = f.ledger.UpdateStatus(ctx, f.member, lv.ID, core.StatusApproved)
	assert.ErrorIs(t, err, core.ErrPermission)
}

func TestUpdateStatus_UnknownStatus_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)

	_, err = f.ledger.UpdateStatus(ctx, f.admin, lv.ID, core.LeaveStatus("MAYBE"))
	assert.ErrorIs(t, err, core.ErrValidation)
}

// =============================================================================
// DELETE (cancellation)
// =============================================================================

func TestDelete_PendingLeave_Refunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)
	require.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(17)))

	deleted, err := f.ledger.Delete(ctx, f.member, lv.ID)
	require.NoError(t, err)

	assert.Equal(t, lv.ID, deleted.ID)
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(21)))

	_, err = f.ledger.Get(ctx, f.member, lv.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDelete_NonPending_ConflictNoRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)
	_, err = f.ledger.UpdateStatus(ctx, f.admin, lv.ID, core.StatusApproved)
	require.NoError(t, err)

	_, err = f.ledger.Delete(ctx, f.member, lv.ID)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(17)), "failed delete must not refund")
}

func TestDelete_NotOwner_Permission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)

	_, err = f.ledger.Delete(ctx, f.admin, lv.ID)
	assert.ErrorIs(t, err, core.ErrPermission)
}

// =============================================================================
// UPDATE DATES
// =============================================================================

func TestUpdateDates_RecomputesDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)

	updated, err := f.ledger.UpdateDates(ctx, f.member, lv.ID, date(time.February, 1), date(time.February, 3))
	require.NoError(t, err)

	assert.True(t, updated.Days.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, date(time.February, 1), updated.StartDate)
	require.NotNil(t, updated.UpdatedAt)
}

func TestUpdateDates_NotOwner_Permission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)

	_, err = f.ledger.UpdateDates(ctx, f.admin, lv.ID, date(time.February, 1), date(time.February, 3))
	assert.ErrorIs(t, err, core.ErrPermission)
}

func TestUpdateDates_DoesNotRevalidateOverlap(t *testing.T) {
	// Inherited behavior: changing dates skips the overlap and balance
	// checks that Request performs. See DESIGN.md before tightening this.

	f := newFixture(t)
	ctx := context.Background()

	first, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)
	second, err := f.ledger.Request(ctx, f.member, date(time.February, 1), date(time.February, 3))
	require.NoError(t, err)

	moved, err := f.ledger.UpdateDates(ctx, f.member, second.ID, date(time.January, 3), date(time.January, 6))
	require.NoError(t, err, "date update intentionally skips overlap validation")
	assert.True(t, overlapsRange(moved.StartDate, moved.EndDate, first.StartDate, first.EndDate))
}

func overlapsRange(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// =============================================================================
// LISTING
// =============================================================================

func TestListMine_FiltersByOwnerAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)
	_, err = f.ledger.Request(ctx, f.member, date(time.February, 1), date(time.February, 3))
	require.NoError(t, err)
	_, err = f.ledger.Request(ctx, f.admin, date(time.March, 1), date(time.March, 3))
	require.NoError(t, err)

	_, err = f.ledger.UpdateStatus(ctx, f.admin, first.ID, core.StatusApproved)
	require.NoError(t, err)

	mine, err := f.ledger.ListMine(ctx, f.member)
	require.NoError(t, err)
	assert.Len(t, mine, 2, "only the member's leaves")

	approved, err := f.ledger.ListMineByStatus(ctx, f.member, core.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)

	pending, err := f.ledger.ListMineByStatus(ctx, f.member, core.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestListMineByStatus_UnknownStatus_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.ListMineByStatus(context.Background(), f.member, core.LeaveStatus("LIMBO"))
	assert.ErrorIs(t, err, core.ErrValidation)
}

// =============================================================================
// FULL LIFECYCLE (the worked example)
// =============================================================================

func TestLifecycle_RequestRejectRefund(t *testing.T) {
	// GIVEN: A member with 21 days
	// WHEN: They request Jan 1 - Jan 5 (4 days), a conflicting request
	//       fails, and an admin then rejects the original
	// THEN: Balance goes 21 -> 17 -> 17 -> 21

	f := newFixture(t)
	ctx := context.Background()

	lv, err := f.ledger.Request(ctx, f.member, date(time.January, 1), date(time.January, 5))
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, lv.Status)
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(17)))

	_, err = f.ledger.Request(ctx, f.member, date(time.January, 3), date(time.January, 6))
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(17)))

	_, err = f.ledger.UpdateStatus(ctx, f.admin, lv.ID, core.StatusRejected)
	require.NoError(t, err)
	assert.True(t, f.balanceOf(t, f.member).Equal(decimal.NewFromInt(21)))
}
