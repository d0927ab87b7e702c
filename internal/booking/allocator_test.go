package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

var testNow = time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)

const (
	testDate = "2026-08-15"
	testSlot = "19:00"
)

func bookingRequest(guests int, userID uint64) Request {
	return Request{Date: testDate, TimeSlot: testSlot, Guests: guests, UserID: userID}
}

func TestAllocatePicksSmallestFittingTable(t *testing.T) {
	store := newMemStore(2, 4, 6, 8)
	alloc := newTestAllocator(store, testNow)

	res, err := alloc.Allocate(context.Background(), bookingRequest(3, 7))
	require.NoError(t, err)
	require.NotNil(t, res)

	table, err := store.GetByID(context.Background(), res.TableID)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), table.Capacity)
	assert.Equal(t, model.StatusActive, res.Status)
	assert.Equal(t, uint64(7), res.UserID)
}

func TestAllocateBreaksCapacityTiesByTableNumber(t *testing.T) {
	store := newMemStore()
	store.addTable(1, 9, 4)
	store.addTable(2, 3, 4)
	alloc := newTestAllocator(store, testNow)

	res, err := alloc.Allocate(context.Background(), bookingRequest(4, 1))
	require.NoError(t, err)

	table, err := store.GetByID(context.Background(), res.TableID)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), table.TableNumber)
}

func TestAllocateRejectsMalformedRequests(t *testing.T) {
	store := newMemStore(4)
	alloc := newTestAllocator(store, testNow)

	cases := []struct {
		name  string
		req   Request
		field string
	}{
		{"bad date format", Request{Date: "15-08-2026", TimeSlot: testSlot, Guests: 2}, "date"},
		{"date not a date", Request{Date: "2026-13-40", TimeSlot: testSlot, Guests: 2}, "date"},
		{"past date", Request{Date: "2026-07-31", TimeSlot: testSlot, Guests: 2}, "date"},
		{"bad time", Request{Date: testDate, TimeSlot: "7pm", Guests: 2}, "time_slot"},
		{"hour out of range", Request{Date: testDate, TimeSlot: "24:00", Guests: 2}, "time_slot"},
		{"zero guests", Request{Date: testDate, TimeSlot: testSlot, Guests: 0}, "guests"},
		{"negative guests", Request{Date: testDate, TimeSlot: testSlot, Guests: -3}, "guests"},
		{"too many guests", Request{Date: testDate, TimeSlot: testSlot, Guests: 51}, "guests"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := alloc.Allocate(context.Background(), tc.req)
			ref := AsRefusal(err)
			require.NotNil(t, ref, "expected a refusal, got %v", err)
			assert.Equal(t, KindInvalidRequest, ref.Kind)
			assert.Equal(t, tc.field, ref.Field)
		})
	}
}

func TestAllocateBookingTodayIsAllowed(t *testing.T) {
	store := newMemStore(4)
	alloc := newTestAllocator(store, testNow)

	_, err := alloc.Allocate(context.Background(), Request{
		Date: "2026-08-01", TimeSlot: "09:00", Guests: 2, UserID: 1,
	})
	assert.NoError(t, err)
}

func TestAllocateFillsTheSlotTableByTable(t *testing.T) {
	store := newMemStore(2, 4)
	alloc := newTestAllocator(store, testNow)
	ctx := context.Background()

	first, err := alloc.Allocate(ctx, bookingRequest(2, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.TableID)

	second, err := alloc.Allocate(ctx, bookingRequest(2, 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.TableID)

	_, err = alloc.Allocate(ctx, bookingRequest(2, 3))
	ref := AsRefusal(err)
	require.NotNil(t, ref)
	assert.Equal(t, KindNoAvailability, ref.Kind)
}

func TestAllocateEmptyCatalog(t *testing.T) {
	store := newMemStore()
	alloc := newTestAllocator(store, testNow)

	_, err := alloc.Allocate(context.Background(), bookingRequest(2, 1))
	ref := AsRefusal(err)
	require.NotNil(t, ref)
	assert.Equal(t, KindNoCapacityConfigured, ref.Kind)
}

func TestAllocateInsufficientCapacity(t *testing.T) {
	// Every table is free, but none seats the party.
	store := newMemStore(2, 2, 4)
	alloc := newTestAllocator(store, testNow)

	_, err := alloc.Allocate(context.Background(), bookingRequest(10, 1))
	ref := AsRefusal(err)
	require.NotNil(t, ref)
	assert.Equal(t, KindInsufficientCapacity, ref.Kind)
}

func TestAllocateNoAvailability(t *testing.T) {
	store := newMemStore(4)
	alloc := newTestAllocator(store, testNow)
	ctx := context.Background()

	_, err := alloc.Allocate(ctx, bookingRequest(2, 1))
	require.NoError(t, err)

	_, err = alloc.Allocate(ctx, bookingRequest(2, 2))
	ref := AsRefusal(err)
	require.NotNil(t, ref)
	assert.Equal(t, KindNoAvailability, ref.Kind)
}

func TestAllocateOtherSlotsStayFree(t *testing.T) {
	store := newMemStore(4)
	alloc := newTestAllocator(store, testNow)
	ctx := context.Background()

	first, err := alloc.Allocate(ctx, bookingRequest(2, 1))
	require.NoError(t, err)

	// Same table, different hour and different day both succeed.
	sameDay, err := alloc.Allocate(ctx, Request{Date: testDate, TimeSlot: "21:00", Guests: 2, UserID: 2})
	require.NoError(t, err)
	assert.Equal(t, first.TableID, sameDay.TableID)

	nextDay, err := alloc.Allocate(ctx, Request{Date: "2026-08-16", TimeSlot: testSlot, Guests: 2, UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, first.TableID, nextDay.TableID)
}

func TestAllocateRetriesOnceAfterLostRace(t *testing.T) {
	store := newMemStore(4, 4)
	alloc := newTestAllocator(store, testNow)
	ctx := context.Background()

	// Simulate a concurrent booking sneaking in between the allocator's
	// re-check and its commit: the hook occupies the chosen table right
	// before the first Insert.
	store.beforeInsert = func(s *memStore, r *model.Reservation) {
		s.nextResID++
		s.reservations[s.nextResID] = &model.Reservation{
			ID: s.nextResID, UserID: 99, TableID: r.TableID,
			Date: r.Date, TimeSlot: r.TimeSlot, Guests: 2,
			Status: model.StatusActive,
		}
	}

	res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
	require.NoError(t, err, "retry should land on the second table")
	assert.Equal(t, uint64(2), res.TableID)
}

func TestAllocateConcurrentRequestsNeverDoubleBook(t *testing.T) {
	store := newMemStore(4)
	alloc := newTestAllocator(store, testNow)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = alloc.Allocate(context.Background(), bookingRequest(2, uint64(i+1)))
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		ref := AsRefusal(err)
		require.NotNil(t, ref, "losers must refuse, not fail: %v", err)
		assert.Contains(t, []Kind{KindNoAvailability, KindSlotTaken}, ref.Kind)
	}
	assert.Equal(t, 1, wins, "exactly one request may win the slot")
	ids, err := store.ActiveTableIDsFor(context.Background(), testDate, testSlot)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestCancelFreesTheSlot(t *testing.T) {
	store := newMemStore(4)
	alloc := newTestAllocator(store, testNow)
	ctx := context.Background()

	res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
	require.NoError(t, err)

	require.NoError(t, alloc.Cancel(ctx, res.ID, Identity{UserID: 1}))

	rebooked, err := alloc.Allocate(ctx, bookingRequest(2, 2))
	require.NoError(t, err)
	assert.Equal(t, res.TableID, rebooked.TableID)
}

func TestCancelIsIdempotent(t *testing.T) {
	store := newMemStore(4)
	alloc := newTestAllocator(store, testNow)
	ctx := context.Background()

	res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
	require.NoError(t, err)

	owner := Identity{UserID: 1}
	require.NoError(t, alloc.Cancel(ctx, res.ID, owner))
	require.NoError(t, alloc.Cancel(ctx, res.ID, owner))

	got, err := store.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
}

func TestCancelAuthorization(t *testing.T) {
	store := newMemStore(4, 4)
	alloc := newTestAllocator(store, testNow)
	ctx := context.Background()

	res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
	require.NoError(t, err)

	err = alloc.Cancel(ctx, res.ID, Identity{UserID: 2})
	ref := AsRefusal(err)
	require.NotNil(t, ref)
	assert.Equal(t, KindForbidden, ref.Kind)

	// An administrator may cancel anyone's reservation.
	assert.NoError(t, alloc.Cancel(ctx, res.ID, Identity{UserID: 2, Admin: true}))
}

func TestCancelUnknownReservation(t *testing.T) {
	store := newMemStore(4)
	alloc := newTestAllocator(store, testNow)

	err := alloc.Cancel(context.Background(), 42, Identity{UserID: 1})
	ref := AsRefusal(err)
	require.NotNil(t, ref)
	assert.Equal(t, KindNotFound, ref.Kind)
}

func TestSetStatusTransitionRules(t *testing.T) {
	admin := Identity{UserID: 100, Admin: true}
	ctx := context.Background()

	t.Run("active to completed", func(t *testing.T) {
		store := newMemStore(4)
		alloc := newTestAllocator(store, testNow)
		res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
		require.NoError(t, err)

		updated, err := alloc.SetStatus(ctx, res.ID, model.StatusCompleted, admin)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, updated.Status)
	})

	t.Run("completed back to active when slot is free", func(t *testing.T) {
		store := newMemStore(4)
		alloc := newTestAllocator(store, testNow)
		res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
		require.NoError(t, err)
		_, err = alloc.SetStatus(ctx, res.ID, model.StatusCompleted, admin)
		require.NoError(t, err)

		updated, err := alloc.SetStatus(ctx, res.ID, model.StatusActive, admin)
		require.NoError(t, err)
		assert.Equal(t, model.StatusActive, updated.Status)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		store := newMemStore(4)
		alloc := newTestAllocator(store, testNow)
		res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
		require.NoError(t, err)
		require.NoError(t, alloc.Cancel(ctx, res.ID, admin))

		for _, target := range []string{model.StatusActive, model.StatusCompleted} {
			_, err := alloc.SetStatus(ctx, res.ID, target, admin)
			ref := AsRefusal(err)
			require.NotNil(t, ref)
			assert.Equal(t, KindInvalidTransition, ref.Kind)
		}
	})

	t.Run("self transition is invalid", func(t *testing.T) {
		store := newMemStore(4)
		alloc := newTestAllocator(store, testNow)
		res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
		require.NoError(t, err)

		_, err = alloc.SetStatus(ctx, res.ID, model.StatusActive, admin)
		ref := AsRefusal(err)
		require.NotNil(t, ref)
		assert.Equal(t, KindInvalidTransition, ref.Kind)
	})

	t.Run("requires admin", func(t *testing.T) {
		store := newMemStore(4)
		alloc := newTestAllocator(store, testNow)
		res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
		require.NoError(t, err)

		_, err = alloc.SetStatus(ctx, res.ID, model.StatusCompleted, Identity{UserID: 1})
		ref := AsRefusal(err)
		require.NotNil(t, ref)
		assert.Equal(t, KindForbidden, ref.Kind)
	})
}

func TestReactivationChecksTheSlotAgain(t *testing.T) {
	store := newMemStore(4)
	alloc := newTestAllocator(store, testNow)
	admin := Identity{UserID: 100, Admin: true}
	ctx := context.Background()

	res, err := alloc.Allocate(ctx, bookingRequest(2, 1))
	require.NoError(t, err)
	_, err = alloc.SetStatus(ctx, res.ID, model.StatusCompleted, admin)
	require.NoError(t, err)

	// The freed slot gets re-booked by someone else.
	_, err = alloc.Allocate(ctx, bookingRequest(2, 2))
	require.NoError(t, err)

	_, err = alloc.SetStatus(ctx, res.ID, model.StatusActive, admin)
	ref := AsRefusal(err)
	require.NotNil(t, ref)
	assert.Equal(t, KindSlotTaken, ref.Kind)
}

func TestResizeTable(t *testing.T) {
	admin := Identity{UserID: 100, Admin: true}
	ctx := context.Background()
	u32 := func(v uint32) *uint32 { return &v }

	t.Run("shrink below active party is refused with a count", func(t *testing.T) {
		store := newMemStore(6)
		alloc := newTestAllocator(store, testNow)
		_, err := alloc.Allocate(ctx, bookingRequest(5, 1))
		require.NoError(t, err)

		_, err = alloc.ResizeTable(ctx, 1, nil, u32(4), admin)
		ref := AsRefusal(err)
		require.NotNil(t, ref)
		assert.Equal(t, KindCapacityConflict, ref.Kind)
		assert.Equal(t, int64(1), ref.Conflicts)

		table, err := store.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, uint32(6), table.Capacity, "a refused resize must leave the table unchanged")
	})

	t.Run("shrink that still fits succeeds", func(t *testing.T) {
		store := newMemStore(6)
		alloc := newTestAllocator(store, testNow)
		_, err := alloc.Allocate(ctx, bookingRequest(3, 1))
		require.NoError(t, err)

		table, err := alloc.ResizeTable(ctx, 1, nil, u32(4), admin)
		require.NoError(t, err)
		assert.Equal(t, uint32(4), table.Capacity)
	})

	t.Run("grow always succeeds", func(t *testing.T) {
		store := newMemStore(4)
		alloc := newTestAllocator(store, testNow)
		_, err := alloc.Allocate(ctx, bookingRequest(4, 1))
		require.NoError(t, err)

		table, err := alloc.ResizeTable(ctx, 1, nil, u32(8), admin)
		require.NoError(t, err)
		assert.Equal(t, uint32(8), table.Capacity)
	})

	t.Run("unknown table", func(t *testing.T) {
		store := newMemStore(4)
		alloc := newTestAllocator(store, testNow)

		_, err := alloc.ResizeTable(ctx, 9, nil, u32(6), admin)
		ref := AsRefusal(err)
		require.NotNil(t, ref)
		assert.Equal(t, KindNotFound, ref.Kind)
	})

	t.Run("capacity out of range", func(t *testing.T) {
		store := newMemStore(4)
		alloc := newTestAllocator(store, testNow)

		_, err := alloc.ResizeTable(ctx, 1, nil, u32(51), admin)
		ref := AsRefusal(err)
		require.NotNil(t, ref)
		assert.Equal(t, KindInvalidRequest, ref.Kind)
		assert.Equal(t, "capacity", ref.Field)
	})

	t.Run("requires admin", func(t *testing.T) {
		store := newMemStore(4)
		alloc := newTestAllocator(store, testNow)

		_, err := alloc.ResizeTable(ctx, 1, nil, u32(6), Identity{UserID: 1})
		ref := AsRefusal(err)
		require.NotNil(t, ref)
		assert.Equal(t, KindForbidden, ref.Kind)
	})
}
