package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// Request is a booking request as received from the boundary, before
// any validation.  Guests is an int so out-of-range and negative JSON
// values survive binding and can be refused with a field detail.
type Request struct {
	Date     string // calendar date, YYYY-MM-DD
	TimeSlot string // 24-hour HH:MM
	Guests   int    // party size
	UserID   uint64 // requesting identity
}

// Identity is the request-scoped caller identity passed into every
// operation.  There is no process-wide session state; whoever invokes
// the allocator says who they are each time.
type Identity struct {
	UserID uint64
	Admin  bool
}

// Allocator is the booking core.  It owns the assignment algorithm and
// the conflict rules; all storage goes through the catalog and ledger
// contracts so the same logic runs against MySQL in production and
// in-memory fakes in tests.  The allocator keeps no mutable state of
// its own and is safe for concurrent use: mutual exclusion lives in the
// ledger's uniqueness constraint, not in application memory, because
// the service may run as several independent instances.
type Allocator struct {
	catalog TableCatalog
	ledger  ReservationLedger
	now     func() time.Time
}

// NewAllocator constructs an Allocator and panics if a dependency is nil.
func NewAllocator(catalog TableCatalog, ledger ReservationLedger) *Allocator {
	if catalog == nil || ledger == nil {
		panic("nil dependency passed to NewAllocator")
	}
	return &Allocator{catalog: catalog, ledger: ledger, now: time.Now}
}

// Allocate finds the best-fitting free table for the request and
// commits an ACTIVE reservation bound to it.  Best fit means the
// smallest capacity that still seats the party, ties broken by lowest
// table number, so large tables are kept for large parties.
//
// A lost race (another booking grabbing the chosen table between the
// availability query and the commit) is retried once from the booked-set
// query; if the second attempt also loses, the caller gets SlotTaken.
// The retry covers both detection paths: the pre-commit re-check and a
// duplicate-key rejection from the ledger's uniqueness constraint.
func (a *Allocator) Allocate(ctx context.Context, req Request) (*model.Reservation, error) {
	if ref := validateRequest(req, a.now()); ref != nil {
		return nil, ref
	}
	total, err := a.catalog.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, refuse(KindNoCapacityConfigured, "no tables configured, contact the administrator")
	}
	guests := uint32(req.Guests)
	for attempt := 0; attempt < 2; attempt++ {
		booked, err := a.ledger.ActiveTableIDsFor(ctx, req.Date, req.TimeSlot)
		if err != nil {
			return nil, err
		}
		table, err := a.catalog.FindSmallestFitting(ctx, guests, booked)
		if err != nil {
			return nil, err
		}
		if table == nil {
			fitting, err := a.catalog.CountFitting(ctx, guests)
			if err != nil {
				return nil, err
			}
			if fitting == 0 {
				return nil, refuse(KindInsufficientCapacity, "no table is large enough for this party size")
			}
			return nil, refuse(KindNoAvailability, "all suitable tables are already reserved for this slot")
		}
		// Re-check immediately before committing; a concurrent
		// allocation may have taken the table since the booked-set
		// query.
		conflict, err := a.ledger.FindActiveConflict(ctx, table.ID, req.Date, req.TimeSlot)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			if attempt == 0 {
				continue
			}
			return nil, refuse(KindSlotTaken, "table was just reserved by another customer")
		}
		res := &model.Reservation{
			UserID:   req.UserID,
			TableID:  table.ID,
			Date:     req.Date,
			TimeSlot: req.TimeSlot,
			Guests:   guests,
			Status:   model.StatusActive,
		}
		if err := a.ledger.Insert(ctx, res); err != nil {
			// The unique index is the source of truth; losing here is
			// the same race as a failed re-check.
			if errors.Is(err, repository.ErrSlotTaken) {
				if attempt == 0 {
					continue
				}
				return nil, refuse(KindSlotTaken, "table was just reserved by another customer")
			}
			return nil, err
		}
		return res, nil
	}
	return nil, refuse(KindSlotTaken, "table was just reserved by another customer")
}

// Cancel marks a reservation CANCELLED, immediately freeing its
// (table, date, time slot) for future bookings.  Only the owner or an
// administrator may cancel.  Cancelling an already-cancelled
// reservation is a no-op success so double submits don't surface
// spurious errors.
func (a *Allocator) Cancel(ctx context.Context, reservationID uint64, ident Identity) error {
	res, err := a.ledger.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return refuse(KindNotFound, "reservation not found")
		}
		return err
	}
	if !ident.Admin && res.UserID != ident.UserID {
		return refuse(KindForbidden, "not authorized to cancel this reservation")
	}
	if res.Status == model.StatusCancelled {
		return nil
	}
	_, err = a.ledger.UpdateStatus(ctx, reservationID, model.StatusCancelled)
	return err
}

// allowedTransitions is the full one-directional transition set, with
// COMPLETED -> ACTIVE as the single reactivation edge.  CANCELLED is
// terminal.
var allowedTransitions = map[string]map[string]bool{
	model.StatusActive: {
		model.StatusCompleted: true,
		model.StatusCancelled: true,
	},
	model.StatusCompleted: {
		model.StatusActive: true,
	},
}

// SetStatus applies an administrative status transition.  Reactivating
// a completed reservation re-runs the conflict check because the table
// may have been re-booked since completion; if the slot is occupied the
// caller gets SlotTaken.
func (a *Allocator) SetStatus(ctx context.Context, reservationID uint64, newStatus string, ident Identity) (*model.Reservation, error) {
	if !ident.Admin {
		return nil, refuse(KindForbidden, "administrative privilege required")
	}
	res, err := a.ledger.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, refuse(KindNotFound, "reservation not found")
		}
		return nil, err
	}
	if !allowedTransitions[res.Status][newStatus] {
		return nil, refuse(KindInvalidTransition,
			"cannot transition reservation from "+res.Status+" to "+newStatus)
	}
	if res.Status == model.StatusCompleted && newStatus == model.StatusActive {
		conflict, err := a.ledger.FindActiveConflict(ctx, res.TableID, res.Date, res.TimeSlot)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return nil, refuse(KindSlotTaken, "table has been re-booked for this slot")
		}
	}
	updated, err := a.ledger.UpdateStatus(ctx, reservationID, newStatus)
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, refuse(KindSlotTaken, "table has been re-booked for this slot")
		}
		return nil, err
	}
	return updated, nil
}

// ResizeTable updates a table's number and/or capacity.  A capacity
// shrink is refused with CapacityConflict when it would leave any
// ACTIVE reservation with more guests than the table seats; the refusal
// carries the conflicting reservation count.
func (a *Allocator) ResizeTable(ctx context.Context, tableID uint64, tableNumber, capacity *uint32, ident Identity) (*model.Table, error) {
	if !ident.Admin {
		return nil, refuse(KindForbidden, "administrative privilege required")
	}
	if tableNumber != nil && *tableNumber < 1 {
		return nil, invalidField("table_number", "table number must be a positive integer")
	}
	if capacity != nil && (*capacity < MinGuests || *capacity > MaxGuests) {
		return nil, invalidField("capacity", "table capacity must be between 1 and 50")
	}
	if _, err := a.catalog.GetByID(ctx, tableID); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return nil, refuse(KindNotFound, "table not found")
		}
		return nil, err
	}
	if capacity != nil {
		conflicts, err := a.ledger.CountActiveOverCapacity(ctx, tableID, *capacity)
		if err != nil {
			return nil, err
		}
		if conflicts > 0 {
			return nil, &Refusal{
				Kind:      KindCapacityConflict,
				Message:   "active reservations exceed the new capacity",
				Conflicts: conflicts,
			}
		}
	}
	return a.catalog.Update(ctx, tableID, tableNumber, capacity)
}
