package booking

import (
	"context"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableCatalog is the capacity-indexed table inventory the allocator
// reads from.  repository.TableRepo is the production implementation;
// tests provide in-memory fakes.
type TableCatalog interface {
	// Count returns the total number of tables configured.
	Count(ctx context.Context) (int64, error)
	// CountFitting returns how many tables seat at least minCapacity
	// guests, booked or not.
	CountFitting(ctx context.Context, minCapacity uint32) (int64, error)
	// FindSmallestFitting returns the table with the smallest capacity
	// >= minCapacity whose ID is not in excluding, ties broken by
	// lowest table number.  (nil, nil) means no candidate exists.
	FindSmallestFitting(ctx context.Context, minCapacity uint32, excluding []uint64) (*model.Table, error)
	// GetByID returns a table or repository.ErrTableNotFound.
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	// Update rewrites table number and/or capacity; nil leaves a field
	// unchanged.
	Update(ctx context.Context, id uint64, tableNumber, capacity *uint32) (*model.Table, error)
}

// ReservationLedger is the append/query store of reservation records.
// Its Insert MUST enforce at most one ACTIVE reservation per
// (table, date, time slot) and report a violation as
// repository.ErrSlotTaken — that constraint, not the allocator's
// re-check, is the authoritative guard against double booking.
type ReservationLedger interface {
	// ActiveTableIDsFor returns the booked set: IDs of tables holding
	// an ACTIVE reservation for the exact (date, timeSlot) pair.
	ActiveTableIDsFor(ctx context.Context, date, timeSlot string) ([]uint64, error)
	// FindActiveConflict returns the ACTIVE reservation occupying the
	// triple, or nil when the slot is free.
	FindActiveConflict(ctx context.Context, tableID uint64, date, timeSlot string) (*model.Reservation, error)
	// Insert appends a reservation, populating ID and timestamps.
	Insert(ctx context.Context, r *model.Reservation) error
	// GetByID returns a reservation or repository.ErrReservationNotFound.
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	// UpdateStatus sets the status and returns the updated row; a
	// uniqueness violation on reactivation surfaces as
	// repository.ErrSlotTaken.
	UpdateStatus(ctx context.Context, id uint64, status string) (*model.Reservation, error)
	// CountActiveOverCapacity counts ACTIVE reservations on the table
	// whose party exceeds newCapacity.
	CountActiveOverCapacity(ctx context.Context, tableID uint64, newCapacity uint32) (int64, error)
}
