package model

import "time"

// Reservation status values.  A reservation is created ACTIVE and only
// ever changes state through the allocator's transition rules; rows are
// never deleted, so cancellations stay visible in history.
const (
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// Reservation records a user's booking of one table for a specific
// date and time slot.  Date and TimeSlot are stored as plain strings
// (`YYYY-MM-DD` and `HH:MM`) because the business compares them at day
// and minute granularity with no time zone attached.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who owns the reservation.
//  TableID   – table assigned by the allocator.
//  Date      – calendar date of the booking (YYYY-MM-DD, no zone).
//  TimeSlot  – 24-hour time of day (HH:MM).
//  Guests    – party size (1..50).
//  Status    – one of ACTIVE, CANCELLED, COMPLETED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	UserID    uint64    // reservations.user_id
	TableID   uint64    // reservations.table_id
	Date      string    // reservations.date
	TimeSlot  string    // reservations.time_slot
	Guests    uint32    // reservations.guests
	Status    string    // reservations.status
	CreatedAt time.Time // reservations.created_at
	UpdatedAt time.Time // reservations.updated_at
}
