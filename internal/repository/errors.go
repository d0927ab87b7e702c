// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// allocator and the handlers to distinguish between different failure
// scenarios. For example, ErrSlotTaken indicates that the database
// rejected an insert because another ACTIVE reservation already holds
// the same (table, date, time slot) triple, while ErrTableInUse signals
// that a table cannot be deleted because reservations still depend on it.
package repository

import "errors"

// ErrTableNotFound is returned when a table lookup fails.
var ErrTableNotFound = errors.New("table not found")

// ErrReservationNotFound is returned when a reservation lookup fails.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrTableNumberExists is returned when creating or renumbering a table
// would collide with an existing table number. Handlers should translate
// this into an HTTP 409 response.
var ErrTableNumberExists = errors.New("table number already exists")

// ErrSlotTaken is returned when the unique index on
// (table_id, date, time_slot, slot_guard) rejects an insert. It means a
// concurrent booking won the slot between the availability check and the
// commit; the allocator treats it exactly like a failed pre-commit
// re-check and retries once.
var ErrSlotTaken = errors.New("slot already reserved")

// ErrTableInUse is returned when a table cannot be deleted because it
// still has ACTIVE reservations.
var ErrTableInUse = errors.New("table has active reservations")

// ErrEmailExists is returned when registering a user with an email that
// is already taken.
var ErrEmailExists = errors.New("email already exists")
