package model

import "time"

// Table represents a physical dining table in the restaurant.  Tables
// are the unit of allocation: a confirmed booking binds exactly one
// table for a (date, time slot) pair.  This struct corresponds to a
// row in the `tables` table.
//
// Fields:
//  ID          – primary key identifier.
//  TableNumber – positive integer printed on the table; unique.
//  Capacity    – maximum party size the table seats (1..50).
//  CreatedAt   – timestamp when the table was created.
//  UpdatedAt   – timestamp of last update.
type Table struct {
	ID          uint64    // tables.id
	TableNumber uint32    // tables.table_number
	Capacity    uint32    // tables.capacity
	CreatedAt   time.Time // tables.created_at
	UpdatedAt   time.Time // tables.updated_at
}
