// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationBookedEvent is published when the allocator confirms a
// booking.  It contains enough information for downstream consumers to
// log or notify without querying the primary database.
type ReservationBookedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	TableID       uint64 `json:"table_id"`
	TableNumber   uint32 `json:"table_number"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	Guests        uint32 `json:"guests"`
	BookedAt      string `json:"booked_at"`
}
