// Package booking implements the table-assignment core: given a date,
// time slot and party size it deterministically picks an available
// table and commits a reservation without ever double booking a slot,
// even under concurrent requests.  Business refusals are typed values,
// never raw errors, so the HTTP layer can map each cause to a status
// code; only infrastructure failures escape as plain errors.
package booking

import "fmt"

// Kind labels the cause of a refusal.  The values mirror the booking
// error taxonomy exposed to API clients.
type Kind string

const (
	// KindInvalidRequest marks malformed or out-of-range input; Field
	// identifies the offending field.  Not retryable without fixing
	// the input.
	KindInvalidRequest Kind = "InvalidRequest"
	// KindNoCapacityConfigured means the table catalog is empty and an
	// operator has to provision tables before any booking can succeed.
	KindNoCapacityConfigured Kind = "NoCapacityConfigured"
	// KindInsufficientCapacity means no table in the whole catalog can
	// seat the requested party, regardless of availability.
	KindInsufficientCapacity Kind = "InsufficientCapacity"
	// KindNoAvailability means sufficient-capacity tables exist but all
	// of them are booked for the requested slot.
	KindNoAvailability Kind = "NoAvailability"
	// KindSlotTaken is the user-facing form of a lost allocation race:
	// the allocator retried once and a concurrent booking still won.
	KindSlotTaken Kind = "SlotTaken"
	// KindNotFound means the referenced reservation or table does not exist.
	KindNotFound Kind = "NotFound"
	// KindForbidden means the requester is neither the owner of the
	// resource nor an administrator.
	KindForbidden Kind = "Forbidden"
	// KindInvalidTransition marks a reservation status change outside
	// the allowed transition set.
	KindInvalidTransition Kind = "InvalidTransition"
	// KindCapacityConflict means a capacity shrink would orphan ACTIVE
	// reservations; Conflicts carries how many.
	KindCapacityConflict Kind = "CapacityConflict"
)

// Refusal is a structured negative result.  It implements error so it
// can travel through ordinary error returns, but callers are expected
// to recover it with AsRefusal and handle it as a business outcome
// rather than a failure.
type Refusal struct {
	Kind      Kind   // cause category
	Message   string // human-readable explanation
	Field     string // offending field, set for InvalidRequest only
	Conflicts int64  // conflicting reservation count, set for CapacityConflict only
}

func (r *Refusal) Error() string {
	if r.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Kind, r.Message, r.Field)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// AsRefusal unwraps a Refusal from err.  It returns nil when err is not
// a refusal, i.e. a genuine infrastructure failure.
func AsRefusal(err error) *Refusal {
	if r, ok := err.(*Refusal); ok {
		return r
	}
	return nil
}

func refuse(kind Kind, msg string) *Refusal {
	return &Refusal{Kind: kind, Message: msg}
}

func invalidField(field, msg string) *Refusal {
	return &Refusal{Kind: KindInvalidRequest, Message: msg, Field: field}
}
