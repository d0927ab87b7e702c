package booking

import (
	"regexp"
	"time"
)

// Party size bounds accepted for a single booking.
const (
	MinGuests = 1
	MaxGuests = 50
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// validateRequest checks a booking request locally, with no I/O.  It
// returns nil when the request is well formed, otherwise an
// InvalidRequest refusal naming the offending field.  Dates are
// compared to now at day granularity with no time zone attached.
func validateRequest(req Request, now time.Time) *Refusal {
	if !dateRe.MatchString(req.Date) {
		return invalidField("date", "date must be in YYYY-MM-DD format")
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return invalidField("date", "date is not a valid calendar date")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return invalidField("date", "cannot make reservations for past dates")
	}
	if !timeRe.MatchString(req.TimeSlot) {
		return invalidField("time_slot", "time slot must be in HH:MM format (24-hour)")
	}
	if req.Guests < MinGuests || req.Guests > MaxGuests {
		return invalidField("guests", "number of guests must be between 1 and 50")
	}
	return nil
}
