package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// roleAdmin is the role claim value granting administrative privilege.
const roleAdmin = "ADMIN"

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWT numeric claims decode as float64, so several representations are
// accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// identityFrom builds the request-scoped identity the allocator expects
// from the claims the JWT middleware stored in the context.
func identityFrom(c echo.Context) (booking.Identity, error) {
	uid, err := getUserID(c)
	if err != nil {
		return booking.Identity{}, err
	}
	role, _ := c.Get("role").(string)
	return booking.Identity{UserID: uid, Admin: role == roleAdmin}, nil
}

// refusalStatus maps a booking refusal to the HTTP status it should be
// reported with.
func refusalStatus(r *booking.Refusal) int {
	switch r.Kind {
	case booking.KindInvalidRequest, booking.KindInsufficientCapacity,
		booking.KindInvalidTransition, booking.KindCapacityConflict:
		return http.StatusBadRequest
	case booking.KindForbidden:
		return http.StatusForbidden
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindNoAvailability, booking.KindSlotTaken:
		return http.StatusConflict
	case booking.KindNoCapacityConfigured:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondRefusal writes a refusal as JSON.  Field and conflict details
// are included only when the refusal carries them.
func respondRefusal(c echo.Context, r *booking.Refusal) error {
	body := echo.Map{"error": string(r.Kind), "message": r.Message}
	if r.Field != "" {
		body["field"] = r.Field
	}
	if r.Conflicts > 0 {
		body["conflicts"] = r.Conflicts
	}
	return c.JSON(refusalStatus(r), body)
}

// reservationResponse is the JSON shape returned for a single
// reservation, with its table embedded.  The populated shape exists at
// the boundary only; the core works with plain IDs.
type reservationResponse struct {
	ID          uint64 `json:"id"`
	TableID     uint64 `json:"table_id"`
	TableNumber uint32 `json:"table_number,omitempty"`
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
	Guests      uint32 `json:"guests"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func toReservationResponse(res *model.Reservation, tableNumber uint32) reservationResponse {
	return reservationResponse{
		ID:          res.ID,
		TableID:     res.TableID,
		TableNumber: tableNumber,
		Date:        res.Date,
		TimeSlot:    res.TimeSlot,
		Guests:      res.Guests,
		Status:      res.Status,
		CreatedAt:   res.CreatedAt.UTC().Format(time.RFC3339),
	}
}
