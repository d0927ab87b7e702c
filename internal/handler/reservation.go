package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	publisher "github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// ReservationHandler serves the customer-facing booking endpoints.  The
// table-assignment decision itself is delegated to the allocator; this
// layer only binds requests, resolves identity and shapes responses.
type ReservationHandler struct {
	Allocator    *booking.Allocator
	Tables       *repository.TableRepo
	Reservations *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler and panics if a
// dependency is nil.
func NewReservationHandler(alloc *booking.Allocator, tables *repository.TableRepo, reservations *repository.ReservationRepo) *ReservationHandler {
	if alloc == nil || tables == nil || reservations == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Allocator: alloc, Tables: tables, Reservations: reservations}
}

// Create handles POST /v1/reservations.  The body carries date, time
// slot and guest count; the allocator picks the table.  Refusals map to
// 400/409/503 depending on the cause, and a confirmed booking is
// announced on the message queue for the booking log.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Date     string `json:"date"`
		TimeSlot string `json:"time_slot"`
		Guests   int    `json:"guests"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	res, err := h.Allocator.Allocate(ctx, booking.Request{
		Date:     body.Date,
		TimeSlot: body.TimeSlot,
		Guests:   body.Guests,
		UserID:   userID,
	})
	if err != nil {
		if ref := booking.AsRefusal(err); ref != nil {
			return respondRefusal(c, ref)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	table, err := h.Tables.GetByID(ctx, res.TableID)
	if err != nil {
		// Booking is committed; reply without the table number rather
		// than failing the request.
		return c.JSON(http.StatusCreated, toReservationResponse(res, 0))
	}
	// Announce the booking; failures are logged and ignored so the
	// customer's confirmation never depends on the broker.
	if err := publisher.PublishReservationBooked(ctx, queue.ReservationBookedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		TableID:       table.ID,
		TableNumber:   table.TableNumber,
		Date:          res.Date,
		TimeSlot:      res.TimeSlot,
		Guests:        res.Guests,
		BookedAt:      time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Printf("reservation %d: publish booked event failed: %v", res.ID, err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(res, table.TableNumber))
}

// ListMine handles GET /v1/my-reservations and returns the caller's
// reservations joined with their tables, newest date first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, details)
}

// Get handles GET /v1/reservations/:id.  Customers may only view their
// own reservations; administrators may view any.
func (h *ReservationHandler) Get(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ident.Admin && res.UserID != ident.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var tableNumber uint32
	if table, err := h.Tables.GetByID(ctx, res.TableID); err == nil {
		tableNumber = table.TableNumber
	}
	return c.JSON(http.StatusOK, toReservationResponse(res, tableNumber))
}

// Cancel handles DELETE /v1/reservations/:id.  Cancellation is a soft
// status change and is idempotent: double submits get 204 both times.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Allocator.Cancel(c.Request().Context(), id, ident); err != nil {
		if ref := booking.AsRefusal(err); ref != nil {
			return respondRefusal(c, ref)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
