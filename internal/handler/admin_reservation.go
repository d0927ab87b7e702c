package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// AdminReservationHandler exposes the administrative view over the
// reservation ledger: listing across all users and status transitions.
type AdminReservationHandler struct {
	Allocator    *booking.Allocator
	Reservations *repository.ReservationRepo
	Tables       *repository.TableRepo
}

// NewAdminReservationHandler constructs the handler and panics on nil
// dependencies.
func NewAdminReservationHandler(alloc *booking.Allocator, reservations *repository.ReservationRepo, tables *repository.TableRepo) *AdminReservationHandler {
	if alloc == nil || reservations == nil || tables == nil {
		panic("nil dependency passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Allocator: alloc, Reservations: reservations, Tables: tables}
}

var filterDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// List handles GET /v1/admin/reservations.  Optional ?date= and
// ?status= query parameters narrow the listing; a malformed filter is
// rejected rather than silently ignored.
func (h *AdminReservationHandler) List(c echo.Context) error {
	filter := repository.ListFilter{}
	if date := strings.TrimSpace(c.QueryParam("date")); date != "" {
		if !filterDateRe.MatchString(date) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date filter must be YYYY-MM-DD"})
		}
		filter.Date = date
	}
	if status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); status != "" {
		switch status {
		case model.StatusActive, model.StatusCancelled, model.StatusCompleted:
			filter.Status = status
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status filter"})
		}
	}
	details, err := h.Reservations.ListAll(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, details)
}

// SetStatus handles PUT /v1/admin/reservations/:id.  The body carries
// the target status; the allocator enforces the transition rules and
// re-checks the slot when a completed reservation is reactivated.
func (h *AdminReservationHandler) SetStatus(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	newStatus := strings.ToUpper(strings.TrimSpace(body.Status))
	ctx := c.Request().Context()
	res, err := h.Allocator.SetStatus(ctx, id, newStatus, ident)
	if err != nil {
		if ref := booking.AsRefusal(err); ref != nil {
			return respondRefusal(c, ref)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var tableNumber uint32
	if table, err := h.Tables.GetByID(ctx, res.TableID); err == nil {
		tableNumber = table.TableNumber
	}
	return c.JSON(http.StatusOK, toReservationResponse(res, tableNumber))
}
