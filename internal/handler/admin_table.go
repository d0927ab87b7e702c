package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// AdminTableHandler manages the table inventory.  Creation and deletion
// are plain catalog writes with guards; capacity edits go through the
// allocator so shrinking below an ACTIVE reservation's party size is
// refused.
type AdminTableHandler struct {
	Allocator *booking.Allocator
	Tables    *repository.TableRepo
}

// NewAdminTableHandler constructs the handler and panics on nil
// dependencies.
func NewAdminTableHandler(alloc *booking.Allocator, tables *repository.TableRepo) *AdminTableHandler {
	if alloc == nil || tables == nil {
		panic("nil dependency passed to NewAdminTableHandler")
	}
	return &AdminTableHandler{Allocator: alloc, Tables: tables}
}

// tableResponse is the JSON shape for a single table.
type tableResponse struct {
	ID          uint64 `json:"id"`
	TableNumber uint32 `json:"table_number"`
	Capacity    uint32 `json:"capacity"`
}

func toTableResponse(t *model.Table) tableResponse {
	return tableResponse{ID: t.ID, TableNumber: t.TableNumber, Capacity: t.Capacity}
}

// List handles GET /v1/admin/tables and returns the whole catalog
// ordered by table number.
func (h *AdminTableHandler) List(c echo.Context) error {
	tables, err := h.Tables.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]tableResponse, 0, len(tables))
	for i := range tables {
		out = append(out, toTableResponse(&tables[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/admin/tables.  Table number must be a
// positive integer, capacity must be within 1..50 and the number must
// not collide with an existing table.
func (h *AdminTableHandler) Create(c echo.Context) error {
	var body struct {
		TableNumber *int `json:"table_number"`
		Capacity    *int `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TableNumber == nil || body.Capacity == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number and capacity are required"})
	}
	if *body.TableNumber < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table number must be a positive integer"})
	}
	if *body.Capacity < booking.MinGuests || *body.Capacity > booking.MaxGuests {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table capacity must be between 1 and 50"})
	}
	table := &model.Table{
		TableNumber: uint32(*body.TableNumber),
		Capacity:    uint32(*body.Capacity),
	}
	if err := h.Tables.Create(c.Request().Context(), table); err != nil {
		if errors.Is(err, repository.ErrTableNumberExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, toTableResponse(table))
}

// Update handles PUT /v1/admin/tables/:id.  Omitted fields stay
// untouched.  Capacity shrinks that would orphan ACTIVE reservations
// are refused with the conflicting reservation count.
func (h *AdminTableHandler) Update(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		TableNumber *int `json:"table_number"`
		Capacity    *int `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var number, capacity *uint32
	if body.TableNumber != nil {
		if *body.TableNumber < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "table number must be a positive integer"})
		}
		n := uint32(*body.TableNumber)
		number = &n
	}
	if body.Capacity != nil {
		if *body.Capacity < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "table capacity must be between 1 and 50"})
		}
		n := uint32(*body.Capacity)
		capacity = &n
	}
	table, err := h.Allocator.ResizeTable(c.Request().Context(), id, number, capacity, ident)
	if err != nil {
		if ref := booking.AsRefusal(err); ref != nil {
			return respondRefusal(c, ref)
		}
		if errors.Is(err, repository.ErrTableNumberExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTableResponse(table))
}

// Delete handles DELETE /v1/admin/tables/:id.  A table with ACTIVE
// reservations cannot be removed.
func (h *AdminTableHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Tables.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrTableInUse):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete table with active reservations"})
		case errors.Is(err, repository.ErrTableNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
