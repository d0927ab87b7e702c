package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"    // admin handlers
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware" // JWT + role middlewares
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
// All routes require a valid JWT and ADMIN role.  cacheMW, when non-nil,
// is applied to the table listing so repeated catalog reads are served
// from Redis; extra middleware (the rate limiter) covers the whole group.
func RegisterAdmin(e *echo.Echo, r *handler.AdminReservationHandler, t *handler.AdminTableHandler, jwtSecret string, cacheMW echo.MiddlewareFunc, extra ...echo.MiddlewareFunc) {
	// Attach middlewares at group construction time for clarity.
	mws := append([]echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	}, extra...)
	g := e.Group("/v1/admin", mws...)

	// ---- Reservations ----
	g.GET("/reservations", r.List)
	g.PUT("/reservations/:id", r.SetStatus)
	g.PATCH("/reservations/:id", r.SetStatus) // alias for clients that use PATCH

	// ---- Tables ----
	if cacheMW != nil {
		g.GET("/tables", t.List, cacheMW)
	} else {
		g.GET("/tables", t.List)
	}
	g.POST("/tables", t.Create)
	g.PUT("/tables/:id", t.Update)
	g.PATCH("/tables/:id", t.Update)
	g.DELETE("/tables/:id", t.Delete)
}
