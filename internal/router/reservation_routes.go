package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-reservation/internal/handler"
	"github.com/iliyamo/coworking-reservation/internal/middleware"
	"github.com/iliyamo/coworking-reservation/internal/model"
)

// RegisterReservations registers the booking endpoints under
// /v1/reservations.  All routes require a valid JWT with the USER or
// ADMIN role; ownership is checked by the service.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, d Deps) {
	g := e.Group(
		"/v1/reservations",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	g.GET("", h.List)
	g.GET("/user/coupons", h.Coupons)
	g.GET("/:id", h.Get)
	g.POST("", h.Create, d.chain(d.RateLimit)...)
	g.PUT("/:id/cancel", h.Cancel)
}
