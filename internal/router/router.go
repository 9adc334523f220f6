package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-reservation/internal/handler"
)

// Deps carries what the route groups need besides their handlers.
// RateLimit and Cache may be nil, in which case routes are registered
// without them.
type Deps struct {
	JWTSecret string
	DB        handler.Pinger
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func (d Deps) chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers routes that do not require authentication:
// the health check and the public price quote.
func RegisterRoutes(e *echo.Echo, h *handler.ReservationHandler, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))
	// cached replies still consume rate-limit tokens
	e.GET("/v1/workspaces/:id/quote", h.Quote, d.chain(d.RateLimit, d.Cache)...)
}

// Register wires every route group on e.
func Register(e *echo.Echo, h *handler.ReservationHandler, d Deps) {
	RegisterRoutes(e, h, d)
	RegisterReservations(e, h, d)
}
