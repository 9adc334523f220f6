package handler // handler defines the HTTP handlers of the booking API

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/coworking-reservation/internal/middleware"
	"github.com/iliyamo/coworking-reservation/internal/repository"
	"github.com/iliyamo/coworking-reservation/internal/service"
)

// RequestValidator plugs go-playground/validator into echo so handlers
// can call c.Validate on bound request bodies.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator returns a RequestValidator with default settings.
func NewValidator() *RequestValidator {
	return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

// requester builds the caller identity from the JWT claims.
func requester(c echo.Context) (service.Requester, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		return service.Requester{}, false
	}
	return service.Requester{UserID: id, Admin: middleware.IsAdmin(c)}, true
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// badRequest lists the errors a client can fix by changing its request.
var badRequest = []error{
	service.ErrInvalidInterval,
	service.ErrResourceUnavailable,
	service.ErrCouponInvalid,
	service.ErrAlreadyCancelled,
}

// statusFor maps a service error to an HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		if errors.Is(err, repository.ErrWorkspaceNotFound) {
			return http.StatusNotFound, "workspace not found"
		}
		return http.StatusNotFound, "reservation not found"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrSlotConflict):
		return http.StatusConflict, service.ErrSlotConflict.Error()
	}
	for _, e := range badRequest {
		if errors.Is(err, e) {
			return http.StatusBadRequest, e.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// writeError renders err as {"error": "..."}.  Server-side failures are
// logged with their cause; the client only sees a generic message.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": msg})
}
