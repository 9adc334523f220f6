package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/pricing"
	"github.com/iliyamo/coworking-reservation/internal/service"
)

// Reservations is the booking service as seen by the HTTP layer.
type Reservations interface {
	Create(ctx context.Context, in service.CreateInput) (*model.Reservation, error)
	Cancel(ctx context.Context, reservationID uint64, who service.Requester) (*model.Reservation, error)
	Get(ctx context.Context, reservationID uint64, who service.Requester) (*model.ReservationView, error)
	List(ctx context.Context, who service.Requester) ([]model.ReservationView, error)
	ValidCoupons(ctx context.Context, userID uint64) ([]model.Coupon, error)
	Quote(ctx context.Context, workspaceID uint64, start, end time.Time) (pricing.Quote, *model.Workspace, error)
}

// ReservationHandler serves the /v1/reservations endpoints and the public
// price quote.  All reservation routes assume JWTAuth ran before them;
// they answer 401 when the caller cannot be identified.
type ReservationHandler struct {
	svc Reservations
	log *zap.Logger
}

// NewReservationHandler panics on a nil service.
func NewReservationHandler(svc Reservations, log *zap.Logger) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationHandler{svc: svc, log: log}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// List handles GET /v1/reservations.  Admins see every reservation,
// everyone else only their own, newest start time first.
func (h *ReservationHandler) List(c echo.Context) error {
	who, ok := requester(c)
	if !ok {
		return unauthorized(c)
	}
	views, err := h.svc.List(c.Request().Context(), who)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]reservationResponse, 0, len(views))
	for i := range views {
		out = append(out, newReservationViewResponse(&views[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	who, ok := requester(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	v, err := h.svc.Get(c.Request().Context(), id, who)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, newReservationViewResponse(v))
}

// Create handles POST /v1/reservations.  The body is
// {workspaceId, startTime, endTime, couponCode?} with RFC 3339 times.
// It returns 201 with the confirmed reservation.
func (h *ReservationHandler) Create(c echo.Context) error {
	who, ok := requester(c)
	if !ok {
		return unauthorized(c)
	}
	var body createReservationRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "workspaceId, startTime and endTime are required"})
	}
	res, err := h.svc.Create(c.Request().Context(), service.CreateInput{
		UserID:      who.UserID,
		WorkspaceID: body.WorkspaceID,
		Start:       body.StartTime,
		End:         body.EndTime,
		CouponCode:  strings.TrimSpace(body.CouponCode),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, newReservationResponse(res))
}

// Cancel handles PUT /v1/reservations/:id/cancel and returns the
// updated reservation.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	who, ok := requester(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.svc.Cancel(c.Request().Context(), id, who)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, newReservationResponse(res))
}

// Coupons handles GET /v1/reservations/user/coupons: the caller's unused,
// unexpired coupons.
func (h *ReservationHandler) Coupons(c echo.Context) error {
	who, ok := requester(c)
	if !ok {
		return unauthorized(c)
	}
	coupons, err := h.svc.ValidCoupons(c.Request().Context(), who.UserID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]couponResponse, 0, len(coupons))
	for _, cp := range coupons {
		out = append(out, couponResponse{Code: cp.Code, DiscountPercent: cp.DiscountPercent, ExpiryDate: cp.ExpiryDate.UTC()})
	}
	return c.JSON(http.StatusOK, out)
}

// Quote handles GET /v1/workspaces/:id/quote?start=&end=.  It prices the
// interval with the workspace's tiers without booking anything.
func (h *ReservationHandler) Quote(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workspace id"})
	}
	start, err1 := time.Parse(time.RFC3339, c.QueryParam("start"))
	end, err2 := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start and end must be RFC3339 timestamps"})
	}
	q, ws, err := h.svc.Quote(c.Request().Context(), id, start, end)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, newQuoteResponse(ws.ID, q))
}
