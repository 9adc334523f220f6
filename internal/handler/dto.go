package handler

import (
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/pricing"
)

// createReservationRequest is the body of POST /v1/reservations.
type createReservationRequest struct {
	WorkspaceID uint64    `json:"workspaceId" validate:"required,gt=0"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
	CouponCode  string    `json:"couponCode" validate:"omitempty,max=64"`
}

type workspaceSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type reservationResponse struct {
	ID              uint64            `json:"id"`
	UserID          uint64            `json:"userId"`
	WorkspaceID     uint64            `json:"workspaceId"`
	Workspace       *workspaceSummary `json:"workspace,omitempty"`
	StartTime       time.Time         `json:"startTime"`
	EndTime         time.Time         `json:"endTime"`
	TotalPrice      float64           `json:"totalPrice"`
	DiscountApplied int               `json:"discountApplied"`
	CouponCode      *string           `json:"couponCode,omitempty"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func newReservationResponse(r *model.Reservation) reservationResponse {
	return reservationResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		WorkspaceID:     r.WorkspaceID,
		StartTime:       r.StartTime.UTC(),
		EndTime:         r.EndTime.UTC(),
		TotalPrice:      pricing.Round(r.TotalPrice).InexactFloat64(),
		DiscountApplied: r.DiscountApplied,
		CouponCode:      r.CouponCode,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

func newReservationViewResponse(v *model.ReservationView) reservationResponse {
	out := newReservationResponse(&v.Reservation)
	out.Workspace = &workspaceSummary{Name: v.WorkspaceName, Type: v.WorkspaceType}
	return out
}

type couponResponse struct {
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discountPercent"`
	ExpiryDate      time.Time `json:"expiryDate"`
}

type quoteResponse struct {
	WorkspaceID     uint64  `json:"workspaceId"`
	DurationHours   float64 `json:"durationHours"`
	Tier            string  `json:"tier"`
	BasePrice       float64 `json:"basePrice"`
	DiscountPercent int     `json:"discountPercent"`
	DiscountAmount  float64 `json:"discountAmount"`
	PriceAfterTier  float64 `json:"priceAfterTier"`
}

func newQuoteResponse(workspaceID uint64, q pricing.Quote) quoteResponse {
	return quoteResponse{
		WorkspaceID:     workspaceID,
		DurationHours:   q.DurationHours.Round(4).InexactFloat64(),
		Tier:            string(q.Tier),
		BasePrice:       pricing.Round(q.BasePrice).InexactFloat64(),
		DiscountPercent: q.TierPercent,
		DiscountAmount:  pricing.Round(q.DiscountAmount).InexactFloat64(),
		PriceAfterTier:  pricing.Round(q.PriceAfterTier).InexactFloat64(),
	}
}
