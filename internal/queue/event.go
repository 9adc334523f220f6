// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them in the booking log.
package queue

import (
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

// EventsQueue is the durable queue every booking event is routed to.
const EventsQueue = "reservation.events"

// Event types.
const (
	TypeReservationConfirmed = "reservation.confirmed"
	TypeReservationCancelled = "reservation.cancelled"
	TypeCouponIssued         = "coupon.issued"
)

// Event is published after a booking transaction commits.  It carries
// enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.  Fields that
// do not apply to a type are left empty.
type Event struct {
	Type            string `json:"type"`
	ReservationID   uint64 `json:"reservation_id,omitempty"`
	UserID          uint64 `json:"user_id"`
	WorkspaceID     uint64 `json:"workspace_id,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
	EndTime         string `json:"end_time,omitempty"`
	TotalPrice      string `json:"total_price,omitempty"`
	DiscountPercent int    `json:"discount_percent,omitempty"`
	CouponCode      string `json:"coupon_code,omitempty"`
	OccurredAt      string `json:"occurred_at"`
}

func reservationEvent(typ string, r *model.Reservation, at time.Time) Event {
	ev := Event{
		Type:            typ,
		ReservationID:   r.ID,
		UserID:          r.UserID,
		WorkspaceID:     r.WorkspaceID,
		StartTime:       r.StartTime.UTC().Format(time.RFC3339),
		EndTime:         r.EndTime.UTC().Format(time.RFC3339),
		TotalPrice:      r.TotalPrice.StringFixed(2),
		DiscountPercent: r.DiscountApplied,
		OccurredAt:      at.UTC().Format(time.RFC3339),
	}
	if r.CouponCode != nil {
		ev.CouponCode = *r.CouponCode
	}
	return ev
}

// ReservationConfirmed builds the event for a newly created reservation.
func ReservationConfirmed(r *model.Reservation, at time.Time) Event {
	return reservationEvent(TypeReservationConfirmed, r, at)
}

// ReservationCancelled builds the event for a cancellation.
func ReservationCancelled(r *model.Reservation, at time.Time) Event {
	return reservationEvent(TypeReservationCancelled, r, at)
}

// CouponIssued builds the event for a loyalty coupon grant.
func CouponIssued(c *model.Coupon, at time.Time) Event {
	return Event{
		Type:            TypeCouponIssued,
		UserID:          c.UserID,
		DiscountPercent: c.DiscountPercent,
		CouponCode:      c.Code,
		OccurredAt:      at.UTC().Format(time.RFC3339),
	}
}
