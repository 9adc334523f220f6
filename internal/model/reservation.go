package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle state of a reservation.  New
// reservations are created CONFIRMED; PENDING is kept as a valid state
// for a future manual approval flow and CANCELLED is terminal.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Blocking reports whether a reservation in this state holds its slot.
// Pending reservations reserve capacity the same way confirmed ones do.
func (s ReservationStatus) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

// Reservation records a user's booking of a workspace for the
// half-open interval [StartTime, EndTime).
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who made the reservation (immutable).
//  WorkspaceID     – workspace being booked (immutable).
//  StartTime       – start of the interval (UTC).
//  EndTime         – end of the interval, strictly after StartTime.
//  TotalPrice      – final price after tier and coupon discounts.
//  DiscountApplied – tier discount percent only; coupon excluded.
//  CouponCode      – code redeemed at creation time, if any.
//  Status          – lifecycle state.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64            // reservations.id
	UserID          uint64            // reservations.user_id
	WorkspaceID     uint64            // reservations.workspace_id
	StartTime       time.Time         // reservations.start_time
	EndTime         time.Time         // reservations.end_time
	TotalPrice      decimal.Decimal   // reservations.total_price
	DiscountApplied int               // reservations.discount_applied
	CouponCode      *string           // reservations.coupon_code (nullable)
	Status          ReservationStatus // reservations.status
	CreatedAt       time.Time         // reservations.created_at
	UpdatedAt       time.Time         // reservations.updated_at
}

// Overlaps reports whether r intersects [start, end).  Touching
// endpoints do not overlap.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// ReservationView is a reservation joined with the workspace fields
// shown to clients.  It is what list and detail endpoints return.
type ReservationView struct {
	Reservation
	WorkspaceName string // workspaces.name
	WorkspaceType string // workspaces.type
}
