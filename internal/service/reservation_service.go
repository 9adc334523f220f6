// Package service holds the reservation lifecycle: booking, cancellation
// and the read paths that enforce ownership.  Every write runs in one
// store transaction; follow-up work (loyalty, events) runs after commit
// and never changes the outcome of the request.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/coworking-reservation/internal/availability"
	"github.com/iliyamo/coworking-reservation/internal/coupon"
	"github.com/iliyamo/coworking-reservation/internal/loyalty"
	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/pricing"
	"github.com/iliyamo/coworking-reservation/internal/queue"
	"github.com/iliyamo/coworking-reservation/internal/repository"
)

// CreateInput is a booking request from an authenticated user.
type CreateInput struct {
	UserID      uint64
	WorkspaceID uint64
	Start       time.Time
	End         time.Time
	CouponCode  string
}

// Requester identifies the caller of a read or cancel operation.
type Requester struct {
	UserID uint64
	Admin  bool
}

func (r Requester) canAccess(ownerID uint64) bool {
	return r.Admin || r.UserID == ownerID
}

// ReservationService books and cancels reservations.
type ReservationService struct {
	store   Store
	loyalty *loyalty.Issuer
	events  EventPublisher
	log     *zap.Logger
	now     func() time.Time
}

// NewReservationService wires the service.  events may be nil to
// disable publishing.
func NewReservationService(store Store, issuer *loyalty.Issuer, events EventPublisher, log *zap.Logger) *ReservationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationService{store: store, loyalty: issuer, events: events, log: log, now: time.Now}
}

// Create books [in.Start, in.End) on a workspace.  Checks run in this
// order: workspace exists, workspace available, interval valid, slot
// free, coupon redeemable.  The workspace row lock held for the whole
// transaction serialises concurrent bookings of the same workspace.
func (s *ReservationService) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	start, end := in.Start.UTC(), in.End.UTC()
	now := s.now().UTC()
	var created *model.Reservation

	err := s.store.InTx(ctx, func(tx BookingTx) error {
		ws, err := tx.LockWorkspace(ctx, in.WorkspaceID)
		if err != nil {
			return err
		}
		if !ws.Available {
			return ErrResourceUnavailable
		}
		if !start.Before(end) {
			return ErrInvalidInterval
		}
		existing, err := tx.BlockingOverlaps(ctx, ws.ID, start, end)
		if err != nil {
			return err
		}
		if availability.HasConflict(ws.ID, start, end, existing) {
			return ErrSlotConflict
		}

		q := pricing.Calculate(ws.PricePerHour, start, end, pricing.ResolveTiers(ws.Discounts))
		final := q.PriceAfterTier
		var code *string
		if in.CouponCode != "" {
			coupons, err := tx.LockCoupons(ctx, in.UserID)
			if err != nil {
				return err
			}
			c, err := coupon.FindRedeemable(coupons, in.CouponCode, now)
			if err != nil {
				return ErrCouponInvalid
			}
			final = coupon.Redeem(c, final)
			if err := tx.MarkCouponUsed(ctx, c.ID); err != nil {
				return err
			}
			code = &c.Code
		}

		res := &model.Reservation{
			UserID:          in.UserID,
			WorkspaceID:     ws.ID,
			StartTime:       start,
			EndTime:         end,
			TotalPrice:      pricing.Round(final),
			DiscountApplied: q.TierPercent,
			CouponCode:      code,
			Status:          model.StatusConfirmed,
		}
		if err := tx.CreateReservation(ctx, res); err != nil {
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	s.log.Info("reservation confirmed",
		zap.Uint64("reservation_id", created.ID),
		zap.Uint64("user_id", created.UserID),
		zap.Uint64("workspace_id", created.WorkspaceID),
		zap.String("total_price", created.TotalPrice.StringFixed(2)))
	issued := s.issueLoyalty(ctx, created.UserID, now)
	s.publish(ctx, queue.ReservationConfirmed(created, now))
	if issued != nil {
		s.publish(ctx, queue.CouponIssued(issued, now))
	}
	return created, nil
}

// issueLoyalty runs the loyalty issuer.  Failures are logged only.
func (s *ReservationService) issueLoyalty(ctx context.Context, userID uint64, now time.Time) *model.Coupon {
	if s.loyalty == nil {
		return nil
	}
	c, err := s.loyalty.MaybeIssue(ctx, userID, now)
	if err != nil {
		s.log.Warn("loyalty issuance failed", zap.Uint64("user_id", userID), zap.Error(err))
		return nil
	}
	return c
}

func (s *ReservationService) publish(ctx context.Context, ev queue.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("event publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

// Cancel moves a reservation to cancelled and refunds its coupon in the
// same transaction, so a failure leaves both untouched.  The coupon
// returned is the reservation owner's, also when an admin cancels.
func (s *ReservationService) Cancel(ctx context.Context, reservationID uint64, who Requester) (*model.Reservation, error) {
	var cancelled *model.Reservation
	err := s.store.InTx(ctx, func(tx BookingTx) error {
		res, err := tx.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if !who.canAccess(res.UserID) {
			return ErrForbidden
		}
		if !res.Status.CanTransitionTo(model.StatusCancelled) {
			return ErrAlreadyCancelled
		}
		if res.CouponCode != nil {
			c, err := tx.LockCoupon(ctx, res.UserID, *res.CouponCode)
			switch {
			case errors.Is(err, repository.ErrCouponNotFound):
				s.log.Warn("coupon to refund not found",
					zap.Uint64("reservation_id", res.ID),
					zap.String("code", *res.CouponCode))
			case err != nil:
				return err
			default:
				coupon.Refund(c)
				if err := tx.MarkCouponUnused(ctx, c.ID); err != nil {
					return err
				}
			}
		}
		if err := tx.UpdateReservationStatus(ctx, res.ID, model.StatusCancelled); err != nil {
			return err
		}
		res.Status = model.StatusCancelled
		res.UpdatedAt = s.now().UTC()
		cancelled = res
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	s.log.Info("reservation cancelled",
		zap.Uint64("reservation_id", cancelled.ID),
		zap.Uint64("user_id", who.UserID))
	s.publish(ctx, queue.ReservationCancelled(cancelled, s.now()))
	return cancelled, nil
}

// Get returns one reservation if who owns it or is an admin.
func (s *ReservationService) Get(ctx context.Context, reservationID uint64, who Requester) (*model.ReservationView, error) {
	v, err := s.store.GetReservationView(ctx, reservationID)
	if err != nil {
		return nil, classify(err)
	}
	if !who.canAccess(v.UserID) {
		return nil, ErrForbidden
	}
	return v, nil
}

// List returns every reservation for admins and the caller's own
// otherwise, newest start time first.
func (s *ReservationService) List(ctx context.Context, who Requester) ([]model.ReservationView, error) {
	var filter *uint64
	if !who.Admin {
		filter = &who.UserID
	}
	out, err := s.store.ListReservationViews(ctx, filter)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ValidCoupons returns the user's coupons that are unused and unexpired.
func (s *ReservationService) ValidCoupons(ctx context.Context, userID uint64) ([]model.Coupon, error) {
	all, err := s.store.ListCoupons(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return coupon.ListValid(all, s.now()), nil
}

// Quote prices [start, end) on a workspace without booking it.
func (s *ReservationService) Quote(ctx context.Context, workspaceID uint64, start, end time.Time) (pricing.Quote, *model.Workspace, error) {
	ws, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return pricing.Quote{}, nil, classify(err)
	}
	if !start.Before(end) {
		return pricing.Quote{}, nil, ErrInvalidInterval
	}
	return pricing.Calculate(ws.PricePerHour, start, end, pricing.ResolveTiers(ws.Discounts)), ws, nil
}
