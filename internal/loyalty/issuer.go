// Package loyalty grants reward coupons from a user's confirmed spend.
package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/coworking-reservation/internal/coupon"
	"github.com/iliyamo/coworking-reservation/internal/model"
)

// Store is the persistence the issuer needs.
type Store interface {
	ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	CreateCoupon(ctx context.Context, c *model.Coupon) error
}

// Policy configures when a coupon is issued and what it is worth.
type Policy struct {
	Threshold      decimal.Decimal
	Percent        int
	ValidityMonths int
}

// DefaultPolicy issues a 15% coupon valid for three months once the
// confirmed spend reaches 10000.
var DefaultPolicy = Policy{
	Threshold:      decimal.NewFromInt(10000),
	Percent:        15,
	ValidityMonths: 3,
}

// Issuer evaluates a user's spend after each booking.
type Issuer struct {
	store  Store
	policy Policy
	log    *zap.Logger
}

// NewIssuer returns an Issuer.  A nil logger is replaced with a no-op one.
func NewIssuer(store Store, policy Policy, log *zap.Logger) *Issuer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Issuer{store: store, policy: policy, log: log}
}

// ConfirmedSpend sums TotalPrice over the confirmed reservations in rs.
func ConfirmedSpend(rs []model.Reservation) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rs {
		if r.Status == model.StatusConfirmed {
			total = total.Add(r.TotalPrice)
		}
	}
	return total
}

// MaybeIssue recomputes the user's confirmed spend and, when it is at
// or above the threshold, stores and returns a new coupon.  The full
// history is re-evaluated on every call, so a user already above the
// threshold receives another coupon each time.  The coupon expires
// ValidityMonths after now.  A nil coupon and nil error mean the user
// does not qualify.
func (i *Issuer) MaybeIssue(ctx context.Context, userID uint64, now time.Time) (*model.Coupon, error) {
	rs, err := i.store.ListReservationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	spend := ConfirmedSpend(rs)
	if spend.LessThan(i.policy.Threshold) {
		return nil, nil
	}
	now = now.UTC()
	c := &model.Coupon{
		UserID:          userID,
		Code:            coupon.NewLoyaltyCode(),
		DiscountPercent: i.policy.Percent,
		ExpiryDate:      now.AddDate(0, i.policy.ValidityMonths, 0),
		Used:            false,
	}
	if err := i.store.CreateCoupon(ctx, c); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	i.log.Info("loyalty coupon issued",
		zap.Uint64("user_id", userID),
		zap.String("code", c.Code),
		zap.String("spend", spend.StringFixed(2)))
	return c, nil
}
