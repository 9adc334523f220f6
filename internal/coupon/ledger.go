// Package coupon validates, redeems and refunds a user's coupons.
// Functions here operate on in-memory records; persisting the flips
// of the Used flag is the caller's job and must happen in the same
// transaction as the reservation write.
package coupon

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/pricing"
)

// ErrInvalid is returned when a code is unknown, already used or expired.
var ErrInvalid = errors.New("invalid or expired coupon")

// LoyaltyPrefix starts every code generated by the loyalty program.
const LoyaltyPrefix = "LOYAL"

// FindRedeemable returns the coupon matching code that is unused and
// not yet expired at now.
func FindRedeemable(coupons []model.Coupon, code string, now time.Time) (*model.Coupon, error) {
	for i := range coupons {
		if coupons[i].Code == code && coupons[i].Redeemable(now) {
			return &coupons[i], nil
		}
	}
	return nil, ErrInvalid
}

// Redeem applies c to priceAfterTier, marks c used and returns the
// final price.  The coupon discount is taken from the already tier
// discounted price.
func Redeem(c *model.Coupon, priceAfterTier decimal.Decimal) decimal.Decimal {
	discount := pricing.ApplyPercent(priceAfterTier, c.DiscountPercent)
	c.Used = true
	return priceAfterTier.Sub(discount)
}

// Refund makes c usable again.
func Refund(c *model.Coupon) {
	c.Used = false
}

// ListValid returns the coupons that are unused and unexpired at now.
func ListValid(coupons []model.Coupon, now time.Time) []model.Coupon {
	out := make([]model.Coupon, 0, len(coupons))
	for _, c := range coupons {
		if c.Redeemable(now) {
			out = append(out, c)
		}
	}
	return out
}

// NewLoyaltyCode returns a fresh code such as LOYAL3F9A21C0.
func NewLoyaltyCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return LoyaltyPrefix + strings.ToUpper(raw[:8])
}
