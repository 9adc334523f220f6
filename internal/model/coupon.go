package model

import "time"

// Coupon is a single-use percent discount owned by one user.  Codes
// are unique per user.  A coupon is redeemable while it is unused
// and its expiry lies in the future.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – owning user.
//  Code            – code the user types at checkout.
//  DiscountPercent – 0..100, applied after the tier discount.
//  ExpiryDate      – coupon is invalid from this instant on.
//  Used            – set on redemption, cleared on refund.
//  CreatedAt       – creation timestamp.
type Coupon struct {
	ID              uint64    // coupons.id
	UserID          uint64    // coupons.user_id
	Code            string    // coupons.code
	DiscountPercent int       // coupons.discount_percent
	ExpiryDate      time.Time // coupons.expiry_date
	Used            bool      // coupons.used
	CreatedAt       time.Time // coupons.created_at
}

// Redeemable reports whether the coupon can be applied at now.
func (c Coupon) Redeemable(now time.Time) bool {
	return !c.Used && c.ExpiryDate.After(now)
}
