// Package pricing computes the price of a booking from an hourly rate,
// the booked interval and the workspace's duration discount tiers.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

// Tier names the duration band a booking falls into.
type Tier string

const (
	TierNone  Tier = "none"
	TierDay   Tier = "day"
	TierMonth Tier = "month"
	TierYear  Tier = "year"
)

// Band lower bounds.  Bands are half-open: [DayThreshold, MonthThreshold)
// is the day tier and so on.
const (
	DayThreshold   = 8 * time.Hour
	MonthThreshold = 30 * 24 * time.Hour
	YearThreshold  = 365 * 24 * time.Hour
)

// Tiers is a resolved discount policy, each value a percent in 0..100.
type Tiers struct {
	Day   int
	Month int
	Year  int
}

// DefaultTiers applies to every tier a workspace does not override.
var DefaultTiers = Tiers{Day: 10, Month: 20, Year: 30}

// ResolveTiers fills the gaps in a workspace's overrides with DefaultTiers.
func ResolveTiers(o model.TierOverrides) Tiers {
	t := DefaultTiers
	if o.Day != nil {
		t.Day = *o.Day
	}
	if o.Month != nil {
		t.Month = *o.Month
	}
	if o.Year != nil {
		t.Year = *o.Year
	}
	return t
}

// Quote is the result of pricing an interval before any coupon.
// Values keep full precision; use Round for display.
type Quote struct {
	DurationHours  decimal.Decimal
	BasePrice      decimal.Decimal
	Tier           Tier
	TierPercent    int
	DiscountAmount decimal.Decimal
	PriceAfterTier decimal.Decimal
}

var (
	hundred  = decimal.NewFromInt(100)
	nsInHour = decimal.NewFromInt(int64(time.Hour))
)

// SelectTier returns the band for duration d and its percent under t.
func SelectTier(d time.Duration, t Tiers) (Tier, int) {
	switch {
	case d >= YearThreshold:
		return TierYear, t.Year
	case d >= MonthThreshold:
		return TierMonth, t.Month
	case d >= DayThreshold:
		return TierDay, t.Day
	default:
		return TierNone, 0
	}
}

// Calculate prices [start, end) at rate per hour.  The caller must
// reject start >= end beforehand.
func Calculate(rate decimal.Decimal, start, end time.Time, t Tiers) Quote {
	d := end.Sub(start)
	hours := decimal.NewFromInt(int64(d)).Div(nsInHour)
	base := rate.Mul(hours)
	tier, pct := SelectTier(d, t)
	discount := ApplyPercent(base, pct)
	return Quote{
		DurationHours:  hours,
		BasePrice:      base,
		Tier:           tier,
		TierPercent:    pct,
		DiscountAmount: discount,
		PriceAfterTier: base.Sub(discount),
	}
}

// ApplyPercent returns amount * pct / 100.
func ApplyPercent(amount decimal.Decimal, pct int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(pct))).Div(hundred)
}

// Round rounds a monetary amount to cents for display and persistence.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
