package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TierOverrides holds the per-workspace discount percents.  A nil
// field means the workspace does not override that tier and the
// default policy applies.
type TierOverrides struct {
	Day   *int // workspaces.discount_day (nullable)
	Month *int // workspaces.discount_month (nullable)
	Year  *int // workspaces.discount_year (nullable)
}

// Workspace is a bookable unit (desk, office or meeting room).  The
// catalogue itself is managed elsewhere; the booking engine only reads
// the rate, the availability flag and the discount tiers.
type Workspace struct {
	ID           uint64          // workspaces.id
	Name         string          // workspaces.name
	Type         string          // workspaces.type (desk, office, meeting_room)
	PricePerHour decimal.Decimal // workspaces.price_per_hour
	Available    bool            // workspaces.available
	Discounts    TierOverrides
	CreatedAt    time.Time // workspaces.created_at
}
