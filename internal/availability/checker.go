// Package availability decides whether a workspace slot is free.
package availability

import (
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

// HasConflict reports whether any blocking reservation of workspaceID
// in existing overlaps [start, end).  Cancelled reservations never
// block; pending ones do.
func HasConflict(workspaceID uint64, start, end time.Time, existing []model.Reservation) bool {
	return FirstConflict(workspaceID, start, end, existing) != nil
}

// FirstConflict returns the first reservation that blocks [start, end),
// or nil when the slot is free.
func FirstConflict(workspaceID uint64, start, end time.Time, existing []model.Reservation) *model.Reservation {
	for i := range existing {
		r := &existing[i]
		if r.WorkspaceID != workspaceID || !r.Status.Blocking() {
			continue
		}
		if r.Overlaps(start, end) {
			return r
		}
	}
	return nil
}
