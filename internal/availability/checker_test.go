package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

var base = time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func booked(id, ws uint64, from, to int, st model.ReservationStatus) model.Reservation {
	return model.Reservation{ID: id, WorkspaceID: ws, StartTime: at(from), EndTime: at(to), Status: st}
}

func TestHasConflict(t *testing.T) {
	existing := []model.Reservation{
		booked(1, 7, 10, 12, model.StatusConfirmed),
		booked(2, 7, 14, 16, model.StatusCancelled),
		booked(3, 8, 9, 18, model.StatusConfirmed),
	}
	cases := []struct {
		name     string
		from, to int
		want     bool
	}{
		{"inside", 10, 11, true},
		{"covers", 9, 13, true},
		{"overlaps start", 9, 11, true},
		{"overlaps end", 11, 13, true},
		{"touches end", 12, 13, false},
		{"touches start", 8, 10, false},
		{"cancelled slot", 14, 16, false},
		{"free morning", 0, 8, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasConflict(7, at(tc.from), at(tc.to), existing))
		})
	}
}

func TestHasConflictIgnoresOtherWorkspaces(t *testing.T) {
	existing := []model.Reservation{booked(3, 8, 9, 18, model.StatusConfirmed)}
	assert.False(t, HasConflict(7, at(10), at(11), existing))
	assert.True(t, HasConflict(8, at(10), at(11), existing))
}

func TestPendingBlocks(t *testing.T) {
	existing := []model.Reservation{booked(4, 7, 10, 12, model.StatusPending)}
	got := FirstConflict(7, at(11), at(13), existing)
	if assert.NotNil(t, got) {
		assert.Equal(t, uint64(4), got.ID)
	}
}

func TestNoReservations(t *testing.T) {
	assert.False(t, HasConflict(7, at(0), at(1), nil))
}
