package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/coworking-reservation/internal/loyalty"
	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/queue"
)

var (
	day0  = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	clock = day0.Add(-24 * time.Hour)
)

func hours(n int) time.Time { return day0.Add(time.Duration(n) * time.Hour) }

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store  *memStore
	svc    *ReservationService
	events *recorder
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newMemStore()
	st.addWorkspace(model.Workspace{ID: 1, Name: "Hot desk", Type: "desk", PricePerHour: decimal.NewFromInt(10), Available: true})
	st.addWorkspace(model.Workspace{ID: 2, Name: "Board room", Type: "meeting_room", PricePerHour: decimal.NewFromInt(40), Available: true})
	st.addWorkspace(model.Workspace{ID: 3, Name: "Closed office", Type: "office", PricePerHour: decimal.NewFromInt(25), Available: false})

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	events := &recorder{}
	issuer := loyalty.NewIssuer(st, loyalty.DefaultPolicy, log)
	svc := NewReservationService(st, issuer, events, log)
	svc.now = func() time.Time { return clock }
	return &fixture{store: st, svc: svc, events: events, logs: logs}
}

func (f *fixture) book(t *testing.T, user, ws uint64, from, to int, code string) (*model.Reservation, error) {
	t.Helper()
	return f.svc.Create(context.Background(), CreateInput{
		UserID: user, WorkspaceID: ws, Start: hours(from), End: hours(to), CouponCode: code,
	})
}

func TestCreatePricesWithTierAndCoupon(t *testing.T) {
	f := newFixture(t)
	id := f.store.addCoupon(model.Coupon{UserID: 5, Code: "SPRING", DiscountPercent: 15, ExpiryDate: clock.AddDate(0, 1, 0)})

	res, err := f.book(t, 5, 1, 0, 10, "SPRING")
	require.NoError(t, err)
	assert.Equal(t, "76.50", res.TotalPrice.StringFixed(2))
	assert.Equal(t, 10, res.DiscountApplied)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	require.NotNil(t, res.CouponCode)
	assert.Equal(t, "SPRING", *res.CouponCode)
	assert.True(t, f.store.coupon(id).Used)
	assert.Equal(t, []string{queue.TypeReservationConfirmed}, f.events.types())
}

func TestCreateWithoutCoupon(t *testing.T) {
	f := newFixture(t)
	res, err := f.book(t, 5, 1, 0, 2, "")
	require.NoError(t, err)
	assert.Equal(t, "20.00", res.TotalPrice.StringFixed(2))
	assert.Equal(t, 0, res.DiscountApplied)
	assert.Nil(t, res.CouponCode)
}

func TestCreateValidationOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(t, 5, 1, 0, 4, "")
	require.NoError(t, err)

	cases := []struct {
		name     string
		ws       uint64
		from, to int
		code     string
		want     error
	}{
		{"missing workspace wins over bad interval", 99, 5, 5, "", ErrNotFound},
		{"unavailable wins over bad interval", 3, 5, 5, "", ErrResourceUnavailable},
		{"empty interval", 1, 5, 5, "", ErrInvalidInterval},
		{"reversed interval", 1, 6, 5, "", ErrInvalidInterval},
		{"overlap", 1, 3, 6, "", ErrSlotConflict},
		{"conflict wins over bad coupon", 1, 1, 2, "NOPE", ErrSlotConflict},
		{"unknown coupon", 1, 10, 12, "NOPE", ErrCouponInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.book(t, 5, tc.ws, tc.from, tc.to, tc.code)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateAllowsTouchingAndOtherWorkspaces(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(t, 5, 1, 0, 4, "")
	require.NoError(t, err)

	_, err = f.book(t, 6, 1, 4, 6, "")
	assert.NoError(t, err)
	_, err = f.book(t, 6, 2, 0, 4, "")
	assert.NoError(t, err)
}

func TestCouponRejectedWhenExpiredOrUsed(t *testing.T) {
	f := newFixture(t)
	f.store.addCoupon(model.Coupon{UserID: 5, Code: "OLD", DiscountPercent: 50, ExpiryDate: clock})
	f.store.addCoupon(model.Coupon{UserID: 5, Code: "DONE", DiscountPercent: 50, ExpiryDate: clock.AddDate(1, 0, 0), Used: true})
	f.store.addCoupon(model.Coupon{UserID: 6, Code: "THEIRS", DiscountPercent: 50, ExpiryDate: clock.AddDate(1, 0, 0)})

	for _, code := range []string{"OLD", "DONE", "THEIRS"} {
		_, err := f.book(t, 5, 1, 0, 1, code)
		assert.ErrorIs(t, err, ErrCouponInvalid, code)
	}
	assert.Empty(t, f.store.reservations)
}

func TestFailedPersistRollsBackRedemption(t *testing.T) {
	f := newFixture(t)
	id := f.store.addCoupon(model.Coupon{UserID: 5, Code: "SPRING", DiscountPercent: 15, ExpiryDate: clock.AddDate(0, 1, 0)})
	f.store.failCreateReservation = errors.New("connection reset")

	_, err := f.book(t, 5, 1, 0, 10, "SPRING")
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorContains(t, err, "connection reset")
	assert.False(t, f.store.coupon(id).Used)
	assert.Empty(t, f.events.types())
}

func TestNoDoubleBookingUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every request overlaps [2, 4)
			_, errs[i] = f.book(t, uint64(100+i), 1, i%3, 4+i%2, "")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrSlotConflict)
	}
	assert.Equal(t, 1, ok)

	confirmed := []model.Reservation{}
	for _, r := range f.store.reservations {
		if r.WorkspaceID == 1 && r.Status == model.StatusConfirmed {
			confirmed = append(confirmed, r)
		}
	}
	for i := range confirmed {
		for j := i + 1; j < len(confirmed); j++ {
			assert.False(t, confirmed[i].Overlaps(confirmed[j].StartTime, confirmed[j].EndTime))
		}
	}
}

func TestCouponSingleUseUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	id := f.store.addCoupon(model.Coupon{UserID: 5, Code: "ONCE", DiscountPercent: 15, ExpiryDate: clock.AddDate(0, 1, 0)})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.book(t, 5, uint64(i+1), 0, 2, "ONCE")
		}(i)
	}
	wg.Wait()

	var ok, invalid int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrCouponInvalid):
			invalid++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, invalid)
	assert.True(t, f.store.coupon(id).Used)
}

func TestCancelRefundsCouponOnce(t *testing.T) {
	f := newFixture(t)
	id := f.store.addCoupon(model.Coupon{UserID: 5, Code: "SPRING", DiscountPercent: 15, ExpiryDate: clock.AddDate(0, 1, 0)})
	res, err := f.book(t, 5, 1, 0, 10, "SPRING")
	require.NoError(t, err)

	got, err := f.svc.Cancel(context.Background(), res.ID, Requester{UserID: 5})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.False(t, f.store.coupon(id).Used)

	// the refunded coupon can be spent again
	_, err = f.book(t, 5, 2, 0, 1, "SPRING")
	require.NoError(t, err)
	assert.True(t, f.store.coupon(id).Used)

	_, err = f.svc.Cancel(context.Background(), res.ID, Requester{UserID: 5})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.True(t, f.store.coupon(id).Used, "second cancel must not refund again")
}

func TestAdminCancelRefundsOwnersCoupon(t *testing.T) {
	f := newFixture(t)
	owner := f.store.addCoupon(model.Coupon{UserID: 5, Code: "SAME", DiscountPercent: 15, ExpiryDate: clock.AddDate(0, 1, 0)})
	admin := f.store.addCoupon(model.Coupon{UserID: 1, Code: "SAME", DiscountPercent: 15, ExpiryDate: clock.AddDate(0, 1, 0), Used: true})
	res, err := f.book(t, 5, 1, 0, 1, "SAME")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), res.ID, Requester{UserID: 1, Admin: true})
	require.NoError(t, err)
	assert.False(t, f.store.coupon(owner).Used)
	assert.True(t, f.store.coupon(admin).Used)
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture(t)
	res, err := f.book(t, 5, 1, 0, 1, "")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), res.ID, Requester{UserID: 6})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Cancel(context.Background(), 999, Requester{UserID: 5})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelledSlotIsBookableAgain(t *testing.T) {
	f := newFixture(t)
	res, err := f.book(t, 5, 1, 0, 8, "")
	require.NoError(t, err)
	_, err = f.book(t, 6, 1, 2, 4, "")
	require.ErrorIs(t, err, ErrSlotConflict)

	_, err = f.svc.Cancel(context.Background(), res.ID, Requester{UserID: 5})
	require.NoError(t, err)
	_, err = f.book(t, 6, 1, 2, 4, "")
	assert.NoError(t, err)
	assert.Equal(t, []string{queue.TypeReservationConfirmed, queue.TypeReservationCancelled, queue.TypeReservationConfirmed}, f.events.types())
}

func TestLoyaltyCouponIssuedAtThreshold(t *testing.T) {
	f := newFixture(t)
	// 249h at 40/h is 9960 before the 10% day tier
	_, err := f.book(t, 5, 2, 0, 249, "")
	require.NoError(t, err)
	coupons, _ := f.store.ListCoupons(context.Background(), 5)
	assert.Empty(t, coupons)

	// 30 days at 10/h: 7200 with 20% off is 5760, pushing spend past 10000
	_, err = f.book(t, 5, 1, 300, 300+720, "")
	require.NoError(t, err)
	coupons, _ = f.store.ListCoupons(context.Background(), 5)
	require.Len(t, coupons, 1)
	assert.Equal(t, 15, coupons[0].DiscountPercent)
	assert.Equal(t, clock.AddDate(0, 3, 0), coupons[0].ExpiryDate)
	types := f.events.types()
	assert.Equal(t, []string{queue.TypeReservationConfirmed, queue.TypeCouponIssued}, types[len(types)-2:])

	valid, err := f.svc.ValidCoupons(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, valid, 1)
	assert.Equal(t, coupons[0].Code, valid[0].Code)
}

func TestLoyaltyFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.store.failCreateCoupon = errors.New("disk full")
	_, err := f.book(t, 5, 2, 0, 300, "")
	require.NoError(t, err)

	entries := f.logs.FilterMessage("loyalty issuance failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestPublishFailureIsLoggedOnly(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	_, err := f.book(t, 5, 1, 0, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.logs.FilterMessage("event publish failed").Len())
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t)
	early, err := f.book(t, 5, 1, 0, 1, "")
	require.NoError(t, err)
	late, err := f.book(t, 5, 1, 5, 6, "")
	require.NoError(t, err)
	other, err := f.book(t, 6, 2, 0, 1, "")
	require.NoError(t, err)

	v, err := f.svc.Get(context.Background(), early.ID, Requester{UserID: 5})
	require.NoError(t, err)
	assert.Equal(t, "Hot desk", v.WorkspaceName)
	_, err = f.svc.Get(context.Background(), other.ID, Requester{UserID: 5})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Get(context.Background(), other.ID, Requester{UserID: 1, Admin: true})
	assert.NoError(t, err)
	_, err = f.svc.Get(context.Background(), 404, Requester{UserID: 5})
	assert.ErrorIs(t, err, ErrNotFound)

	own, err := f.svc.List(context.Background(), Requester{UserID: 5})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, late.ID, own[0].ID)

	all, err := f.svc.List(context.Background(), Requester{UserID: 1, Admin: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failList = errors.New("timeout")
	_, err := f.svc.List(context.Background(), Requester{UserID: 5})
	assert.ErrorIs(t, err, ErrStorageFailure)
}

func TestValidCoupons(t *testing.T) {
	f := newFixture(t)
	f.store.addCoupon(model.Coupon{UserID: 5, Code: "OK", DiscountPercent: 10, ExpiryDate: clock.AddDate(0, 1, 0)})
	f.store.addCoupon(model.Coupon{UserID: 5, Code: "USED", DiscountPercent: 10, ExpiryDate: clock.AddDate(0, 1, 0), Used: true})
	f.store.addCoupon(model.Coupon{UserID: 5, Code: "OLD", DiscountPercent: 10, ExpiryDate: clock.Add(-time.Second)})

	got, err := f.svc.ValidCoupons(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "OK", got[0].Code)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	q, ws, err := f.svc.Quote(context.Background(), 1, hours(0), hours(10))
	require.NoError(t, err)
	assert.Equal(t, "Hot desk", ws.Name)
	assert.Equal(t, "90.00", q.PriceAfterTier.StringFixed(2))

	_, _, err = f.svc.Quote(context.Background(), 1, hours(2), hours(1))
	assert.ErrorIs(t, err, ErrInvalidInterval)
	_, _, err = f.svc.Quote(context.Background(), 42, hours(0), hours(1))
	assert.ErrorIs(t, err, ErrNotFound)
}
