package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/repository"
)

// memStore is an in-memory Store.  Transactions are serialised by one
// mutex and work on a copy of the state that is swapped in on commit.
type memStore struct {
	mu           sync.Mutex
	workspaces   map[uint64]model.Workspace
	reservations []model.Reservation
	coupons      []model.Coupon
	nextID       uint64

	failCreateReservation error
	failCreateCoupon      error
	failList              error
}

func newMemStore() *memStore {
	return &memStore{workspaces: map[uint64]model.Workspace{}}
}

type memState struct {
	reservations []model.Reservation
	coupons      []model.Coupon
	nextID       uint64
}

func (m *memStore) snapshot() *memState {
	st := &memState{nextID: m.nextID}
	st.reservations = append(st.reservations, m.reservations...)
	st.coupons = append(st.coupons, m.coupons...)
	return st
}

func (m *memStore) InTx(ctx context.Context, fn func(tx BookingTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{store: m, st: m.snapshot()}
	if err := fn(tx); err != nil {
		return err
	}
	m.reservations = tx.st.reservations
	m.coupons = tx.st.coupons
	m.nextID = tx.st.nextID
	return nil
}

func (m *memStore) GetWorkspace(_ context.Context, id uint64) (*model.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workspaces[id]
	if !ok {
		return nil, repository.ErrWorkspaceNotFound
	}
	return &w, nil
}

func (m *memStore) view(r model.Reservation) model.ReservationView {
	w := m.workspaces[r.WorkspaceID]
	return model.ReservationView{Reservation: r, WorkspaceName: w.Name, WorkspaceType: w.Type}
}

func (m *memStore) GetReservationView(_ context.Context, id uint64) (*model.ReservationView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.ID == id {
			v := m.view(r)
			return &v, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (m *memStore) ListReservationViews(_ context.Context, userID *uint64) ([]model.ReservationView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	out := []model.ReservationView{}
	for _, r := range m.reservations {
		if userID == nil || r.UserID == *userID {
			out = append(out, m.view(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *memStore) ListReservationsByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListCoupons(_ context.Context, userID uint64) ([]model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Coupon
	for _, c := range m.coupons {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) CreateCoupon(_ context.Context, c *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateCoupon != nil {
		return m.failCreateCoupon
	}
	m.nextID++
	c.ID = m.nextID
	m.coupons = append(m.coupons, *c)
	return nil
}

func (m *memStore) addWorkspace(w model.Workspace) {
	m.workspaces[w.ID] = w
}

func (m *memStore) addCoupon(c model.Coupon) uint64 {
	m.nextID++
	c.ID = m.nextID
	m.coupons = append(m.coupons, c)
	return c.ID
}

func (m *memStore) coupon(id uint64) model.Coupon {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.ID == id {
			return c
		}
	}
	return model.Coupon{}
}

type memTx struct {
	store *memStore
	st    *memState
}

func (t *memTx) LockWorkspace(_ context.Context, id uint64) (*model.Workspace, error) {
	w, ok := t.store.workspaces[id]
	if !ok {
		return nil, repository.ErrWorkspaceNotFound
	}
	return &w, nil
}

func (t *memTx) BlockingOverlaps(_ context.Context, workspaceID uint64, start, end time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range t.st.reservations {
		if r.WorkspaceID == workspaceID && r.Status.Blocking() && r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *memTx) LockCoupons(_ context.Context, userID uint64) ([]model.Coupon, error) {
	var out []model.Coupon
	for _, c := range t.st.coupons {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (t *memTx) LockCoupon(_ context.Context, userID uint64, code string) (*model.Coupon, error) {
	for _, c := range t.st.coupons {
		if c.UserID == userID && c.Code == code {
			return &c, nil
		}
	}
	return nil, repository.ErrCouponNotFound
}

func (t *memTx) MarkCouponUsed(_ context.Context, id uint64) error {
	for i := range t.st.coupons {
		if t.st.coupons[i].ID == id {
			if t.st.coupons[i].Used {
				return repository.ErrCouponAlreadyUsed
			}
			t.st.coupons[i].Used = true
			return nil
		}
	}
	return repository.ErrCouponAlreadyUsed
}

func (t *memTx) MarkCouponUnused(_ context.Context, id uint64) error {
	for i := range t.st.coupons {
		if t.st.coupons[i].ID == id {
			t.st.coupons[i].Used = false
		}
	}
	return nil
}

func (t *memTx) CreateReservation(_ context.Context, r *model.Reservation) error {
	if t.store.failCreateReservation != nil {
		return t.store.failCreateReservation
	}
	t.st.nextID++
	r.ID = t.st.nextID
	t.st.reservations = append(t.st.reservations, *r)
	return nil
}

func (t *memTx) LockReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	for _, r := range t.st.reservations {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (t *memTx) UpdateReservationStatus(_ context.Context, id uint64, status model.ReservationStatus) error {
	for i := range t.st.reservations {
		if t.st.reservations[i].ID == id {
			t.st.reservations[i].Status = status
			return nil
		}
	}
	return repository.ErrReservationNotFound
}
