package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/repository"
)

// BookingTx is the set of reads and writes a booking or a cancellation
// performs atomically.  Lock methods hold their rows until the
// transaction ends.
type BookingTx interface {
	LockWorkspace(ctx context.Context, id uint64) (*model.Workspace, error)
	BlockingOverlaps(ctx context.Context, workspaceID uint64, start, end time.Time) ([]model.Reservation, error)
	LockCoupons(ctx context.Context, userID uint64) ([]model.Coupon, error)
	LockCoupon(ctx context.Context, userID uint64, code string) (*model.Coupon, error)
	MarkCouponUsed(ctx context.Context, id uint64) error
	MarkCouponUnused(ctx context.Context, id uint64) error
	CreateReservation(ctx context.Context, r *model.Reservation) error
	LockReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error
}

// Store is the persistence ReservationService depends on.  InTx commits
// when fn returns nil and rolls back otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(tx BookingTx) error) error
	GetWorkspace(ctx context.Context, id uint64) (*model.Workspace, error)
	GetReservationView(ctx context.Context, id uint64) (*model.ReservationView, error)
	ListReservationViews(ctx context.Context, userID *uint64) ([]model.ReservationView, error)
	ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListCoupons(ctx context.Context, userID uint64) ([]model.Coupon, error)
	CreateCoupon(ctx context.Context, c *model.Coupon) error
}

// SQLStore adapts repository.Store to Store.
type SQLStore struct {
	repo *repository.Store
}

// NewSQLStore returns a Store backed by MySQL.
func NewSQLStore(repo *repository.Store) *SQLStore { return &SQLStore{repo: repo} }

func (s *SQLStore) InTx(ctx context.Context, fn func(tx BookingTx) error) error {
	return s.repo.InTx(ctx, func(tx *sql.Tx) error {
		return fn(&sqlTx{repo: s.repo, tx: tx})
	})
}

func (s *SQLStore) GetWorkspace(ctx context.Context, id uint64) (*model.Workspace, error) {
	return s.repo.Workspaces.GetByID(ctx, id)
}

func (s *SQLStore) GetReservationView(ctx context.Context, id uint64) (*model.ReservationView, error) {
	return s.repo.Reservations.GetView(ctx, id)
}

func (s *SQLStore) ListReservationViews(ctx context.Context, userID *uint64) ([]model.ReservationView, error) {
	return s.repo.Reservations.ListViews(ctx, userID)
}

func (s *SQLStore) ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.repo.Reservations.ListByUser(ctx, userID)
}

func (s *SQLStore) ListCoupons(ctx context.Context, userID uint64) ([]model.Coupon, error) {
	return s.repo.Coupons.ListByUser(ctx, userID)
}

func (s *SQLStore) CreateCoupon(ctx context.Context, c *model.Coupon) error {
	return s.repo.Coupons.Create(ctx, c)
}

type sqlTx struct {
	repo *repository.Store
	tx   *sql.Tx
}

func (t *sqlTx) LockWorkspace(ctx context.Context, id uint64) (*model.Workspace, error) {
	return t.repo.Workspaces.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) BlockingOverlaps(ctx context.Context, workspaceID uint64, start, end time.Time) ([]model.Reservation, error) {
	return t.repo.Reservations.ListBlockingOverlappingTx(ctx, t.tx, workspaceID, start, end)
}

func (t *sqlTx) LockCoupons(ctx context.Context, userID uint64) ([]model.Coupon, error) {
	return t.repo.Coupons.ListByUserForUpdateTx(ctx, t.tx, userID)
}

func (t *sqlTx) LockCoupon(ctx context.Context, userID uint64, code string) (*model.Coupon, error) {
	return t.repo.Coupons.FindByCodeForUpdateTx(ctx, t.tx, userID, code)
}

func (t *sqlTx) MarkCouponUsed(ctx context.Context, id uint64) error {
	return t.repo.Coupons.MarkUsedTx(ctx, t.tx, id)
}

func (t *sqlTx) MarkCouponUnused(ctx context.Context, id uint64) error {
	return t.repo.Coupons.MarkUnusedTx(ctx, t.tx, id)
}

func (t *sqlTx) CreateReservation(ctx context.Context, r *model.Reservation) error {
	return t.repo.Reservations.CreateTx(ctx, t.tx, r)
}

func (t *sqlTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return t.repo.Reservations.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	return t.repo.Reservations.UpdateStatusTx(ctx, t.tx, id, status)
}
