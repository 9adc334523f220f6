package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

// CouponRepo persists the coupon wallet of each user.  Codes are unique
// per user (uq_coupons_user_code).
type CouponRepo struct {
	db *sql.DB
}

// NewCouponRepo returns a new CouponRepo bound to the given database.
func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{db: db} }

const couponColumns = `id, user_id, code, discount_percent, expiry_date, used, created_at`

func scanCoupon(row rowScanner) (*model.Coupon, error) {
	var c model.Coupon
	if err := row.Scan(&c.ID, &c.UserID, &c.Code, &c.DiscountPercent, &c.ExpiryDate, &c.Used, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCoupons(rows *sql.Rows) ([]model.Coupon, error) {
	defer rows.Close()
	out := make([]model.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ListByUser returns all coupons of userID, used and expired included.
func (r *CouponRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons WHERE user_id = ? ORDER BY expiry_date`, userID)
	if err != nil {
		return nil, err
	}
	return collectCoupons(rows)
}

// ListByUserForUpdateTx is ListByUser inside tx with the rows locked,
// so a concurrent booking of the same user waits before it can read a
// coupon this transaction may redeem.
func (r *CouponRepo) ListByUserForUpdateTx(ctx context.Context, tx *sql.Tx, userID uint64) ([]model.Coupon, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons WHERE user_id = ? ORDER BY expiry_date FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}
	return collectCoupons(rows)
}

// FindByCodeForUpdateTx returns userID's coupon with code, locked for
// the rest of tx, or ErrCouponNotFound.
func (r *CouponRepo) FindByCodeForUpdateTx(ctx context.Context, tx *sql.Tx, userID uint64, code string) (*model.Coupon, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+couponColumns+` FROM coupons WHERE user_id = ? AND code = ? FOR UPDATE`, userID, code)
	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	return c, err
}

// MarkUsedTx flips used from false to true.  The update only matches an
// unused row, so of two transactions racing on the same coupon exactly
// one succeeds and the other gets ErrCouponAlreadyUsed.
func (r *CouponRepo) MarkUsedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	result, err := tx.ExecContext(ctx, `UPDATE coupons SET used = 1 WHERE id = ? AND used = 0`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrCouponAlreadyUsed
	}
	return nil
}

// MarkUnusedTx clears the used flag.  Clearing an already unused coupon
// is a no-op.
func (r *CouponRepo) MarkUnusedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE coupons SET used = 0 WHERE id = ?`, id)
	return err
}

// Create inserts c and fills in its id.  A duplicate code for the same
// user yields ErrConflict.
func (r *CouponRepo) Create(ctx context.Context, c *model.Coupon) error {
	const q = `INSERT INTO coupons (user_id, code, discount_percent, expiry_date, used) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, c.UserID, c.Code, c.DiscountPercent, c.ExpiryDate.UTC(), c.Used)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.CreatedAt = time.Now().UTC()
	return nil
}
