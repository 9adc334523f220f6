package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations.  Rows are never
// deleted; cancellation is a status update.  All timestamp fields are
// assumed to be stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `r.id, r.user_id, r.workspace_id, r.start_time, r.end_time,
							r.total_price, r.discount_applied, r.coupon_code, r.status,
							r.created_at, r.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner, extra ...any) (*model.Reservation, error) {
	var (
		res    model.Reservation
		code   sql.NullString
		status string
	)
	dest := []any{
		&res.ID, &res.UserID, &res.WorkspaceID, &res.StartTime, &res.EndTime,
		&res.TotalPrice, &res.DiscountApplied, &code, &status,
		&res.CreatedAt, &res.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if code.Valid {
		c := code.String
		res.CouponCode = &c
	}
	res.Status = model.ReservationStatus(status)
	if !res.Status.Valid() {
		return nil, fmt.Errorf("reservation %d: unknown status %q", res.ID, status)
	}
	return &res, nil
}

// CreateTx inserts res within tx and fills in its generated id and
// timestamps.  The caller must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
			   (user_id, workspace_id, start_time, end_time, total_price, discount_applied, coupon_code, status)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var code sql.NullString
	if res.CouponCode != nil {
		code = sql.NullString{String: *res.CouponCode, Valid: true}
	}
	result, err := tx.ExecContext(ctx, q,
		res.UserID, res.WorkspaceID, res.StartTime.UTC(), res.EndTime.UTC(),
		res.TotalPrice.StringFixed(2), res.DiscountApplied, code, string(res.Status))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res.ID = uint64(id)
	res.CreatedAt = now
	res.UpdatedAt = now
	return nil
}

// ListBlockingOverlappingTx returns the pending or confirmed reservations
// of workspaceID that intersect [start, end).  Touching endpoints are
// excluded.  Rows are locked for the rest of tx.
func (r *ReservationRepo) ListBlockingOverlappingTx(ctx context.Context, tx *sql.Tx, workspaceID uint64, start, end time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
			   FROM reservations r
			   WHERE r.workspace_id = ?
				 AND r.status IN ('pending', 'confirmed')
				 AND r.start_time < ? AND r.end_time > ?
			   FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, workspaceID, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// GetForUpdateTx loads a reservation and locks its row for the rest of
// tx.  ErrReservationNotFound is returned when it does not exist.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ? FOR UPDATE`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// UpdateStatusTx sets the status of reservation id.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus) error {
	result, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// ListByUser returns every reservation of userID regardless of status.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE r.user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

const viewQuery = `SELECT ` + reservationColumns + `, w.name, w.type
				   FROM reservations r
				   JOIN workspaces w ON w.id = r.workspace_id`

// GetView returns a reservation with its workspace name and type.
func (r *ReservationRepo) GetView(ctx context.Context, id uint64) (*model.ReservationView, error) {
	var v model.ReservationView
	row := r.db.QueryRowContext(ctx, viewQuery+` WHERE r.id = ?`, id)
	res, err := scanReservation(row, &v.WorkspaceName, &v.WorkspaceType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	v.Reservation = *res
	return &v, nil
}

// ListViews returns reservations newest start time first.  When userID
// is nil every reservation is returned, otherwise only that user's.
func (r *ReservationRepo) ListViews(ctx context.Context, userID *uint64) ([]model.ReservationView, error) {
	q := viewQuery
	args := []any{}
	if userID != nil {
		q += ` WHERE r.user_id = ?`
		args = append(args, *userID)
	}
	q += ` ORDER BY r.start_time DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationView, 0)
	for rows.Next() {
		var v model.ReservationView
		res, err := scanReservation(rows, &v.WorkspaceName, &v.WorkspaceType)
		if err != nil {
			return nil, err
		}
		v.Reservation = *res
		out = append(out, v)
	}
	return out, rows.Err()
}
