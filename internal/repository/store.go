package repository

import (
	"context"
	"database/sql"
)

// Store bundles the repositories that share one connection pool and
// runs units of work across them.
type Store struct {
	db           *sql.DB
	Workspaces   *WorkspaceRepo
	Reservations *ReservationRepo
	Coupons      *CouponRepo
	Users        *UserRepo
}

// NewStore wires every repository to db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Workspaces:   NewWorkspaceRepo(db),
		Reservations: NewReservationRepo(db),
		Coupons:      NewCouponRepo(db),
		Users:        NewUserRepo(db),
	}
}

// InTx runs fn inside a transaction.  The transaction commits when fn
// returns nil and rolls back otherwise, including on panic.
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
