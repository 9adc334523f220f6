// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the service layer to
// distinguish between a missing row, a lost compare-and-set race and a
// plain driver failure.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrWorkspaceNotFound is returned when no workspace matches the id.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// ErrReservationNotFound is returned when no reservation matches the id.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrCouponNotFound is returned when a user holds no coupon with the
// requested code.
var ErrCouponNotFound = errors.New("coupon not found")

// ErrCouponAlreadyUsed is returned when the used flag was flipped by
// another transaction between read and write.
var ErrCouponAlreadyUsed = errors.New("coupon already used")

// ErrConflict is returned when an insert violates a unique key, such
// as a second coupon with the same code for one user.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is MySQL error 1062.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}
