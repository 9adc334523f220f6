package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/coworking-reservation/internal/repository"
)

// Errors returned by ReservationService.  Handlers map each one to a
// distinct HTTP status.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInterval     = errors.New("start time must be before end time")
	ErrResourceUnavailable = errors.New("workspace is not available")
	ErrSlotConflict        = errors.New("workspace is already booked for this time")
	ErrCouponInvalid       = errors.New("invalid or expired coupon")
	ErrAlreadyCancelled    = errors.New("reservation is already cancelled")
	ErrStorageFailure      = errors.New("storage failure")
)

var domainErrors = []error{
	ErrNotFound, ErrForbidden, ErrInvalidInterval, ErrResourceUnavailable,
	ErrSlotConflict, ErrCouponInvalid, ErrAlreadyCancelled, ErrStorageFailure,
}

// classify turns a repository or driver error into one of the errors
// above.  Errors that already belong to the taxonomy pass through.
// Anything unknown is reported as ErrStorageFailure with the cause kept
// in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	switch {
	case errors.Is(err, repository.ErrWorkspaceNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrCouponNotFound),
		errors.Is(err, repository.ErrCouponAlreadyUsed):
		return fmt.Errorf("%w: %w", ErrCouponInvalid, err)
	}
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}
