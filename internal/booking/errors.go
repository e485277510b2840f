package booking

import (
	"errors"
	"fmt"
)

// Failure categories returned by the engine.  Callers compare with
// errors.Is; the wrapped message carries the human readable detail.
var (
	ErrValidation       = errors.New("validation error")
	ErrInvalidDateRange = errors.New("end date must be after start date")
	ErrPastDate         = errors.New("start date is in the past")
	ErrRoomNotFound     = errors.New("room not found")
	ErrNoAvailability   = errors.New("no rooms available for this period")
	ErrPersistence      = errors.New("storage failure")
)

// ErrReservationNotFound is returned by ledgers that update or look up an
// existing reservation which does not exist.
var ErrReservationNotFound = errors.New("reservation not found")

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// Kind returns a stable reason code for err, suitable for API responses and
// metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrInvalidDateRange):
		return "invalid_date_range"
	case errors.Is(err, ErrPastDate):
		return "past_date"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrReservationNotFound):
		return "reservation_not_found"
	case errors.Is(err, ErrNoAvailability):
		return "no_availability"
	default:
		return "persistence_error"
	}
}
