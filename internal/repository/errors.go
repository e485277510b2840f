// Package repository stores rooms, clients, refresh tokens and reservations
// in MySQL.  Lookups of rooms and reservations return the booking package's
// not-found errors so the engine and the handlers share one vocabulary; the
// sentinels below cover everything else.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrForbidden is returned when a client acts on a reservation it does
	// not own.  Handlers answer 403.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a room type still has reservations and
	// cannot be removed.  Handlers answer 409.
	ErrConflict = errors.New("conflict")

	// ErrEmailExists is returned when registering or renaming to an email
	// that another client already uses.
	ErrEmailExists = errors.New("email already exists")

	// ErrRefreshInvalid covers unknown, expired and revoked refresh tokens
	// alike.
	ErrRefreshInvalid = errors.New("refresh token invalid")
)

// MySQL error numbers translated into the sentinels above.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
)

func isMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}
