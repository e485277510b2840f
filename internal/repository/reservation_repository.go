package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hotelreserva/hotel-booking/internal/booking"
	"github.com/hotelreserva/hotel-booking/internal/model"
)

// ReservationRepo stores reservations and is the ledger the booking engine
// reads from and appends to.  It implements booking.RoomLocker: when the
// engine runs under WithRoomLock, the overlap count and the insert happen
// in one transaction that holds the room row lock, so two bookings for the
// same room type are serialised.  All dates are calendar dates.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

var (
	_ booking.Ledger             = (*ReservationRepo)(nil)
	_ booking.RoomLocker         = (*ReservationRepo)(nil)
	_ booking.ReservationUpdater = (*ReservationRepo)(nil)
	_ booking.ReservationUpdater = (*txLedger)(nil)
)

// RoomByID lets the repository act as a complete ledger on its own.
func (r *ReservationRepo) RoomByID(ctx context.Context, id uint64) (booking.Room, error) {
	return findRoom(ctx, r.db, id)
}

// CountOverlapping counts reservations of roomID whose stay shares at least
// one day with stay, endpoints included.
func (r *ReservationRepo) CountOverlapping(ctx context.Context, roomID uint64, stay booking.Stay, excludeID uint64) (int, error) {
	return countOverlapping(ctx, r.db, roomID, stay, excludeID)
}

// InsertReservation writes a reservation outside of any room lock.  Used on
// its own it reproduces the plain count-then-insert race; the engine only
// calls it this way when the ledger is not a RoomLocker.
func (r *ReservationRepo) InsertReservation(ctx context.Context, res booking.Reservation) (booking.Reservation, error) {
	return insertReservation(ctx, r.db, res)
}

// UpdateReservation overwrites an existing reservation.
func (r *ReservationRepo) UpdateReservation(ctx context.Context, res booking.Reservation) (booking.Reservation, error) {
	return updateReservation(ctx, r.db, res)
}

// WithRoomLock opens a READ COMMITTED transaction, locks the room row with
// SELECT ... FOR UPDATE and runs fn with a ledger bound to that
// transaction.  Concurrent callers for the same room wait on the lock and
// then count rows committed by the previous holder.  The transaction is
// committed only when fn returns nil.
func (r *ReservationRepo) WithRoomLock(ctx context.Context, roomID uint64, fn func(booking.Ledger) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, roomID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("lock room: %w", err)
	}

	if err := fn(&txLedger{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// txLedger is the ledger handed to WithRoomLock callbacks.
type txLedger struct {
	tx *sql.Tx
}

func (l *txLedger) RoomByID(ctx context.Context, id uint64) (booking.Room, error) {
	return findRoom(ctx, l.tx, id)
}

func (l *txLedger) CountOverlapping(ctx context.Context, roomID uint64, stay booking.Stay, excludeID uint64) (int, error) {
	return countOverlapping(ctx, l.tx, roomID, stay, excludeID)
}

func (l *txLedger) InsertReservation(ctx context.Context, res booking.Reservation) (booking.Reservation, error) {
	return insertReservation(ctx, l.tx, res)
}

func (l *txLedger) UpdateReservation(ctx context.Context, res booking.Reservation) (booking.Reservation, error) {
	return updateReservation(ctx, l.tx, res)
}

func countOverlapping(ctx context.Context, q querier, roomID uint64, stay booking.Stay, excludeID uint64) (int, error) {
	const query = `SELECT COUNT(*) FROM reservations
WHERE room_id = ? AND start_date <= ? AND end_date >= ? AND id <> ?`
	var n int
	err := q.QueryRowContext(ctx, query, roomID, stay.End, stay.Start, excludeID).Scan(&n)
	return n, err
}

const reservationColumns = `id, room_id, client_id, guests, start_date, end_date, total_price, created_at`

func scanReservation(row rowScanner, res *booking.Reservation) error {
	return row.Scan(&res.ID, &res.RoomID, &res.ClientID, &res.Guests,
		&res.Stay.Start, &res.Stay.End, &res.TotalPrice, &res.CreatedAt)
}

func insertReservation(ctx context.Context, q querier, res booking.Reservation) (booking.Reservation, error) {
	const ins = `INSERT INTO reservations (room_id, client_id, guests, start_date, end_date, total_price) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, ins, res.RoomID, res.ClientID, res.Guests, res.Stay.Start, res.Stay.End, res.TotalPrice)
	if err != nil {
		return booking.Reservation{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return booking.Reservation{}, err
	}
	// Query back the full row to populate created_at
	return getReservation(ctx, q, uint64(id))
}

func updateReservation(ctx context.Context, q querier, res booking.Reservation) (booking.Reservation, error) {
	const upd = `UPDATE reservations SET room_id = ?, guests = ?, start_date = ?, end_date = ?, total_price = ? WHERE id = ?`
	if _, err := q.ExecContext(ctx, upd, res.RoomID, res.Guests, res.Stay.Start, res.Stay.End, res.TotalPrice, res.ID); err != nil {
		return booking.Reservation{}, err
	}
	return getReservation(ctx, q, res.ID)
}

func getReservation(ctx context.Context, q querier, id uint64) (booking.Reservation, error) {
	var res booking.Reservation
	err := scanReservation(q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id), &res)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	return res, err
}

// GetByID returns a reservation without room details, or
// booking.ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (booking.Reservation, error) {
	return getReservation(ctx, r.db, id)
}

const detailSelect = `SELECT r.id, r.room_id, r.client_id, r.guests, r.start_date, r.end_date, r.total_price, r.created_at,
       q.name, q.description, q.image_url
FROM reservations r
JOIN rooms q ON q.id = r.room_id`

func (r *ReservationRepo) listDetails(ctx context.Context, query string, args ...any) ([]model.ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationDetail, 0)
	for rows.Next() {
		var (
			d           model.ReservationDetail
			description sql.NullString
			imageURL    sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.RoomID, &d.ClientID, &d.Guests, &d.Stay.Start, &d.Stay.End,
			&d.TotalPrice, &d.CreatedAt, &d.RoomName, &description, &imageURL); err != nil {
			return nil, err
		}
		d.RoomDescription = description.String
		d.RoomImageURL = imageURL.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// List returns every reservation, newest first.
func (r *ReservationRepo) List(ctx context.Context) ([]model.ReservationDetail, error) {
	return r.listDetails(ctx, detailSelect+` ORDER BY r.id DESC`)
}

// ListByClient returns a client's reservations, latest stay first.
func (r *ReservationRepo) ListByClient(ctx context.Context, clientID uint64) ([]model.ReservationDetail, error) {
	return r.listDetails(ctx, detailSelect+` WHERE r.client_id = ? ORDER BY r.start_date DESC, r.id DESC`, clientID)
}

// Delete removes a reservation.  Units become available again as soon as
// the row is gone, since inventory is always derived by counting.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrReservationNotFound
	}
	return nil
}
