package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hotelreserva/hotel-booking/internal/booking"
)

// querier is satisfied by both *sql.DB and *sql.Tx so lookups can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RoomRepo provides CRUD operations for room types.  A room row carries the
// nightly price and the number of interchangeable units; units in use are
// never stored, they are derived from overlapping reservations.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, name, description, image_url, nightly_price, inventory`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (booking.Room, error) {
	var (
		r           booking.Room
		description sql.NullString
		imageURL    sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Name, &description, &imageURL, &r.NightlyPrice, &r.Inventory); err != nil {
		return booking.Room{}, err
	}
	r.Description = description.String
	r.ImageURL = imageURL.String
	return r, nil
}

func findRoom(ctx context.Context, q querier, id uint64) (booking.Room, error) {
	r, err := scanRoom(q.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Room{}, booking.ErrRoomNotFound
	}
	return r, err
}

// RoomByID returns the room or booking.ErrRoomNotFound.
func (r *RoomRepo) RoomByID(ctx context.Context, id uint64) (booking.Room, error) {
	return findRoom(ctx, r.db, id)
}

// List returns every room, newest first.
func (r *RoomRepo) List(ctx context.Context) ([]booking.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rooms := make([]booking.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// Create inserts a room and populates its generated ID.
func (r *RoomRepo) Create(ctx context.Context, room *booking.Room) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (name, description, image_url, nightly_price, inventory) VALUES (?, ?, ?, ?, ?)`,
		room.Name, nullString(room.Description), nullString(room.ImageURL), room.NightlyPrice, room.Inventory)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	return nil
}

// Update overwrites all editable columns of a room and returns the stored
// row.  booking.ErrRoomNotFound is returned when the id does not exist.
func (r *RoomRepo) Update(ctx context.Context, room booking.Room) (booking.Room, error) {
	// RowsAffected is 0 for an unchanged row in MySQL, so existence is
	// checked by reading back instead.
	_, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, description = ?, image_url = ?, nightly_price = ?, inventory = ? WHERE id = ?`,
		room.Name, nullString(room.Description), nullString(room.ImageURL), room.NightlyPrice, room.Inventory, room.ID)
	if err != nil {
		return booking.Room{}, err
	}
	return findRoom(ctx, r.db, room.ID)
}

// Delete removes a room.  Rooms referenced by reservations cannot be
// removed and yield ErrConflict.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		if isMySQLError(err, mysqlRowIsReferenced) {
			return fmt.Errorf("%w: room %d has reservations", ErrConflict, id)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrRoomNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
