// Package booking decides whether a hotel stay can be booked and at what
// price, and records accepted reservations through the storage
// capabilities it is handed.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/metrics"
)

// RoomLookup returns a room by id, or ErrRoomNotFound.
type RoomLookup interface {
	RoomByID(ctx context.Context, id uint64) (Room, error)
}

// OverlapCounter counts reservations of a room whose stay overlaps the given
// one (inclusive endpoints).  A non-zero excludeID leaves that reservation
// out of the count.
type OverlapCounter interface {
	CountOverlapping(ctx context.Context, roomID uint64, stay Stay, excludeID uint64) (int, error)
}

// ReservationWriter durably inserts a reservation and returns the stored
// record including its generated id.
type ReservationWriter interface {
	InsertReservation(ctx context.Context, r Reservation) (Reservation, error)
}

// ReservationUpdater overwrites an existing reservation, or returns
// ErrReservationNotFound.
type ReservationUpdater interface {
	UpdateReservation(ctx context.Context, r Reservation) (Reservation, error)
}

// Ledger is the storage the engine reads from and appends to.
type Ledger interface {
	RoomLookup
	OverlapCounter
	ReservationWriter
}

// RoomLocker is implemented by ledgers that can run the count and the write
// for one room as a single atomic unit.  fn receives a ledger bound to that
// unit; whatever fn returns is returned unchanged.
type RoomLocker interface {
	WithRoomLock(ctx context.Context, roomID uint64, fn func(Ledger) error) error
}

// Quote is a read-only availability and price preview.
type Quote struct {
	RoomID uint64 `json:"room_id"`
	Stay
	Nights    int   `json:"nights"`
	Inventory int   `json:"inventory"`
	Booked    int   `json:"booked"`
	Available int   `json:"available"`
	Total     Cents `json:"total_price"`
}

// Engine evaluates booking requests.  It keeps no state between calls.
type Engine struct {
	log *logrus.Entry
	now func() time.Time
	loc *time.Location
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLocation sets the calendar in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine builds an Engine logging through log.
func NewEngine(log *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		log: log.WithField("component", "booking"),
		now: time.Now,
		loc: time.Local,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Today is the current calendar day in the engine's location.
func (e *Engine) Today() Date { return DateOf(e.now().In(e.loc)) }

// EvaluateAndReserve validates req, checks that an unbooked unit of the room
// exists for the whole stay, prices the stay and inserts the reservation.
// Nothing is written unless every check passes.  When ledger implements
// RoomLocker the count and the insert run under its lock; otherwise two
// concurrent calls may both pass the availability check.
func (e *Engine) EvaluateAndReserve(ctx context.Context, req Request, ledger Ledger) (res Reservation, err error) {
	started := time.Now()
	defer func() { e.record("create", req, started, err) }()

	if err := e.checkRequest(req); err != nil {
		return Reservation{}, err
	}

	err = e.locked(ctx, req.RoomID, ledger, func(l Ledger) error {
		room, total, err := e.price(ctx, l, req, 0)
		if err != nil {
			return err
		}
		res, err = l.InsertReservation(ctx, Reservation{
			RoomID:     room.ID,
			ClientID:   req.ClientID,
			Guests:     req.Guests,
			Stay:       req.Stay,
			TotalPrice: total,
		})
		if err != nil {
			return persistence("insert reservation", err)
		}
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}
	return res, nil
}

// Reschedule applies req to the existing reservation id: same checks as a
// new booking, with the reservation itself left out of the overlap count,
// and a fresh total price.
func (e *Engine) Reschedule(ctx context.Context, id uint64, req Request, ledger Ledger) (res Reservation, err error) {
	started := time.Now()
	defer func() { e.record("reschedule", req, started, err) }()

	if id == 0 {
		return Reservation{}, validationf("reservation id is required")
	}
	if err := e.checkRequest(req); err != nil {
		return Reservation{}, err
	}

	err = e.locked(ctx, req.RoomID, ledger, func(l Ledger) error {
		upd, ok := l.(ReservationUpdater)
		if !ok {
			return persistence("update reservation", errors.New("ledger cannot update reservations"))
		}
		room, total, err := e.price(ctx, l, req, id)
		if err != nil {
			return err
		}
		res, err = upd.UpdateReservation(ctx, Reservation{
			ID:         id,
			RoomID:     room.ID,
			ClientID:   req.ClientID,
			Guests:     req.Guests,
			Stay:       req.Stay,
			TotalPrice: total,
		})
		if err != nil {
			if errors.Is(err, ErrReservationNotFound) {
				return err
			}
			return persistence("update reservation", err)
		}
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}
	return res, nil
}

// Quote reports availability and the price of a stay without writing.
func (e *Engine) Quote(ctx context.Context, roomID uint64, stay Stay, lookup RoomLookup, counter OverlapCounter) (q Quote, err error) {
	started := time.Now()
	defer func() { metrics.ObserveDecision("quote", Kind(err), time.Since(started)) }()

	if roomID == 0 {
		return Quote{}, validationf("room_id must be a positive integer")
	}
	if stay.Start.IsZero() || stay.End.IsZero() {
		return Quote{}, validationf("start_date and end_date are required")
	}
	if err := e.checkDates(stay); err != nil {
		return Quote{}, err
	}
	room, err := lookupRoom(ctx, lookup, roomID)
	if err != nil {
		return Quote{}, err
	}
	booked, err := counter.CountOverlapping(ctx, roomID, stay, 0)
	if err != nil {
		return Quote{}, persistence("count overlapping reservations", err)
	}
	nights := stay.Nights()
	total, err := stayTotal(room, nights)
	if err != nil {
		return Quote{}, err
	}
	q = Quote{
		RoomID:    roomID,
		Stay:      stay,
		Nights:    nights,
		Inventory: room.Inventory,
		Booked:    booked,
		Available: max(room.Inventory-booked, 0),
		Total:     total,
	}
	return q, nil
}

func (e *Engine) checkRequest(req Request) error {
	if err := req.validate(); err != nil {
		return err
	}
	return e.checkDates(req.Stay)
}

func (e *Engine) checkDates(stay Stay) error {
	if !stay.Start.Before(stay.End) {
		return fmt.Errorf("%w: start %s, end %s", ErrInvalidDateRange, stay.Start, stay.End)
	}
	if today := e.Today(); stay.Start.Before(today) {
		return fmt.Errorf("%w: %s is before %s", ErrPastDate, stay.Start, today)
	}
	return nil
}

// price looks up the room, checks that a unit is free for the whole stay
// and totals it.
func (e *Engine) price(ctx context.Context, l Ledger, req Request, excludeID uint64) (Room, Cents, error) {
	room, err := lookupRoom(ctx, l, req.RoomID)
	if err != nil {
		return Room{}, 0, err
	}
	booked, err := l.CountOverlapping(ctx, req.RoomID, req.Stay, excludeID)
	if err != nil {
		return Room{}, 0, persistence("count overlapping reservations", err)
	}
	if booked >= room.Inventory {
		return Room{}, 0, fmt.Errorf("%w: %d of %d units booked", ErrNoAvailability, booked, room.Inventory)
	}
	nights := req.Stay.Nights()
	if nights <= 0 {
		return Room{}, 0, fmt.Errorf("%w: %d nights", ErrInvalidDateRange, nights)
	}
	total, err := stayTotal(room, nights)
	if err != nil {
		return Room{}, 0, err
	}
	return room, total, nil
}

// stayTotal prices nights of room.  A total that does not fit a stored
// amount is a request error, not a storage fault.
func stayTotal(room Room, nights int) (Cents, error) {
	total, err := room.NightlyPrice.Mul(int64(nights))
	if err != nil {
		return 0, fmt.Errorf("%w: %d nights at %s: %w", ErrValidation, nights, room.NightlyPrice, err)
	}
	return total, nil
}

func (e *Engine) locked(ctx context.Context, roomID uint64, ledger Ledger, fn func(Ledger) error) error {
	locker, ok := ledger.(RoomLocker)
	if !ok {
		return fn(ledger)
	}
	err := locker.WithRoomLock(ctx, roomID, fn)
	if err != nil && Kind(err) == "persistence_error" && !errors.Is(err, ErrPersistence) {
		// begin/commit failures come from the locker itself
		return persistence("room lock", err)
	}
	return err
}

func lookupRoom(ctx context.Context, lookup RoomLookup, id uint64) (Room, error) {
	room, err := lookup.RoomByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return Room{}, fmt.Errorf("%w: id %d", ErrRoomNotFound, id)
		}
		return Room{}, persistence("look up room", err)
	}
	return room, nil
}

func (e *Engine) record(op string, req Request, started time.Time, err error) {
	kind := Kind(err)
	metrics.ObserveDecision(op, kind, time.Since(started))

	entry := e.log.WithFields(logrus.Fields{
		"operation": op,
		"room_id":   req.RoomID,
		"client_id": req.ClientID,
		"start":     req.Stay.Start.String(),
		"end":       req.Stay.End.String(),
		"outcome":   kind,
	})
	switch {
	case err == nil:
		entry.Info("reservation accepted")
	case errors.Is(err, ErrPersistence):
		entry.WithError(err).Error("reservation failed")
	default:
		entry.WithError(err).Info("reservation rejected")
	}
}
