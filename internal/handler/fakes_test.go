package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/hotelreserva/hotel-booking/internal/booking"
	"github.com/hotelreserva/hotel-booking/internal/model"
	"github.com/hotelreserva/hotel-booking/internal/queue"
	"github.com/hotelreserva/hotel-booking/internal/repository"
	"github.com/hotelreserva/hotel-booking/internal/utils"
)

// ---- reservations + rooms --------------------------------------------------

type fakeStore struct {
	mu       sync.Mutex
	rooms    map[uint64]booking.Room
	res      map[uint64]booking.Reservation
	nextID   uint64
	countErr error
}

func newFakeStore(rooms ...booking.Room) *fakeStore {
	s := &fakeStore{rooms: map[uint64]booking.Room{}, res: map[uint64]booking.Reservation{}}
	for _, r := range rooms {
		s.rooms[r.ID] = r
	}
	return s
}

var (
	_ ReservationStore = (*fakeStore)(nil)
	_ RoomStore        = (*fakeRooms)(nil)
)

func (s *fakeStore) RoomByID(_ context.Context, id uint64) (booking.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return booking.Room{}, booking.ErrRoomNotFound
	}
	return r, nil
}

func (s *fakeStore) CountOverlapping(_ context.Context, roomID uint64, stay booking.Stay, excludeID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	n := 0
	for _, r := range s.res {
		if r.RoomID == roomID && r.ID != excludeID && r.Stay.Overlaps(stay) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) InsertReservation(_ context.Context, r booking.Reservation) (booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	r.CreatedAt = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.res[r.ID] = r
	return r, nil
}

func (s *fakeStore) UpdateReservation(_ context.Context, r booking.Reservation) (booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.res[r.ID]
	if !ok {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	r.CreatedAt = old.CreatedAt
	s.res[r.ID] = r
	return r, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uint64) (booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.res[id]
	if !ok {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	return r, nil
}

func (s *fakeStore) List(ctx context.Context) ([]model.ReservationDetail, error) {
	return s.ListByClient(ctx, 0)
}

func (s *fakeStore) ListByClient(_ context.Context, clientID uint64) ([]model.ReservationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ReservationDetail, 0)
	for id := uint64(1); id <= s.nextID; id++ {
		r, ok := s.res[id]
		if !ok || (clientID != 0 && r.ClientID != clientID) {
			continue
		}
		out = append(out, model.ReservationDetail{Reservation: r, RoomName: s.rooms[r.RoomID].Name})
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.res[id]; !ok {
		return booking.ErrReservationNotFound
	}
	delete(s.res, id)
	return nil
}

// room catalogue; List shares the method name with reservations, so rooms
// get their own fake.
type fakeRooms struct {
	*fakeStore
	deleteErr error
}

func (r *fakeRooms) List(context.Context) ([]booking.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]booking.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (r *fakeRooms) Create(_ context.Context, room *booking.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room.ID = uint64(len(r.rooms) + 100)
	r.rooms[room.ID] = *room
	return nil
}

func (r *fakeRooms) Update(_ context.Context, room booking.Room) (booking.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.ID]; !ok {
		return booking.Room{}, booking.ErrRoomNotFound
	}
	r.rooms[room.ID] = room
	return room, nil
}

func (r *fakeRooms) Delete(_ context.Context, id uint64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; !ok {
		return booking.ErrRoomNotFound
	}
	delete(r.rooms, id)
	return nil
}

// ---- clients + tokens ------------------------------------------------------

type fakeClients struct {
	mu      sync.Mutex
	clients map[uint64]model.Client
	readErr error // returned by GetByID, List and Delete when set
}

var _ ClientStore = (*fakeClients)(nil)

func newFakeClients(cs ...model.Client) *fakeClients {
	f := &fakeClients{clients: map[uint64]model.Client{}}
	for _, c := range cs {
		c.IsActive = true
		f.clients[c.ID] = c
	}
	return f
}

func (f *fakeClients) Create(_ context.Context, c model.Client, password string, _ int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.clients {
		if ex.Email == c.Email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		return 0, err
	}
	c.ID = uint64(len(f.clients) + 1)
	c.PasswordHash = hash
	c.IsActive = true
	f.clients[c.ID] = c
	return c.ID, nil
}

func (f *fakeClients) GetByEmail(_ context.Context, email string) (model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, c := range f.clients {
		if c.Email == email {
			return c, nil
		}
	}
	return model.Client{}, sql.ErrNoRows
}

func (f *fakeClients) GetByID(_ context.Context, id uint64) (model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return model.Client{}, f.readErr
	}
	c, ok := f.clients[id]
	if !ok {
		return model.Client{}, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeClients) List(context.Context) ([]model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]model.Client, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeClients) UpdateProfile(_ context.Context, id uint64, name, email, phone string) (model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return model.Client{}, sql.ErrNoRows
	}
	c.Name, c.Email, c.Phone = name, strings.ToLower(strings.TrimSpace(email)), phone
	f.clients[id] = c
	return c, nil
}

func (f *fakeClients) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return f.readErr
	}
	if _, ok := f.clients[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.clients, id)
	return nil
}

type fakeTokens struct {
	mu      sync.Mutex
	owner   map[string]uint64
	revoked map[string]bool
}

var _ TokenStore = (*fakeTokens)(nil)

func newFakeTokens() *fakeTokens {
	return &fakeTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, clientID uint64, hash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner[hash] = clientID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.owner[hash]
	if !ok || f.revoked[hash] {
		return 0, repository.ErrRefreshInvalid
	}
	return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[hash] = true
	return nil
}

func (f *fakeTokens) RevokeAllForClient(_ context.Context, clientID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, id := range f.owner {
		if id == clientID {
			f.revoked[h] = true
		}
	}
	return nil
}

// ---- events ----------------------------------------------------------------

type fakePublisher struct {
	err    error
	events []queue.ReservationCreatedEvent
}

var _ EventPublisher = (*fakePublisher)(nil)

func (p *fakePublisher) PublishReservationCreated(_ context.Context, ev queue.ReservationCreatedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

var errDisk = errors.New("disk on fire")

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
