package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/booking"
)

// RoomStore is the room catalogue.  *repository.RoomRepo implements it.
type RoomStore interface {
	booking.RoomLookup
	List(ctx context.Context) ([]booking.Room, error)
	Create(ctx context.Context, room *booking.Room) error
	Update(ctx context.Context, room booking.Room) (booking.Room, error)
	Delete(ctx context.Context, id uint64) error
}

// RoomHandler serves the public catalogue, availability quotes and the
// admin room endpoints.
type RoomHandler struct {
	Engine   *booking.Engine
	Rooms    RoomStore
	Counter  booking.OverlapCounter
	Log      *logrus.Logger
	OnChange func(ctx context.Context) error // invalidates cached catalogue pages
}

func NewRoomHandler(engine *booking.Engine, rooms RoomStore, counter booking.OverlapCounter, log *logrus.Logger) *RoomHandler {
	return &RoomHandler{Engine: engine, Rooms: rooms, Counter: counter, Log: log}
}

type roomReq struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	ImageURL     string         `json:"image_url"`
	NightlyPrice *booking.Cents `json:"nightly_price"`
	Inventory    *int           `json:"inventory"`
}

func (r roomReq) toRoom() (booking.Room, string) {
	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		return booking.Room{}, "name is required"
	case r.NightlyPrice == nil:
		return booking.Room{}, "nightly_price is required"
	case r.Inventory == nil || *r.Inventory < 0:
		return booking.Room{}, "inventory must be zero or more"
	}
	return booking.Room{
		Name:         name,
		Description:  strings.TrimSpace(r.Description),
		ImageURL:     strings.TrimSpace(r.ImageURL),
		NightlyPrice: *r.NightlyPrice,
		Inventory:    *r.Inventory,
	}, ""
}

// List returns every room type.
func (h *RoomHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, err := h.Rooms.List(ctx)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// Get returns one room type.
func (h *RoomHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.RoomByID(ctx, id)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, room)
}

// Availability quotes a stay: GET /v1/rooms/:id/availability?start=&end=.
func (h *RoomHandler) Availability(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	var stay booking.Stay
	var err error
	if stay.Start, err = booking.ParseDate(c.QueryParam("start")); err != nil {
		return badRequest(c, "start: "+err.Error())
	}
	if stay.End, err = booking.ParseDate(c.QueryParam("end")); err != nil {
		return badRequest(c, "end: "+err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Engine.Quote(ctx, id, stay, h.Rooms, h.Counter)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":     q.RoomID,
		"start_date":  q.Stay.Start,
		"end_date":    q.Stay.End,
		"nights":      q.Nights,
		"inventory":   q.Inventory,
		"booked":      q.Booked,
		"available":   q.Available,
		"bookable":    q.Available > 0,
		"total_price": q.Total,
	})
}

// Create adds a room type (admin).
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	room, msg := req.toRoom()
	if msg != "" {
		return badRequest(c, msg)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.Create(ctx, &room); err != nil {
		return bookingError(c, h.Log, err)
	}
	h.changed(ctx, room.ID)
	return c.JSON(http.StatusCreated, room)
}

// Update replaces a room type's editable fields (admin).
func (h *RoomHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	room, msg := req.toRoom()
	if msg != "" {
		return badRequest(c, msg)
	}
	room.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Rooms.Update(ctx, room)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	h.changed(ctx, id)
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a room type that has no reservations (admin).
func (h *RoomHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.Delete(ctx, id); err != nil {
		return bookingError(c, h.Log, err)
	}
	h.changed(ctx, id)
	return c.NoContent(http.StatusNoContent)
}

func (h *RoomHandler) changed(ctx context.Context, id uint64) {
	if h.OnChange == nil {
		return
	}
	if err := h.OnChange(ctx); err != nil {
		h.Log.WithError(err).WithField("room_id", id).Warn("room cache purge failed")
	}
}
