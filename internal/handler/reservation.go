package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/booking"
	"github.com/hotelreserva/hotel-booking/internal/model"
	"github.com/hotelreserva/hotel-booking/internal/queue"
	"github.com/hotelreserva/hotel-booking/internal/repository"
)

// ReservationStore is the reservation ledger plus the read and delete
// operations the API needs.  *repository.ReservationRepo implements it,
// including booking.RoomLocker.
type ReservationStore interface {
	booking.Ledger
	GetByID(ctx context.Context, id uint64) (booking.Reservation, error)
	List(ctx context.Context) ([]model.ReservationDetail, error)
	ListByClient(ctx context.Context, clientID uint64) ([]model.ReservationDetail, error)
	Delete(ctx context.Context, id uint64) error
}

// EventPublisher announces stored reservations.
type EventPublisher interface {
	PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error
}

// ClientLookup loads a client by id.
type ClientLookup interface {
	GetByID(ctx context.Context, id uint64) (model.Client, error)
}

// ReservationHandler serves the reservation endpoints.
type ReservationHandler struct {
	Engine       *booking.Engine
	Reservations ReservationStore
	Clients      ClientLookup
	Events       EventPublisher
	Log          *logrus.Logger
}

func NewReservationHandler(engine *booking.Engine, reservations ReservationStore, clients ClientLookup, events EventPublisher, log *logrus.Logger) *ReservationHandler {
	return &ReservationHandler{Engine: engine, Reservations: reservations, Clients: clients, Events: events, Log: log}
}

// reservationReq accepts numbers either as JSON numbers or as strings.
type reservationReq struct {
	RoomID    json.Number `json:"room_id"`
	Guests    json.Number `json:"guests"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
}

func (r reservationReq) raw(clientID uint64) booking.RawRequest {
	return booking.RawRequest{
		RoomID:   r.RoomID.String(),
		Guests:   r.Guests.String(),
		Start:    r.StartDate,
		End:      r.EndDate,
		ClientID: clientID,
	}
}

// Create books a stay for the authenticated client.
func (h *ReservationHandler) Create(c echo.Context) error {
	clientID, _, ok := currentClient(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body reservationReq
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	req, err := booking.ParseRequest(body.raw(clientID))
	if err != nil {
		return bookingError(c, h.Log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Engine.EvaluateAndReserve(ctx, req, h.Reservations)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	h.publish(res)
	return c.JSON(http.StatusCreated, res)
}

// Mine lists the authenticated client's reservations.
func (h *ReservationHandler) Mine(c echo.Context) error {
	clientID, _, ok := currentClient(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByClient(ctx, clientID)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// List returns every reservation (admin).
func (h *ReservationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.List(ctx)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get returns one reservation to its owner or an admin.
func (h *ReservationHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.owned(ctx, c)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Update reschedules a reservation: new room, dates or guest count, checked
// and priced like a new booking.
func (h *ReservationHandler) Update(c echo.Context) error {
	var body reservationReq
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	existing, err := h.owned(ctx, c)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	req, err := booking.ParseRequest(body.raw(existing.ClientID))
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	res, err := h.Engine.Reschedule(ctx, existing.ID, req, h.Reservations)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Delete cancels a reservation; the unit is free again immediately.
func (h *ReservationHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.owned(ctx, c)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	if err := h.Reservations.Delete(ctx, res.ID); err != nil {
		return bookingError(c, h.Log, err)
	}
	h.Log.WithFields(logrus.Fields{"reservation_id": res.ID, "room_id": res.RoomID}).Info("reservation cancelled")
	return c.NoContent(http.StatusNoContent)
}

// owned loads the :id reservation and checks that the caller owns it or is
// an admin.
func (h *ReservationHandler) owned(ctx context.Context, c echo.Context) (booking.Reservation, error) {
	id, ok := pathID(c, "id")
	if !ok {
		return booking.Reservation{}, booking.ErrValidation
	}
	clientID, admin, ok := currentClient(c)
	if !ok {
		return booking.Reservation{}, repository.ErrForbidden
	}
	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return booking.Reservation{}, err
	}
	if !admin && res.ClientID != clientID {
		return booking.Reservation{}, repository.ErrForbidden
	}
	return res, nil
}

// publish sends the reservation.created event.  Failures are logged only;
// the reservation is already committed.
func (h *ReservationHandler) publish(res booking.Reservation) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := h.Log.WithField("reservation_id", res.ID)
	room, err := h.Reservations.RoomByID(ctx, res.RoomID)
	if err != nil {
		log.WithError(err).Warn("load room for event failed")
	}
	client, err := h.Clients.GetByID(ctx, res.ClientID)
	if err != nil {
		log.WithError(err).Warn("load client for event failed")
	}
	if err := h.Events.PublishReservationCreated(ctx, queue.NewReservationCreated(res, room, client)); err != nil {
		log.WithError(err).Warn("reservation event not published")
	}
}
