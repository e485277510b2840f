package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/model"
)

// ClientHandler serves the admin client endpoints.
type ClientHandler struct {
	Clients          ClientStore
	ReservationStore ReservationStore
	Log              *logrus.Logger
}

func NewClientHandler(clients ClientStore, reservations ReservationStore, log *logrus.Logger) *ClientHandler {
	return &ClientHandler{Clients: clients, ReservationStore: reservations, Log: log}
}

// List returns every client account.
func (h *ClientHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	clients, err := h.Clients.List(ctx)
	if err != nil {
		return internalError(c, h.Log, err, echo.Map{"error": "list clients failed"})
	}
	out := make([]model.ClientView, 0, len(clients))
	for _, cl := range clients {
		out = append(out, cl.View())
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one client account.
func (h *ClientHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid client id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	client, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		return h.lookupFailed(c, err)
	}
	return c.JSON(http.StatusOK, client.View())
}

// Reservations lists one client's reservations.
func (h *ClientHandler) Reservations(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid client id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Clients.GetByID(ctx, id); err != nil {
		return h.lookupFailed(c, err)
	}
	list, err := h.ReservationStore.ListByClient(ctx, id)
	if err != nil {
		return bookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Delete removes a client together with their reservations and sessions.
func (h *ClientHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid client id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Clients.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return internalError(c, h.Log, err, echo.Map{"error": "delete client failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ClientHandler) lookupFailed(c echo.Context, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}
	return internalError(c, h.Log, err, echo.Map{"error": "load client failed"})
}
