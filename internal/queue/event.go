// Package queue defines the reservation events exchanged over RabbitMQ and
// the consumer that turns them into a reservation log and confirmation
// e-mails.
package queue

import (
	"time"

	"github.com/hotelreserva/hotel-booking/internal/booking"
	"github.com/hotelreserva/hotel-booking/internal/model"
)

// ReservationCreatedQueue is the durable queue reservation events go to.
const ReservationCreatedQueue = "reservation.created"

// ReservationCreatedEvent is published after a reservation is stored.  It
// carries enough for consumers to log and notify without querying the
// database.
type ReservationCreatedEvent struct {
	ReservationID uint64        `json:"reservation_id"`
	ClientID      uint64        `json:"client_id"`
	ClientName    string        `json:"client_name"`
	ClientEmail   string        `json:"client_email"`
	RoomID        uint64        `json:"room_id"`
	RoomName      string        `json:"room_name"`
	Guests        int           `json:"guests"`
	StartDate     booking.Date  `json:"start_date"`
	EndDate       booking.Date  `json:"end_date"`
	Nights        int           `json:"nights"`
	TotalPrice    booking.Cents `json:"total_price"`
	CreatedAt     string        `json:"created_at"`
}

// NewReservationCreated assembles the event for a stored reservation.
func NewReservationCreated(res booking.Reservation, room booking.Room, client model.Client) ReservationCreatedEvent {
	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return ReservationCreatedEvent{
		ReservationID: res.ID,
		ClientID:      res.ClientID,
		ClientName:    client.Name,
		ClientEmail:   client.Email,
		RoomID:        res.RoomID,
		RoomName:      room.Name,
		Guests:        res.Guests,
		StartDate:     res.Stay.Start,
		EndDate:       res.Stay.End,
		Nights:        res.Stay.Nights(),
		TotalPrice:    res.TotalPrice,
		CreatedAt:     created.UTC().Format(time.RFC3339),
	}
}
