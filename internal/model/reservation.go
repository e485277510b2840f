package model

import "github.com/hotelreserva/hotel-booking/internal/booking"

// ReservationDetail is a reservation joined with the room it books, as
// listed to clients and admins.
//
// Fields:
//	Reservation     – the stored reservation (id, room, client, guests,
//	                  start/end dates, total price, created_at).
//	RoomName        – rooms.name of the booked room type.
//	RoomDescription – rooms.description, empty when null.
//	RoomImageURL    – rooms.image_url, empty when null.
type ReservationDetail struct {
	booking.Reservation
	RoomName        string `json:"room_name"`
	RoomDescription string `json:"room_description,omitempty"`
	RoomImageURL    string `json:"room_image_url,omitempty"`
}
