package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelreserva/hotel-booking/internal/booking"
)

func TestParseRequest_Valid(t *testing.T) {
	req, err := booking.ParseRequest(booking.RawRequest{
		RoomID: "3", Guests: " 2 ", Start: "2025-01-01", End: "2025-01-04", ClientID: 9,
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(3), req.RoomID)
	assert.Equal(t, uint64(9), req.ClientID)
	assert.Equal(t, 2, req.Guests)
	assert.Equal(t, 3, req.Stay.Nights())
}

func TestParseRequest_Invalid(t *testing.T) {
	valid := booking.RawRequest{RoomID: "3", Guests: "2", Start: "2025-01-01", End: "2025-01-04", ClientID: 9}
	tests := []struct {
		name string
		mut  func(*booking.RawRequest)
		msg  string
	}{
		{"missing room", func(r *booking.RawRequest) { r.RoomID = "" }, "room_id"},
		{"missing dates", func(r *booking.RawRequest) { r.Start, r.End = "", "" }, "start_date, end_date"},
		{"no client", func(r *booking.RawRequest) { r.ClientID = 0 }, "client"},
		{"room not a number", func(r *booking.RawRequest) { r.RoomID = "abc" }, "room_id"},
		{"room zero", func(r *booking.RawRequest) { r.RoomID = "0" }, "room_id"},
		{"guests negative", func(r *booking.RawRequest) { r.Guests = "-1" }, "guests"},
		{"guests fractional", func(r *booking.RawRequest) { r.Guests = "1.5" }, "guests"},
		{"bad start", func(r *booking.RawRequest) { r.Start = "01/01/2025" }, "start_date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := valid
			tc.mut(&raw)

			_, err := booking.ParseRequest(raw)

			assert.ErrorIs(t, err, booking.ErrValidation)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
