package booking

import (
	"strconv"
	"strings"
	"time"
)

// Room is a bookable room type with a finite number of interchangeable
// units.
type Room struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	Inventory    int    `json:"inventory"`
	NightlyPrice Cents  `json:"nightly_price"`
}

// Reservation is a booked stay for one room type and one client.
type Reservation struct {
	ID       uint64 `json:"id"`
	RoomID   uint64 `json:"room_id"`
	ClientID uint64 `json:"client_id"`
	Guests   int    `json:"guests"`
	Stay
	TotalPrice Cents     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// Request is a validated booking request.  Build it with ParseRequest at
// the HTTP boundary.
type Request struct {
	RoomID   uint64
	ClientID uint64
	Guests   int
	Stay     Stay
}

// RawRequest carries the loosely typed fields of an incoming booking call.
type RawRequest struct {
	RoomID   string
	Guests   string
	Start    string
	End      string
	ClientID uint64
}

// ParseRequest turns boundary strings into a Request.  Only presence and
// type are checked here; date ordering is the engine's business.
func ParseRequest(raw RawRequest) (Request, error) {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"room_id", raw.RoomID}, {"guests", raw.Guests},
		{"start_date", raw.Start}, {"end_date", raw.End},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Request{}, validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if raw.ClientID == 0 {
		return Request{}, validationf("client is required")
	}

	roomID, err := strconv.ParseUint(strings.TrimSpace(raw.RoomID), 10, 64)
	if err != nil || roomID == 0 {
		return Request{}, validationf("room_id must be a positive integer")
	}
	guests, err := strconv.Atoi(strings.TrimSpace(raw.Guests))
	if err != nil || guests <= 0 {
		return Request{}, validationf("guests must be a positive integer")
	}
	start, err := ParseDate(raw.Start)
	if err != nil {
		return Request{}, validationf("start_date: %v", err)
	}
	end, err := ParseDate(raw.End)
	if err != nil {
		return Request{}, validationf("end_date: %v", err)
	}
	return Request{
		RoomID:   roomID,
		ClientID: raw.ClientID,
		Guests:   guests,
		Stay:     Stay{Start: start, End: end},
	}, nil
}

func (r Request) validate() error {
	switch {
	case r.RoomID == 0:
		return validationf("room_id is required")
	case r.ClientID == 0:
		return validationf("client is required")
	case r.Guests <= 0:
		return validationf("guests must be a positive integer")
	case r.Stay.Start.IsZero() || r.Stay.End.IsZero():
		return validationf("start_date and end_date are required")
	}
	return nil
}
