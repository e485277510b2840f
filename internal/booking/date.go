package booking

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage layout of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.  Internally it is kept as
// midnight UTC so that the difference between two dates is always a whole
// number of 24h periods, regardless of daylight saving in the server zone.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day that t falls on in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool                  { return d.t.IsZero() }
func (d Date) Before(o Date) bool            { return d.t.Before(o.t) }
func (d Date) After(o Date) bool             { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool             { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date            { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Time() time.Time               { return d.t }
func (d Date) String() string                { return d.t.Format(DateLayout) }
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// DaysUntil returns the number of days from d to o (negative when o is
// earlier).  Both dates sit at midnight UTC, so the difference in Unix
// seconds is an exact multiple of a day; time.Duration would saturate for
// spans beyond 292 years.
func (d Date) DaysUntil(o Date) int {
	return int((o.t.Unix() - d.t.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// Scan reads a DATE column.  The MySQL driver returns time.Time when
// parseTime=true and []byte otherwise.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		return d.UnmarshalText(v)
	case string:
		return d.UnmarshalText([]byte(v))
	case nil:
		*d = Date{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into booking.Date", src)
}

func (d Date) Value() (driver.Value, error) { return d.String(), nil }

// Stay is the interval a guest occupies a room, from check-in (Start) to
// check-out (End).
type Stay struct {
	Start Date `json:"start_date"`
	End   Date `json:"end_date"`
}

// Nights is the number of billable nights, the day difference between End
// and Start.
func (s Stay) Nights() int { return s.Start.DaysUntil(s.End) }

// Overlaps reports whether two stays share a day under inclusive endpoint
// comparison; a stay ending on the day another starts does overlap it.
func (s Stay) Overlaps(o Stay) bool {
	return !s.Start.After(o.End) && !s.End.Before(o.Start)
}
