package booking

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Cents is a currency amount in minor units.  Prices are stored as
// DECIMAL(10,2) and never pass through float64.
type Cents int64

// MaxCents is the largest amount a DECIMAL(10,2) column holds, 99999999.99.
const MaxCents Cents = 99_999_999_99

// ErrAmountTooLarge is returned when an amount or a product of amounts
// exceeds MaxCents.
var ErrAmountTooLarge = errors.New("amount exceeds 99999999.99")

var errBadAmount = errors.New("amount must be a non-negative decimal with at most two fraction digits")

// ParseCents parses a decimal amount such as "199.99", "200" or "0.5".
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasDot := strings.Cut(s, ".")
	if !digits(whole) || (hasDot && (!digits(frac) || len(frac) > 2)) {
		return 0, errBadAmount
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, ErrAmountTooLarge
		}
		return 0, errBadAmount
	}
	if units > int64(MaxCents/100) {
		return 0, ErrAmountTooLarge
	}
	var minor int64
	if frac != "" {
		if minor, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return 0, errBadAmount
		}
		if len(frac) == 1 {
			minor *= 10
		}
	}
	return Cents(units*100 + minor), nil
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Mul multiplies the amount by a whole, non-negative quantity such as a
// number of nights.  Products above MaxCents yield ErrAmountTooLarge.
func (c Cents) Mul(n int64) (Cents, error) {
	if c < 0 || n < 0 {
		return 0, fmt.Errorf("cannot multiply %s by %d", c, n)
	}
	if n != 0 && c > MaxCents/Cents(n) {
		return 0, ErrAmountTooLarge
	}
	return c * Cents(n), nil
}

// String renders the amount with exactly two fraction digits.
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON emits the amount as a JSON number, e.g. 599.97.
func (c Cents) MarshalJSON() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalJSON accepts both 599.97 and "599.97".
func (c *Cents) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Scan reads a DECIMAL column, which the MySQL driver delivers as text.
func (c *Cents) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return c.scanString(string(v))
	case string:
		return c.scanString(v)
	case int64:
		*c = Cents(v * 100)
		return nil
	}
	return fmt.Errorf("cannot scan %T into booking.Cents", src)
}

func (c *Cents) scanString(s string) error {
	// DECIMAL(10,2) always carries two digits, but be lenient with padding.
	if whole, frac, ok := strings.Cut(s, "."); ok && len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			return fmt.Errorf("decimal %q has more than two fraction digits", s)
		}
		s = whole + "." + frac[:2]
	}
	v, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Cents) Value() (driver.Value, error) { return c.String(), nil }
