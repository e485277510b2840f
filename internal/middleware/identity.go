package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// ClientID returns the authenticated client's ID set by JWTAuth.
func ClientID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ContextClientID).(uint64)
	return id, ok && id > 0
}

// Role returns the authenticated client's role, or "" for guests.
func Role(c echo.Context) string {
	r, _ := c.Get(ContextRole).(string)
	return r
}

// identity is the rate-limit and log identity of the caller: the client ID
// or "anon".
func identity(c echo.Context) string {
	if id, ok := ClientID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
