package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hotelreserva/hotel-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ContextClientID = "user_id"
	ContextRole     = "role"
)

// JWTAuth validates a Bearer access token and stores the client ID (uint64)
// and role claims in the request context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id, err := claims.ClientID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			c.Set(ContextClientID, id)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}
