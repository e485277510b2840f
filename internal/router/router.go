package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hotelreserva/hotel-booking/internal/handler"
	"github.com/hotelreserva/hotel-booking/internal/middleware"
	"github.com/hotelreserva/hotel-booking/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// /healthz and the Prometheus scrape endpoint /metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// profile endpoints under /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout accepts either a refresh token in the body or a bearer token
	g.POST("/logout", a.Logout)

	auth := authenticated(jwtSecret)
	e.GET("/v1/me", a.Me, auth...)
	e.PUT("/v1/me", a.UpdateMe, auth...)
}

// RegisterRooms registers the public catalogue (served through cache) and
// the admin room endpoints.
func RegisterRooms(e *echo.Echo, h *handler.RoomHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/rooms", h.List, cache)
	e.GET("/v1/rooms/:id", h.Get, cache)
	e.GET("/v1/rooms/:id/availability", h.Availability)

	admin := adminOnly(jwtSecret)
	e.POST("/v1/rooms", h.Create, admin...)
	e.PUT("/v1/rooms/:id", h.Update, admin...)
	e.DELETE("/v1/rooms/:id", h.Delete, admin...)
}

// RegisterReservations registers the booking endpoints.  limiter guards
// the writes.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	auth := authenticated(jwtSecret)
	writes := append(authenticated(jwtSecret), limiter)

	e.POST("/v1/reservations", h.Create, writes...)
	e.GET("/v1/my-reservations", h.Mine, auth...)
	e.GET("/v1/reservations/:id", h.Get, auth...)
	e.PUT("/v1/reservations/:id", h.Update, writes...)
	e.DELETE("/v1/reservations/:id", h.Delete, auth...)

	e.GET("/v1/reservations", h.List, adminOnly(jwtSecret)...)
}

// RegisterClients registers the admin client endpoints.
func RegisterClients(e *echo.Echo, h *handler.ClientHandler, jwtSecret string) {
	admin := adminOnly(jwtSecret)
	e.GET("/v1/clients", h.List, admin...)
	e.GET("/v1/clients/:id", h.Get, admin...)
	e.GET("/v1/clients/:id/reservations", h.Reservations, admin...)
	e.DELETE("/v1/clients/:id", h.Delete, admin...)
}

func authenticated(jwtSecret string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleClient, model.RoleAdmin),
	}
}

func adminOnly(jwtSecret string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	}
}
