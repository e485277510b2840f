package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/booking"
	"github.com/hotelreserva/hotel-booking/internal/middleware"
	"github.com/hotelreserva/hotel-booking/internal/model"
	"github.com/hotelreserva/hotel-booking/internal/repository"
)

// statusFor maps a booking reason code to its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case "validation_error", "invalid_date_range", "past_date":
		return http.StatusBadRequest
	case "room_not_found", "reservation_not_found":
		return http.StatusNotFound
	case "no_availability":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// bookingError writes {"error": code, "message": reason} for err.  Storage
// details are not exposed to clients; they go to log instead.
func bookingError(c echo.Context, log *logrus.Logger, err error) error {
	switch {
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "not your reservation"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": err.Error()})
	}
	kind := booking.Kind(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		return internalError(c, log, err, echo.Map{"error": kind, "message": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": kind, "message": err.Error()})
}

// internalError logs err with the request's route and answers 500 with body.
func internalError(c echo.Context, log *logrus.Logger, err error, body echo.Map) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithError(err).WithFields(logrus.Fields{
		"method":     c.Request().Method,
		"route":      c.Path(),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	}).Error("request failed")
	return c.JSON(http.StatusInternalServerError, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": msg})
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// currentClient returns the authenticated client and whether they are an
// admin.
func currentClient(c echo.Context) (id uint64, admin bool, ok bool) {
	id, ok = middleware.ClientID(c)
	return id, middleware.Role(c) == model.RoleAdmin, ok
}
