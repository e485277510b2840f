package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelreserva/hotel-booking/internal/booking"
	"github.com/hotelreserva/hotel-booking/internal/middleware"
	"github.com/hotelreserva/hotel-booking/internal/model"
)

// ---- helpers ---------------------------------------------------------------

type caller struct {
	id   uint64
	role string
}

var (
	guest  = caller{}
	ana    = caller{id: 7, role: model.RoleClient}
	bruno  = caller{id: 8, role: model.RoleClient}
	admin  = caller{id: 99, role: model.RoleAdmin}
	jan1st = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
)

// call runs h against a request built from the arguments.  pathParams
// alternates names and values.
func call(t *testing.T, h echo.HandlerFunc, method, target, body string, who caller, pathParams ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return serveRequest(h, req, who, pathParams...)
}

func serveRequest(h echo.HandlerFunc, req *http.Request, who caller, pathParams ...string) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(pathParams); i += 2 {
		names = append(names, pathParams[i])
		values = append(values, pathParams[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if who.id != 0 {
		c.Set(middleware.ContextClientID, who.id)
		c.Set(middleware.ContextRole, who.role)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func mustCents(t *testing.T, s string) booking.Cents {
	t.Helper()
	c, err := booking.ParseCents(s)
	require.NoError(t, err)
	return c
}

func mustStay(t *testing.T, start, end string) booking.Stay {
	t.Helper()
	s, err := booking.ParseDate(start)
	require.NoError(t, err)
	e, err := booking.ParseDate(end)
	require.NoError(t, err)
	return booking.Stay{Start: s, End: e}
}

type fixture struct {
	store   *fakeStore
	clients *fakeClients
	events  *fakePublisher
	h       *ReservationHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore(
		booking.Room{ID: 1, Name: "Deluxe", Inventory: 1, NightlyPrice: mustCents(t, "200.00")},
		booking.Room{ID: 2, Name: "Twin", Inventory: 2, NightlyPrice: mustCents(t, "199.99")},
	)
	clients := newFakeClients(
		model.Client{ID: 7, Name: "Ana", Email: "ana@example.com", Role: model.RoleClient},
		model.Client{ID: 8, Name: "Bruno", Email: "bruno@example.com", Role: model.RoleClient},
	)
	events := &fakePublisher{}
	engine := booking.NewEngine(quietLog(), booking.WithClock(func() time.Time { return jan1st }))
	return &fixture{
		store:   store,
		clients: clients,
		events:  events,
		h:       NewReservationHandler(engine, store, clients, events, quietLog()),
	}
}

func (f *fixture) seed(t *testing.T, clientID, roomID uint64, start, end string) booking.Reservation {
	t.Helper()
	res, err := f.store.InsertReservation(context.Background(), booking.Reservation{
		RoomID: roomID, ClientID: clientID, Guests: 1, Stay: mustStay(t, start, end), TotalPrice: 1,
	})
	require.NoError(t, err)
	return res
}

const validBody = `{"room_id":1,"guests":2,"start_date":"2025-02-01","end_date":"2025-02-04"}`

// ---- create ----------------------------------------------------------------

func TestCreateReservation_Accepted(t *testing.T) {
	f := newFixture(t)

	rec := call(t, f.h.Create, http.MethodPost, "/v1/reservations", validBody, ana)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_price":600.00`)
	body := decode(t, rec)
	assert.EqualValues(t, 7, body["client_id"])
	assert.Equal(t, "2025-02-01", body["start_date"])
	assert.Equal(t, "2025-02-04", body["end_date"])

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, "Deluxe", ev.RoomName)
	assert.Equal(t, "ana@example.com", ev.ClientEmail)
	assert.Equal(t, 3, ev.Nights)
}

func TestCreateReservation_AcceptsStringNumbers(t *testing.T) {
	f := newFixture(t)

	rec := call(t, f.h.Create, http.MethodPost, "/v1/reservations",
		`{"room_id":"2","guests":"1","start_date":"2025-01-01","end_date":"2025-01-04"}`, ana)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_price":599.97`)
}

func TestCreateReservation_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(t *testing.T, f *fixture)
		status int
		code   string
	}{
		{
			name:   "missing fields",
			body:   `{"room_id":1}`,
			status: http.StatusBadRequest, code: "validation_error",
		},
		{
			name:   "start in the past",
			body:   `{"room_id":1,"guests":2,"start_date":"2024-12-31","end_date":"2025-01-02"}`,
			status: http.StatusBadRequest, code: "past_date",
		},
		{
			name:   "end not after start",
			body:   `{"room_id":1,"guests":2,"start_date":"2025-02-01","end_date":"2025-02-01"}`,
			status: http.StatusBadRequest, code: "invalid_date_range",
		},
		{
			name:   "unknown room",
			body:   `{"room_id":9,"guests":2,"start_date":"2025-02-01","end_date":"2025-02-04"}`,
			status: http.StatusNotFound, code: "room_not_found",
		},
		{
			name: "room full",
			body: validBody,
			setup: func(t *testing.T, f *fixture) {
				f.seed(t, 8, 1, "2025-02-04", "2025-02-06")
			},
			status: http.StatusConflict, code: "no_availability",
		},
		{
			name: "storage failure",
			body: validBody,
			setup: func(_ *testing.T, f *fixture) {
				f.store.countErr = errDisk
			},
			status: http.StatusInternalServerError, code: "persistence_error",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(t, f)
			}

			rec := call(t, f.h.Create, http.MethodPost, "/v1/reservations", tc.body, ana)

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, tc.code, body["error"])
			assert.NotEmpty(t, body["message"])
			assert.Empty(t, f.events.events)
		})
	}
}

func TestCreateReservation_HidesStorageDetails(t *testing.T) {
	f := newFixture(t)
	f.store.countErr = errDisk
	log, hook := logtest.NewNullLogger()
	f.h.Log = log

	rec := call(t, f.h.Create, http.MethodPost, "/v1/reservations", validBody, ana)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.ErrorIs(t, hook.LastEntry().Data[logrus.ErrorKey].(error), errDisk)
}

func TestCreateReservation_PublishFailureKeepsReservation(t *testing.T) {
	f := newFixture(t)
	f.events.err = fmt.Errorf("broker down")

	rec := call(t, f.h.Create, http.MethodPost, "/v1/reservations", validBody, ana)

	assert.Equal(t, http.StatusCreated, rec.Code)
	list, err := f.store.ListByClient(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateReservation_RequiresClient(t *testing.T) {
	f := newFixture(t)

	rec := call(t, f.h.Create, http.MethodPost, "/v1/reservations", validBody, guest)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ---- read / update / delete ------------------------------------------------

func TestGetReservation_Ownership(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, 7, 1, "2025-02-01", "2025-02-03")
	id := fmt.Sprint(res.ID)

	assert.Equal(t, http.StatusOK, call(t, f.h.Get, http.MethodGet, "/", "", ana, "id", id).Code)
	assert.Equal(t, http.StatusOK, call(t, f.h.Get, http.MethodGet, "/", "", admin, "id", id).Code)

	rec := call(t, f.h.Get, http.MethodGet, "/", "", bruno, "id", id)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, f.h.Get, http.MethodGet, "/", "", ana, "id", "555")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "reservation_not_found", decode(t, rec)["error"])

	rec = call(t, f.h.Get, http.MethodGet, "/", "", ana, "id", "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateReservation_Reschedules(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, 7, 1, "2025-02-01", "2025-02-04")

	rec := call(t, f.h.Update, http.MethodPut, "/",
		`{"room_id":1,"guests":1,"start_date":"2025-02-03","end_date":"2025-02-05"}`, ana, "id", fmt.Sprint(res.ID))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_price":400.00`)
	got, err := f.store.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-05", got.Stay.End.String())
	assert.Equal(t, uint64(7), got.ClientID)
}

func TestUpdateReservation_ConflictsWithOthers(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, 7, 1, "2025-02-01", "2025-02-04")
	f.seed(t, 8, 1, "2025-02-10", "2025-02-12")

	rec := call(t, f.h.Update, http.MethodPut, "/",
		`{"room_id":1,"guests":1,"start_date":"2025-02-09","end_date":"2025-02-11"}`, ana, "id", fmt.Sprint(res.ID))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateReservation_ForbiddenForOthers(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, 7, 1, "2025-02-01", "2025-02-04")

	rec := call(t, f.h.Update, http.MethodPut, "/", validBody, bruno, "id", fmt.Sprint(res.ID))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteReservation(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, 7, 1, "2025-02-01", "2025-02-04")
	id := fmt.Sprint(res.ID)

	assert.Equal(t, http.StatusForbidden, call(t, f.h.Delete, http.MethodDelete, "/", "", bruno, "id", id).Code)
	assert.Equal(t, http.StatusNoContent, call(t, f.h.Delete, http.MethodDelete, "/", "", ana, "id", id).Code)
	assert.Equal(t, http.StatusNotFound, call(t, f.h.Get, http.MethodGet, "/", "", ana, "id", id).Code)

	// the unit is bookable again
	rec := call(t, f.h.Create, http.MethodPost, "/v1/reservations", validBody, bruno)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestListReservations(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 7, 1, "2025-02-01", "2025-02-04")
	f.seed(t, 8, 2, "2025-02-01", "2025-02-04")

	var mine []map[string]any
	rec := call(t, f.h.Mine, http.MethodGet, "/v1/my-reservations", "", ana)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Deluxe", mine[0]["room_name"])

	var all []map[string]any
	rec = call(t, f.h.List, http.MethodGet, "/v1/reservations", "", admin)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)
}
