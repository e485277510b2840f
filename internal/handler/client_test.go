package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientHandler(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 7, 1, "2025-02-01", "2025-02-04")
	h := NewClientHandler(f.clients, f.store, quietLog())

	var clients []map[string]any
	rec := call(t, h.List, http.MethodGet, "/v1/clients", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clients))
	require.Len(t, clients, 2)
	assert.Equal(t, "Ana", clients[0]["name"])
	assert.NotContains(t, rec.Body.String(), "password")

	var list []map[string]any
	rec = call(t, h.Reservations, http.MethodGet, "/", "", admin, "id", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNotFound, call(t, h.Reservations, http.MethodGet, "/", "", admin, "id", "404").Code)
	assert.Equal(t, http.StatusNoContent, call(t, h.Delete, http.MethodDelete, "/", "", admin, "id", "8").Code)
	assert.Equal(t, http.StatusNotFound, call(t, h.Delete, http.MethodDelete, "/", "", admin, "id", "8").Code)
}

func TestClientHandler_Get(t *testing.T) {
	f := newFixture(t)
	h := NewClientHandler(f.clients, f.store, quietLog())

	var got map[string]any
	rec := call(t, h.Get, http.MethodGet, "/", "", admin, "id", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Ana", got["name"])
	assert.NotContains(t, rec.Body.String(), "password")

	assert.Equal(t, http.StatusNotFound, call(t, h.Get, http.MethodGet, "/", "", admin, "id", "404").Code)
	assert.Equal(t, http.StatusBadRequest, call(t, h.Get, http.MethodGet, "/", "", admin, "id", "abc").Code)
}

func TestClientHandler_StorageFailuresAreLogged(t *testing.T) {
	f := newFixture(t)
	f.clients.readErr = errDisk
	log, hook := logtest.NewNullLogger()
	h := NewClientHandler(f.clients, f.store, log)

	cases := []struct {
		name string
		do   func() *httptest.ResponseRecorder
		body string
	}{
		{"list", func() *httptest.ResponseRecorder { return call(t, h.List, http.MethodGet, "/", "", admin) }, "list clients failed"},
		{"get", func() *httptest.ResponseRecorder { return call(t, h.Get, http.MethodGet, "/", "", admin, "id", "7") }, "load client failed"},
		{"reservations", func() *httptest.ResponseRecorder {
			return call(t, h.Reservations, http.MethodGet, "/", "", admin, "id", "7")
		}, "load client failed"},
		{"delete", func() *httptest.ResponseRecorder { return call(t, h.Delete, http.MethodDelete, "/", "", admin, "id", "7") }, "delete client failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hook.Reset()
			rec := tc.do()
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
			assert.NotContains(t, rec.Body.String(), "disk on fire")
			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
			assert.ErrorIs(t, hook.LastEntry().Data[logrus.ErrorKey].(error), errDisk)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		"validation_error":      http.StatusBadRequest,
		"invalid_date_range":    http.StatusBadRequest,
		"past_date":             http.StatusBadRequest,
		"room_not_found":        http.StatusNotFound,
		"reservation_not_found": http.StatusNotFound,
		"no_availability":       http.StatusConflict,
		"persistence_error":     http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, statusFor(kind), kind)
	}
}
