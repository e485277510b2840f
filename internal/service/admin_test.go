package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelreserva/hotel-booking/internal/model"
)

type adminStore struct {
	clients   map[string]model.Client
	lookupErr error
	created   int
}

func (s *adminStore) GetByEmail(_ context.Context, email string) (model.Client, error) {
	if s.lookupErr != nil {
		return model.Client{}, s.lookupErr
	}
	c, ok := s.clients[email]
	if !ok {
		return model.Client{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *adminStore) Create(_ context.Context, c model.Client, _ string, _ int) (uint64, error) {
	s.created++
	c.ID = uint64(len(s.clients) + 1)
	s.clients[c.Email] = c
	return c.ID, nil
}

func silent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates once", func(t *testing.T) {
		s := &adminStore{clients: map[string]model.Client{}}
		require.NoError(t, EnsureAdmin(ctx, s, "root@hotel.test", "longenough", 4, silent()))
		require.NoError(t, EnsureAdmin(ctx, s, "root@hotel.test", "longenough", 4, silent()))
		assert.Equal(t, 1, s.created)
		assert.Equal(t, model.RoleAdmin, s.clients["root@hotel.test"].Role)
	})

	t.Run("skipped without credentials", func(t *testing.T) {
		s := &adminStore{clients: map[string]model.Client{}}
		require.NoError(t, EnsureAdmin(ctx, s, "", "", 4, silent()))
		assert.Zero(t, s.created)
	})

	t.Run("lookup failure", func(t *testing.T) {
		s := &adminStore{clients: map[string]model.Client{}, lookupErr: errors.New("db down")}
		err := EnsureAdmin(ctx, s, "root@hotel.test", "longenough", 4, silent())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		assert.Zero(t, s.created)
	})
}
