package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/model"
)

// AdminStore is the part of the client repository EnsureAdmin needs.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (model.Client, error)
	Create(ctx context.Context, c model.Client, password string, cost int) (uint64, error)
}

// EnsureAdmin creates the ADMIN account for email unless a client with that
// email already exists.  An empty email or password skips the bootstrap.
func EnsureAdmin(ctx context.Context, store AdminStore, email, password string, cost int, log *logrus.Logger) error {
	if email == "" || password == "" {
		log.Debug("admin bootstrap skipped: ADMIN_EMAIL or ADMIN_PASSWORD unset")
		return nil
	}
	existing, err := store.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			log.WithField("email", existing.Email).Warn("admin bootstrap: account exists without ADMIN role")
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("service.EnsureAdmin: lookup: %w", err)
	}

	id, err := store.Create(ctx, model.Client{Name: "Administrator", Email: email, Role: model.RoleAdmin}, password, cost)
	if err != nil {
		return fmt.Errorf("service.EnsureAdmin: create: %w", err)
	}
	log.WithFields(logrus.Fields{"client_id": id, "email": email}).Info("admin account created")
	return nil
}
