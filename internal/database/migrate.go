package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/migrations"
)

// Migrate applies every pending migration embedded in the binary.
func Migrate(ctx context.Context, db *sql.DB, log *logrus.Logger) error {
	provider, err := goose.NewProvider(goose.DialectMySQL, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("database.Migrate: provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("database.Migrate: up: %w", err)
	}
	for _, r := range results {
		log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration.String(),
		}).Info("migration applied")
	}
	return nil
}
