// Package testutil provides shared helpers for integration tests.
// Helpers in this package skip automatically when required environment
// variables are not set, so unit tests can run without a running database.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"os"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/database"
)

// NewDB opens the MySQL database named by TEST_MYSQL_DSN, applies all
// migrations and empties every table.
//
// The test is skipped when TEST_MYSQL_DSN is not set.  The pool is closed
// when the test finishes.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	raw := os.Getenv("TEST_MYSQL_DSN")
	if raw == "" {
		t.Skip("TEST_MYSQL_DSN not set; skipping MySQL integration test")
	}
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		t.Fatalf("testutil.NewDB: parse dsn: %v", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = false

	db, err := database.OpenDSN(cfg.FormatDSN(), 10, time.Minute)
	if err != nil {
		t.Fatalf("testutil.NewDB: open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	ctx := context.Background()
	if err := database.Migrate(ctx, db, log); err != nil {
		t.Fatalf("testutil.NewDB: migrate: %v", err)
	}
	for _, table := range []string{"reservations", "refresh_tokens", "rooms", "clients"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("testutil.NewDB: clean %s: %v", table, err)
		}
	}
	return db
}
