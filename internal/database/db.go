// Package database opens the MySQL pool and applies the embedded schema
// migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/hotelreserva/hotel-booking/internal/config"
)

// Open connects to the database described by cfg and verifies the
// connection.
func Open(cfg config.Config) (*sql.DB, error) {
	my := mysql.NewConfig()
	my.User = cfg.DBUser
	my.Passwd = cfg.DBPass
	my.Net = "tcp"
	my.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	my.DBName = cfg.DBName
	// DATE columns scan into time.Time at midnight UTC, which is what
	// booking.Date expects
	my.ParseTime = true
	my.Loc = time.UTC
	my.Params = map[string]string{"charset": "utf8mb4"}

	return OpenDSN(my.FormatDSN(), cfg.DBMaxOpenConns, cfg.DBConnMaxLifetime)
}

// OpenDSN opens a pool from a ready-made DSN.  maxOpen <= 0 keeps the
// driver's unlimited default.
func OpenDSN(dsn string, maxOpen int, lifetime time.Duration) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("database.Open: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(lifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database.Open: ping: %w", err)
	}
	return db, nil
}
