package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int

	// DBMaxOpenConns bounds the pool.  Every reservation holds a connection
	// for the length of its room lock.
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration

	// Location is the hotel's time zone.  "Today" for the past-date check
	// is the calendar date in this zone.
	Location *time.Location

	RabbitURL   string // empty disables reservation events
	LogLevel    string
	LogFile     string // rotated JSON log; empty logs to stdout only
	JournalFile string // one JSON line per consumed reservation event

	SMTP SMTPConfig

	// AdminEmail and AdminPassword seed the first ADMIN account at startup.
	AdminEmail    string
	AdminPassword string
}

// SMTPConfig configures confirmation e-mails sent by the event consumer.
// An empty Host disables sending.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Load reads a .env file when present, then builds a Config from the
// environment.  Missing required variables cause a fatal log and exit.
func Load() Config {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getenv("APP_TIMEZONE", "UTC"))
	if err != nil {
		logrus.Fatalf("invalid APP_TIMEZONE: %v", err)
	}

	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		JWTSecret:         must("JWT_SECRET"),
		AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:    mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:        envInt("BCRYPT_COST", 12),
		Location:          loc,
		RabbitURL:         os.Getenv("RABBITMQ_URL"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFile:           os.Getenv("LOG_FILE"),
		JournalFile:       getenv("RESERVATION_JOURNAL", "logs/reservations.log"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     getenv("SMTP_FROM", "reservations@localhost"),
		},
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// DSNSummary describes the database target without the password, for logs.
func (c Config) DSNSummary() string {
	return fmt.Sprintf("%s@%s:%s/%s", c.DBUser, c.DBHost, c.DBPort, c.DBName)
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		logrus.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
