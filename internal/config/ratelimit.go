package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig configures the Redis token bucket that guards the API.
// The reservation endpoint gets its own, stricter bucket.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
	return loadRateLimit("RATE_LIMIT", RateLimitConfig{
		Enabled:        true,
		Capacity:       60,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_user_route",
		Prefix:         "rl",
	})
}

// LoadBookingRateLimitConfig reads BOOKING_RATE_LIMIT_* variables for the
// reservation endpoints.  Buckets are per user by default.
func LoadBookingRateLimitConfig() RateLimitConfig {
	return loadRateLimit("BOOKING_RATE_LIMIT", RateLimitConfig{
		Enabled:        true,
		Capacity:       10,
		RefillTokens:   1,
		RefillInterval: 6 * time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "user",
		Prefix:         "rl:booking",
	})
}

func loadRateLimit(prefix string, def RateLimitConfig) RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool(prefix+"_ENABLED", def.Enabled),
		Capacity:       envInt(prefix+"_CAPACITY", def.Capacity),
		RefillTokens:   envInt(prefix+"_REFILL_TOKENS", def.RefillTokens),
		RefillInterval: envDur(prefix+"_REFILL_INTERVAL", def.RefillInterval),
		TTL:            envDur(prefix+"_TTL", def.TTL),
		KeyStrategy:    getenv(prefix+"_KEY_STRATEGY", def.KeyStrategy),
		Prefix:         getenv(prefix+"_PREFIX", def.Prefix),
		Debug:          envBool(prefix+"_DEBUG", false),
	}
	if b := envInt(prefix+"_BURST", -1); b > 0 {
		cfg.Capacity = b
	}
	if every := envDur(prefix+"_REFILL_EVERY", 0); every > 0 {
		cfg.RefillTokens = 1
		cfg.RefillInterval = every
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
