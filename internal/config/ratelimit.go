package config

import "time"

// RateLimitConfig controls the Redis token bucket limiter.  Capacity
// is the burst size; RefillTokens are added every RefillInterval.  TTL
// bounds how long an idle bucket survives in Redis.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadRateLimitConfig reads environment variables for the limiter and
// normalizes nonsense values back to safe ones.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Capacity:       atoi(getenv("RATE_LIMIT_CAPACITY", "60")),
		RefillTokens:   atoi(getenv("RATE_LIMIT_REFILL_TOKENS", "1")),
		RefillInterval: parseDur(getenv("RATE_LIMIT_REFILL_INTERVAL", "1s")),
		TTL:            parseDur(getenv("RATE_LIMIT_TTL", "10m")),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
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
	// An idle bucket must outlive several refill intervals, otherwise
	// it expires mid-burst and resets to full capacity.
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
