package config

import (
	"os"
	"strconv"
	"time"
)

// CacheConfig defines settings for the read-path cache.  When Enabled
// is false or no Redis client is available, the in-memory fallback is
// used instead.  Prefix namespaces keys so several deployments can
// share one Redis instance.
type CacheConfig struct {
	Enabled       bool
	Prefix        string
	PopularityTTL time.Duration
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults apply when variables are unset.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       getenv("CACHE_ENABLED", "true") == "true",
		Prefix:        getenv("CACHE_PREFIX", "cache"),
		PopularityTTL: parseDur(getenv("CACHE_POPULARITY_TTL", "60s")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
