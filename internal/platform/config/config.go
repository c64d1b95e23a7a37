package config

import (
	"os"
	"strconv"
	"time"
)

// Client captures client-level configuration.
type Client struct {
	// APIBaseURL is the root of the remote API, including the /api/v1 prefix.
	APIBaseURL string

	// SessionFile is where the durable session record lives. Ignored when
	// RedisURL is set.
	SessionFile string

	// RedisURL selects the Redis session backend when non-empty.
	RedisURL string

	// RequestTimeout bounds every outbound call.
	RequestTimeout time.Duration

	// LogoutOnAuthFailure drops the session when a protected call is rejected
	// by the server as unauthorized. Off by default: a stale token stays in
	// place until the user signs out or in again.
	LogoutOnAuthFailure bool
}

// RedisConfig tunes the optional Redis session backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Client config from environment variables so main stays lean.
func FromEnv() Client {
	base := os.Getenv("INKWELL_API_URL")
	if base == "" {
		base = "http://localhost:8087/api/v1"
	}

	sessionFile := os.Getenv("INKWELL_SESSION_FILE")
	if sessionFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		sessionFile = home + "/.inkwell/session.json"
	}

	timeout := 30 * time.Second
	if raw := os.Getenv("INKWELL_REQUEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	return Client{
		APIBaseURL:          base,
		SessionFile:         sessionFile,
		RedisURL:            os.Getenv("INKWELL_REDIS_URL"),
		RequestTimeout:      timeout,
		LogoutOnAuthFailure: boolEnv("INKWELL_LOGOUT_ON_AUTH_FAILURE"),
	}
}

// Redis builds the Redis backend config from environment variables.
func Redis() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("INKWELL_REDIS_URL"),
		PoolSize:     intEnv("INKWELL_REDIS_POOL_SIZE", 4),
		MinIdleConns: intEnv("INKWELL_REDIS_MIN_IDLE", 1),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func boolEnv(key string) bool {
	return os.Getenv(key) == "true"
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
