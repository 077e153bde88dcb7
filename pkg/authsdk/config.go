package authsdk

import (
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultConnectionTimeout is used when Config.ConnectionTimeout is zero.
const DefaultConnectionTimeout = 10 * time.Second

// Config holds everything needed to build a Client. It is read once by
// NewClient and never consulted again.
type Config struct {
	BaseURL           string        // Required: identity API root, trailing slash is stripped
	APIKey            string        // Optional: sent as x-api-key on every request
	ConnectionTimeout time.Duration // Optional: connect and read timeout (default: 10s)

	RateLimit float64 // Optional: max outbound requests per second (0 disables)
	RateBurst int     // Optional: burst for RateLimit (default: 1)

	// Logger receives SDK diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Persister mirrors the session to durable storage. Optional.
	Persister SessionPersister

	// Transport is the base round tripper. Defaults to a clone of
	// http.DefaultTransport with the connection timeout applied.
	Transport http.RoundTripper
}

// NewConfig returns a validated Config for baseURL with defaults applied.
func NewConfig(baseURL string) (Config, error) {
	cfg := Config{BaseURL: baseURL}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether the Config can be used to build a Client.
func (c Config) Validate() error {
	return c.normalize()
}

// normalize validates the config and fills defaults in place.
func (c *Config) normalize() error {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return &ConfigurationError{Field: "BaseURL", Reason: "must not be empty"}
	}
	base = strings.TrimSuffix(base, "/")

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigurationError{Field: "BaseURL", Reason: "must be an absolute URL"}
	}
	c.BaseURL = base

	switch {
	case c.ConnectionTimeout == 0:
		c.ConnectionTimeout = DefaultConnectionTimeout
	case c.ConnectionTimeout < 0:
		return &ConfigurationError{Field: "ConnectionTimeout", Reason: "must be positive"}
	}

	if c.RateLimit < 0 {
		return &ConfigurationError{Field: "RateLimit", Reason: "must not be negative"}
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return nil
}

// ConfigFromEnv builds a Config from EVOAUTH_* environment variables:
//
//	EVOAUTH_BASE_URL               required
//	EVOAUTH_API_KEY                optional
//	EVOAUTH_CONNECTION_TIMEOUT_MS  optional (default: 10000)
//	EVOAUTH_RATE_LIMIT_RPS         optional (default: 0, disabled)
//	EVOAUTH_RATE_LIMIT_BURST       optional (default: 1)
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:           os.Getenv("EVOAUTH_BASE_URL"),
		APIKey:            os.Getenv("EVOAUTH_API_KEY"),
		ConnectionTimeout: time.Duration(getEnvIntOrDefault("EVOAUTH_CONNECTION_TIMEOUT_MS", 10000)) * time.Millisecond,
		RateLimit:         getEnvFloatOrDefault("EVOAUTH_RATE_LIMIT_RPS", 0),
		RateBurst:         getEnvIntOrDefault("EVOAUTH_RATE_LIMIT_BURST", 1),
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}
