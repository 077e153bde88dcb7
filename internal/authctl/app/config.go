package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/evoauth/pkg/authsdk"
	"github.com/aussiebroadwan/evoauth/pkg/sessionstore/sqlite"
)

type Config struct {
	BaseURL           string        // Required: identity API root
	APIKey            string        // Optional: sent as x-api-key
	ConnectionTimeout time.Duration // Optional: connect and read timeout (default: 10s)
	RateLimit         float64       // Optional: outbound requests per second (default: 0, disabled)
	RateBurst         int           // Optional: burst for RateLimit (default: 1)
	SessionDB         string        // Optional: path to the SQLite session file (default: ./evoauth-session.db)
	Profile           string        // Optional: session profile (default: default)
	Env               string        // Environment (dev, prod) (default: prod)
	LogLevel          string        // Log level (debug, info, warn, error) (default: warn)
	LogFormat         string        // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	return Config{
		BaseURL:           os.Getenv("EVOAUTH_BASE_URL"),
		APIKey:            os.Getenv("EVOAUTH_API_KEY"),
		ConnectionTimeout: getEnvDurationOrDefault("EVOAUTH_CONNECTION_TIMEOUT", authsdk.DefaultConnectionTimeout),
		RateLimit:         getEnvFloatOrDefault("EVOAUTH_RATE_LIMIT_RPS", 0),
		RateBurst:         getEnvIntOrDefault("EVOAUTH_RATE_LIMIT_BURST", 1),
		SessionDB:         getEnvOrDefault("EVOAUTH_SESSION_DB", "evoauth-session.db"),
		Profile:           getEnvOrDefault("EVOAUTH_PROFILE", sqlite.DefaultProfile),
		// Commands print to stdout, so logs stay quiet unless asked for.
		Env:       getEnvOrDefault("ENV", "prod"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

// SDKConfig maps the CLI settings onto an SDK config. The logger and
// persister are filled in by New.
func (c Config) SDKConfig() authsdk.Config {
	return authsdk.Config{
		BaseURL:           c.BaseURL,
		APIKey:            c.APIKey,
		ConnectionTimeout: c.ConnectionTimeout,
		RateLimit:         c.RateLimit,
		RateBurst:         c.RateBurst,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "5s", "1500ms")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are milliseconds, matching EVOAUTH_CONNECTION_TIMEOUT_MS
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	return defaultValue
}
