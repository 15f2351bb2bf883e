package app

import (
	"os"
	"strings"
	"time"

	"github.com/weatherwise/weatherwise/internal/weather"
)

type Config struct {
	ProviderMode    string // Identity provider mode (local, rest) (default: local)
	IdentityBaseURL string // Base URL of the hosted identity API (rest mode only)

	WeatherAPIKey  string // Required for forecast commands: weather API key
	WeatherBaseURL string // Optional: weather API base URL override

	DatabaseFile string        // Optional: path to SQLite database file (default: ./weatherwise.db)
	SessionFile  string        // Optional: path to the persisted session token (default: ./.weatherwise-session)
	ChallengeTTL time.Duration // Optional: SMS challenge lifetime in local mode

	// AutoVerifyNumbers are phone numbers the local provider verifies
	// instantly without sending a code (comma separated).
	AutoVerifyNumbers []string

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	cfg := Config{
		ProviderMode:    getEnvOrDefault("WEATHERWISE_PROVIDER", "local"),
		IdentityBaseURL: os.Getenv("WEATHERWISE_IDENTITY_URL"),
		WeatherAPIKey:   os.Getenv("WEATHERWISE_API_KEY"),
		WeatherBaseURL:  getEnvOrDefault("WEATHERWISE_API_BASE_URL", weather.DefaultBaseURL),
		DatabaseFile:    getEnvOrDefault("WEATHERWISE_DATABASE_FILE", "weatherwise.db"),
		SessionFile:     getEnvOrDefault("WEATHERWISE_SESSION_FILE", ".weatherwise-session"),
		ChallengeTTL:    getEnvDurationOrDefault("WEATHERWISE_CHALLENGE_TTL", 0),
		Env:             getEnvOrDefault("ENV", "dev"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "text"),
	}

	if numbers := os.Getenv("WEATHERWISE_AUTO_VERIFY_NUMBERS"); numbers != "" {
		for _, n := range strings.Split(numbers, ",") {
			if n = strings.TrimSpace(n); n != "" {
				cfg.AutoVerifyNumbers = append(cfg.AutoVerifyNumbers, n)
			}
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
