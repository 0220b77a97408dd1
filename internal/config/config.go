package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the portal server.
type Config struct {
	Port        string
	Origin      string
	Environment string
	LogLevel    string

	// Backend collaborators.
	ClinicAPIBaseURL string
	AdminAPIBaseURL  string
	UpstreamTimeout  time.Duration

	// Session cookie forwarded to the browser after login.
	CookieName   string
	CookieMaxAge int
	CookieSecure bool

	// Per-IP request throttling.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	timeoutSeconds, err := getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cookieMaxAge, err := getEnvInt("COOKIE_MAX_AGE_SECONDS", 86400)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getEnvFloat("RATE_LIMIT_PER_SECOND", 5)
	if err != nil {
		return nil, err
	}
	rateBurst, err := getEnvInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:               getEnv("PORT", "3001"),
		Origin:             getEnv("ORIGIN", "http://localhost:3000"),
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ClinicAPIBaseURL:   getEnv("CLINIC_API_URL", "http://localhost:8080/api/clinic"),
		AdminAPIBaseURL:    getEnv("ADMIN_API_URL", "http://localhost:8084/api/admin"),
		UpstreamTimeout:    time.Duration(timeoutSeconds) * time.Second,
		CookieName:         getEnv("COOKIE_NAME", "clinic_token"),
		CookieMaxAge:       cookieMaxAge,
		CookieSecure:       getEnv("COOKIE_SECURE", "false") == "true",
		RateLimitPerSecond: rateLimit,
		RateLimitBurst:     rateBurst,
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
