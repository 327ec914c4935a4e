package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// APIKey is the shared secret callers must present in X-API-Key.
	// Empty means booking requests are always rejected.
	APIKey string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	CalendarID string
	TokenFile  string

	// SlotCapacity is the number of appointments allowed in the same slot.
	SlotCapacity int
	// SlotDuration is the length of a booking slot.
	SlotDuration time.Duration
	// TimeZone is the IANA zone events are created in.
	TimeZone string

	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	port := getEnv("PORT", "8080")
	baseURL := getEnv("PUBLIC_BASE_URL", "http://localhost:"+port)
	return &Config{
		Port:          port,
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: baseURL,

		APIKey: getEnv("X_API_KEY", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", baseURL+"/oauth/callback"),

		CalendarID: getEnv("CALENDAR_ID", "primary"),
		TokenFile:  getEnv("TOKEN_FILE", "token.json"),

		SlotCapacity: getEnvAsInt("SLOT_CAPACITY", 3),
		SlotDuration: getEnvAsDuration("SLOT_DURATION", time.Hour),
		TimeZone:     getEnv("BOOKING_TZ", "Europe/Paris"),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
