package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the ciudamos service
type Config struct {
	// Server configuration
	Port string

	// OpenAI configuration. An empty key switches the analyze endpoint to mock mode.
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	AITimeout     time.Duration
	AIRateLimit   float64
	AICacheTTL    time.Duration

	// Storage configuration
	StoreDriver string
	StoreDSN    string

	// Authority directory
	AuthoritiesFile string

	// Google credentials, base64 encoded service account JSON or API key
	FirebaseCredentials        string
	MapsCredentials            string
	NaturalLanguageCredentials string

	// Mirror of the report envelope to Firestore
	MirrorSchedule string

	// Logging
	LogLevel string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not read .env")
	}

	return &Config{
		Port: getEnv("PORT", "3333"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		AITimeout:     getDurationEnv("AI_TIMEOUT", 30*time.Second),
		AIRateLimit:   getFloatEnv("AI_RATE_LIMIT", 2),
		AICacheTTL:    getDurationEnv("AI_CACHE_TTL", 10*time.Minute),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		StoreDSN:    getEnv("STORE_DSN", "ciudamos.db"),

		AuthoritiesFile: getEnv("AUTHORITIES_FILE", "authorities.yaml"),

		FirebaseCredentials:        getEnv("FIREBASE_CREDENTIALS", ""),
		MapsCredentials:            getEnv("MAPS_CREDENTIALS", ""),
		NaturalLanguageCredentials: getEnv("NATURAL_LANGUAGE_CREDENTIALS", ""),

		MirrorSchedule: getEnv("MIRROR_SCHEDULE", "*/10 * * * *"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// MockMode reports whether the analyze endpoint should answer with the canned payload.
func (c *Config) MockMode() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) == ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
