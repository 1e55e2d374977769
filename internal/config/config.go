package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Reverse geocoding (Nominatim)
	NominatimBaseURL   string
	NominatimUserAgent string
	GeocodeTimeout     time.Duration
	GeocodeMinInterval time.Duration

	// Moderation (OpenAI)
	OpenAIAPIKey      string
	OpenAIModerateURL string
	ModerationTimeout time.Duration

	// Backfill scheduler
	BackfillInterval   time.Duration
	BackfillBatchSize  int
	BackfillRowRetries int

	// Moderation scheduler
	ModerationInterval    time.Duration
	ModerationBatchSize   int
	ModerationItemDelay   time.Duration
	ModerationMaxAttempts int

	// Admin
	JWTSecret         string
	JWTAccessExpiry   time.Duration
	AdminPasswordHash string
	AdminToken        string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "slippy_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		NominatimBaseURL:   getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: getEnv("NOMINATIM_USER_AGENT", "Slippy Road Conditions App"),
		GeocodeTimeout:     parseDuration(getEnv("GEOCODE_TIMEOUT", "10s"), 10*time.Second),
		GeocodeMinInterval: parseDuration(getEnv("GEOCODE_MIN_INTERVAL", "1100ms"), 1100*time.Millisecond),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModerateURL: getEnv("OPENAI_MODERATE_URL", "https://api.openai.com/v1/moderations"),
		ModerationTimeout: parseDuration(getEnv("MODERATION_TIMEOUT", "10s"), 10*time.Second),

		BackfillInterval:   parseDuration(getEnv("BACKFILL_INTERVAL", "5m"), 5*time.Minute),
		BackfillBatchSize:  parseInt(getEnv("BACKFILL_BATCH_SIZE", "10"), 10),
		BackfillRowRetries: parseInt(getEnv("BACKFILL_ROW_RETRIES", "5"), 5),

		ModerationInterval:    parseDuration(getEnv("MODERATION_INTERVAL", "2m"), 2*time.Minute),
		ModerationBatchSize:   parseInt(getEnv("MODERATION_BATCH_SIZE", "10"), 10),
		ModerationItemDelay:   parseDuration(getEnv("MODERATION_ITEM_DELAY", "200ms"), 200*time.Millisecond),
		ModerationMaxAttempts: parseInt(getEnv("MODERATION_MAX_ATTEMPTS", "10"), 10),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:   parseDuration(getEnv("JWT_ACCESS_EXPIRY", "12h"), 12*time.Hour),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminToken:        getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
