// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StoreDriver selects the record store: "postgres" (default) or "memory".
	StoreDriver string

	// DatabaseURL is the Postgres connection string. Required for the
	// postgres driver.
	DatabaseURL string

	// RedisAddr enables the Redis change bus so several API instances share
	// realtime updates. Empty keeps changes in-process.
	RedisAddr    string
	RedisChannel string

	// JWTSecret verifies HS256 bearer tokens. Required.
	JWTSecret string

	NominatimURL       string
	NominatimUserAgent string
	OpenMeteoURL       string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	// OutboundTimeout bounds every call to an external service. Defaults to 10s.
	OutboundTimeout time.Duration

	// GeocodeCacheTTL bounds how long geocoding results are reused. Defaults to 24h.
	GeocodeCacheTTL time.Duration
	// GeocodeCacheSize caps how many geocoding results are kept. Defaults to 1000.
	GeocodeCacheSize int

	// MaxBodyBytes caps request bodies. Defaults to 10 MiB, enough for a few
	// base64 photos.
	MaxBodyBytes int64
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config.LoadDotEnv: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing every required variable that is not set and every
// variable that cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisChannel:        getEnv("REDIS_CHANNEL", "record-changes"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		NominatimURL:        os.Getenv("NOMINATIM_URL"),
		NominatimUserAgent:  getEnv("NOMINATIM_USER_AGENT", "wanderlust-api/1.0"),
		OpenMeteoURL:        os.Getenv("OPEN_METEO_URL"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "wanderlust"),
	}

	var missing, invalid []string

	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	switch cfg.StoreDriver {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreMemory:
	default:
		invalid = append(invalid, "STORE_DRIVER")
	}

	var err error
	if cfg.OutboundTimeout, err = getDuration("OUTBOUND_TIMEOUT", 10*time.Second); err != nil {
		invalid = append(invalid, "OUTBOUND_TIMEOUT")
	}
	if cfg.GeocodeCacheTTL, err = getDuration("GEOCODE_CACHE_TTL", 24*time.Hour); err != nil {
		invalid = append(invalid, "GEOCODE_CACHE_TTL")
	}
	if size, err := getInt64("GEOCODE_CACHE_SIZE", 1000); err != nil {
		invalid = append(invalid, "GEOCODE_CACHE_SIZE")
	} else {
		cfg.GeocodeCacheSize = int(size)
	}
	if cfg.MaxBodyBytes, err = getInt64("MAX_BODY_BYTES", 10<<20); err != nil {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", ")))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: %q is not a positive duration", key, v)
	}
	return d, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: %q is not a positive integer", key, v)
	}
	return n, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
