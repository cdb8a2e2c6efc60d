package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port           string
	DBDriver       string // "sqlite" or "postgres"
	DBPath         string // SQLite database file path
	DatabaseURL    string // PostgreSQL connection string (required for postgres driver)
	UploadDir      string // Local storage root for the filesystem backend
	PublicURL      string // Optional: override auto-detected URL for reverse proxy setups
	AllowedOrigins []string

	ReaperIntervalMinutes     int
	ReaperStartupDelaySeconds int

	AdminUsername     string
	AdminPassword     string // plaintext, hashed at startup if no hash is provided
	AdminPasswordHash string // bcrypt hash, takes precedence over ADMIN_PASSWORD
	SessionTTLMinutes int

	MaxRequestBodyMB int64 // Hard cap on request bodies, above the per-file settings limit
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBPath:         getEnv("DB_PATH", "./airlift.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		PublicURL:      getEnv("PUBLIC_URL", ""), // Optional
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", "*"),

		ReaperIntervalMinutes:     getEnvInt("REAPER_INTERVAL_MINUTES", 60),
		ReaperStartupDelaySeconds: getEnvInt("REAPER_STARTUP_DELAY_SECONDS", 10),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 720), // 12 hours

		MaxRequestBodyMB: getEnvInt64("MAX_REQUEST_BODY_MB", 1024),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate ensures configuration values are sensible
func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty with the sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required with the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be \"sqlite\" or \"postgres\", got %q", c.DBDriver)
	}

	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR cannot be empty")
	}

	if c.ReaperIntervalMinutes <= 0 {
		return fmt.Errorf("REAPER_INTERVAL_MINUTES must be positive, got %d", c.ReaperIntervalMinutes)
	}

	if c.ReaperStartupDelaySeconds < 0 {
		return fmt.Errorf("REAPER_STARTUP_DELAY_SECONDS cannot be negative, got %d", c.ReaperStartupDelaySeconds)
	}

	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}

	if c.MaxRequestBodyMB <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_MB must be positive, got %d", c.MaxRequestBodyMB)
	}

	return nil
}

// AdminEnabled reports whether admin endpoints can be used at all. Without
// credentials configured, admin routes return 401 unconditionally.
func (c *Config) AdminEnabled() bool {
	return c.AdminUsername != "" && (c.AdminPasswordHash != "" || c.AdminPassword != "")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvInt64 retrieves an int64 environment variable or returns a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma-separated list from environment variable
func getEnvList(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
