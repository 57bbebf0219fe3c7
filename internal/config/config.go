package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataDir      string
	DataBackend  string
	SQLiteDBPath string
	SeedCSVPath  string

	// Field schema
	FieldsConfig string

	// AMQP (optional, empty URL disables publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string
	// SheetsResyncInterval triggers a full sheet sync in the worker; 0 disables it.
	SheetsResyncInterval time.Duration

	// Export token cache
	ExportCacheSize int
	ExportCacheTTL  time.Duration

	LogLevel string
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DataDir:      dataDir,
		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", filepath.Join(dataDir, "energy.db")),
		SeedCSVPath:  getEnv("SEED_CSV_PATH", filepath.Join(dataDir, "energy.csv")),

		FieldsConfig: getEnv("FIELDS_CONFIG", "./config/fields.yaml"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "nrjtrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "readings_changed"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Rapport"),

		SheetsResyncInterval: getEnvDuration("SHEETS_RESYNC_INTERVAL", time.Hour),

		ExportCacheSize: getEnvInt("EXPORT_CACHE_SIZE", 64),
		ExportCacheTTL:  getEnvDuration("EXPORT_CACHE_TTL", 30*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is provided")
	}

	if c.SheetsResyncInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid sheets resync interval %v: must not be negative", c.SheetsResyncInterval))
	}

	if c.ExportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export cache size %d: must be at least 1", c.ExportCacheSize))
	} else if c.ExportCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid export cache size %d: must be at most 10000", c.ExportCacheSize))
	}

	if c.ExportCacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid export cache TTL %v: must be at least 1 minute", c.ExportCacheTTL))
	} else if c.ExportCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export cache TTL %v: must be at most 24 hours", c.ExportCacheTTL))
	}

	if _, ok := parseLevel(c.LogLevel); !ok {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SlogLevel returns the configured log level, Info when unset or invalid.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
