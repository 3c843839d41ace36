// Package config provides application configuration loading from environment variables and .env files.
// It uses viper for flexible configuration management with sensible defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration loaded from environment variables or .env file.
// Configuration priority: environment variables > .env file > defaults.
type Config struct {
	AppEnv      string // Application environment (dev, staging, prod)
	HTTPAddr    string // HTTP server bind address (e.g., ":8080")
	MetricsAddr string // Metrics server bind address
	StoreType   string // Storage backend type (postgres or memory)
	LogLevel    string // zerolog level (debug, info, warn, error)

	DatabaseDSN string // Full PostgreSQL connection string; overrides the DB_* parts when set
	DBHost      string // Database host
	DBPort      int    // Database port
	DBName      string // Database name
	DBUser      string // Database user
	DBPassword  string // Database password
	DBPoolSize  int    // Maximum pooled connections
	DBSSLMode   string // sslmode parameter (disable, require, verify-full, ...)

	RateLimitPerIP int // Requests per minute allowed per client IP

	WebhookURLs   []string // Endpoints notified of flag changes; empty disables webhooks
	WebhookSecret string   // HMAC secret for webhook signatures
}

// Load reads configuration from environment variables and .env file (if present).
// Environment variables take precedence over .env file values.
// Returns a Config struct with all values populated (either from env or defaults).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env") // Optional; silently ignored if file doesn't exist
	_ = v.ReadInConfig()    // Ignore error - .env is optional
	v.AutomaticEnv()        // Read from environment variables

	setConfigDefaults(v)

	return &Config{
		AppEnv:         v.GetString("APP_ENV"),
		HTTPAddr:       v.GetString("APP_HTTP_ADDR"),
		MetricsAddr:    v.GetString("METRICS_ADDR"),
		StoreType:      v.GetString("STORE_TYPE"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		DatabaseDSN:    v.GetString("DB_DSN"),
		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetInt("DB_PORT"),
		DBName:         v.GetString("DB_NAME"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		DBPoolSize:     v.GetInt("DB_POOL_SIZE"),
		DBSSLMode:      v.GetString("DB_SSLMODE"),
		RateLimitPerIP: v.GetInt("RATE_LIMIT_PER_IP"),
		WebhookURLs:    splitList(v.GetString("WEBHOOK_URLS")),
		WebhookSecret:  v.GetString("WEBHOOK_SECRET"),
	}, nil
}

// setConfigDefaults sets default values for all configuration options.
// These defaults are suitable for local development but should be overridden in production.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("STORE_TYPE", "postgres")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "flagkeep")
	v.SetDefault("DB_USER", "flagkeep")
	v.SetDefault("DB_PASSWORD", "flagkeep") // Change in production!
	v.SetDefault("DB_POOL_SIZE", 10)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("RATE_LIMIT_PER_IP", 100)
	v.SetDefault("WEBHOOK_URLS", "")
	v.SetDefault("WEBHOOK_SECRET", "")
}

// DSN returns the PostgreSQL connection string. An explicit DB_DSN wins;
// otherwise it is assembled from the individual DB_* parts with the
// password URL-escaped.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword),
		c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidationError represents a configuration validation error with details about what failed.
type ValidationError struct {
	Field   string // Name of the configuration field
	Message string // Human-readable error message
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Validate checks that the configuration is suitable for use. It is
// stricter than Load and intended to be called at startup to fail fast
// on misconfiguration.
//
// In production (APP_ENV=prod), the default database password is
// rejected and webhook targets require a signing secret.
func (c *Config) Validate() error {
	if c.StoreType != "memory" && c.StoreType != "postgres" {
		return ValidationError{
			Field:   "STORE_TYPE",
			Message: fmt.Sprintf("must be 'memory' or 'postgres', got '%s'", c.StoreType),
		}
	}

	if c.StoreType == "postgres" && c.DSN() == "" {
		return ValidationError{
			Field:   "DB_DSN",
			Message: "database connection settings are required when STORE_TYPE=postgres",
		}
	}

	if c.HTTPAddr == "" {
		return ValidationError{
			Field:   "APP_HTTP_ADDR",
			Message: "HTTP server address cannot be empty",
		}
	}

	if c.MetricsAddr == "" {
		return ValidationError{
			Field:   "METRICS_ADDR",
			Message: "metrics server address cannot be empty",
		}
	}

	if c.DBPoolSize < 1 {
		return ValidationError{
			Field:   "DB_POOL_SIZE",
			Message: fmt.Sprintf("must be at least 1, got %d", c.DBPoolSize),
		}
	}

	if c.AppEnv == "prod" || c.AppEnv == "production" {
		if c.StoreType == "postgres" && c.DatabaseDSN == "" && c.DBPassword == "flagkeep" {
			return ValidationError{
				Field:   "DB_PASSWORD",
				Message: "default database password 'flagkeep' is not allowed in production",
			}
		}
		if len(c.WebhookURLs) > 0 && c.WebhookSecret == "" {
			return ValidationError{
				Field:   "WEBHOOK_SECRET",
				Message: "webhook secret must be set when webhook URLs are configured in production",
			}
		}
	}

	return nil
}
