package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Paystack payment processor configuration
	Paystack PaystackConfig

	// Arkesel SMS gateway configuration
	SMS SMSConfig

	// Receipt side-effects service configuration
	Receipt ReceiptConfig

	// Admin allow-list configuration
	Admin AdminConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// PaystackConfig holds Paystack verification and webhook configuration
type PaystackConfig struct {
	SecretKey string // SECRET - used for verify calls and webhook HMAC
	BaseURL   string // override for tests; defaults to the live API
}

// SMSConfig holds Arkesel SMS gateway configuration
type SMSConfig struct {
	APIKey   string
	SenderID string
	APIURL   string
}

// ReceiptConfig holds the receipt/email side-effects service configuration
type ReceiptConfig struct {
	WebhookURL string // Apps Script endpoint that renders receipt PDFs
}

// AdminConfig holds the administrator allow-list
type AdminConfig struct {
	Emails []string // comma-separated ADMIN_EMAILS, lower-cased
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Paystack: PaystackConfig{
			SecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
			BaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		},
		SMS: SMSConfig{
			APIKey:   getEnv("ARKESEL_API_KEY", ""),
			SenderID: getEnv("ARKESEL_SENDER_ID", "EliteTransport"),
			APIURL:   getEnv("ARKESEL_API_URL", ""),
		},
		Receipt: ReceiptConfig{
			WebhookURL: getEnv("GAS_WEBHOOK_URL", ""),
		},
		Admin: AdminConfig{
			Emails: getEnvAsSlice("ADMIN_EMAILS", nil),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Lower-case the admin allow-list once so membership checks are cheap
	for i, email := range config.Admin.Emails {
		config.Admin.Emails[i] = strings.ToLower(email)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// IsAdmin reports whether an email is in the configured allow-list.
// Matching is case-insensitive.
func (a *AdminConfig) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range a.Emails {
		if allowed == email {
			return true
		}
	}
	return false
}

// IsAdmin reports whether an email is in the admin allow-list
func (c *Config) IsAdmin(email string) bool {
	return c.Admin.IsAdmin(email)
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
