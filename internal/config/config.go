package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port        string
	Environment string

	DatabaseURL string

	JWTSecret []byte

	LogLevel string
	LogFile  string

	// Cloudinary image hosting
	CloudinaryURL    string
	CloudinaryFolder string

	// AWS SES email delivery (optional; emails are skipped when unset)
	AWSRegion string
	FromEmail string
	FromName  string

	// Keep-alive self ping (optional)
	KeepAliveURL      string
	KeepAliveInterval string
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine; system environment still applies.
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Environment:       getEnvOrDefault("ENVIRONMENT", "development"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         []byte(jwtSecret),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:           getEnvOrDefault("LOG_FILE", "server.log"),
		CloudinaryURL:     os.Getenv("CLOUDINARY_URL"),
		CloudinaryFolder:  getEnvOrDefault("CLOUDINARY_FOLDER", "onsekiz"),
		AWSRegion:         getEnvOrDefault("AWS_REGION", "us-east-1"),
		FromEmail:         os.Getenv("FROM_EMAIL"),
		FromName:          getEnvOrDefault("FROM_NAME", "OnSekiz"),
		KeepAliveURL:      os.Getenv("KEEPALIVE_URL"),
		KeepAliveInterval: getEnvOrDefault("KEEPALIVE_INTERVAL", "14m"),
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
