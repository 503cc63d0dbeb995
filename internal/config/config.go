// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Env            string `mapstructure:"APP_ENV"`

	// File storage
	UploadDir        string `mapstructure:"UPLOAD_DIR"`
	MaxFileSizeMB    int    `mapstructure:"MAX_FILE_SIZE_MB"`
	MaxPhotosPerItem int    `mapstructure:"MAX_PHOTOS_PER_ITEM"`

	// Item change history policy. Comma-separated list of tracked fields.
	HistoryTrackedFields string `mapstructure:"HISTORY_TRACKED_FIELDS"`

	// Optional AI collaborator (OpenAI-compatible chat completions endpoint).
	AIAPIURL string `mapstructure:"AI_API_URL"`
	AIAPIKey string `mapstructure:"AI_API_KEY"`
	AIModel  string `mapstructure:"AI_MODEL"`

	// Tracing
	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	TracingOTLPEndpoint string  `mapstructure:"TRACING_OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; environment variables and defaults cover
	// everything it could contain.
	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Set default values for development
	viper.SetDefault("PORT", "8420")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "homestash")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("UPLOAD_DIR", "./uploads")
	viper.SetDefault("MAX_FILE_SIZE_MB", 10)
	viper.SetDefault("MAX_PHOTOS_PER_ITEM", 5)
	viper.SetDefault("HISTORY_TRACKED_FIELDS", "name,location")
	viper.SetDefault("AI_API_URL", "")
	viper.SetDefault("AI_API_KEY", "")
	viper.SetDefault("AI_MODEL", "gpt-4o-mini")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MaxPhotosPerItem <= 0 {
		return errors.New("MAX_PHOTOS_PER_ITEM must be positive")
	}
	if c.MaxFileSizeMB <= 0 {
		return errors.New("MAX_FILE_SIZE_MB must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}

// TrackedFields returns the set of item fields whose changes are historized.
func (c *Config) TrackedFields() map[string]bool {
	fields := make(map[string]bool)
	for _, f := range strings.Split(c.HistoryTrackedFields, ",") {
		f = strings.TrimSpace(strings.ToLower(f))
		if f != "" {
			fields[f] = true
		}
	}
	return fields
}

// MaxFileSizeBytes returns the per-file upload ceiling in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// AIConfigured reports whether the optional AI collaborator is usable.
func (c *Config) AIConfigured() bool {
	return c.AIAPIURL != "" && c.AIAPIKey != ""
}
