package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service settings.
type Config struct {
	AppPort        string
	DatabaseDriver string
	DatabaseDSN    string
	RabbitMQURL    string
	RabbitMQQueue  string
	JaegerEndpoint string
	LogLevel       string
	SeedWidgets    bool
	CORS           CORSConfig
}

// CORSConfig mirrors fiber's cors settings. Lists are comma separated.
type CORSConfig struct {
	AllowedOrigins   string
	AllowedMethods   string
	AllowedHeaders   string
	AllowCredentials bool
	MaxAge           int
}

// Supported values of DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// New returns a viper instance with the service defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":9000")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "widgets.db")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "widget_events")
	v.SetDefault("JAEGER_ENDPOINT", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_WIDGETS", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Content-Type,Authorization")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", false)
	v.SetDefault("CORS_MAX_AGE", 3600)
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present), an optional config.yaml from the working
// directory and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from v and checks it.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:  v.GetString("RABBITMQ_QUEUE"),
		JaegerEndpoint: v.GetString("JAEGER_ENDPOINT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		SeedWidgets:    v.GetBool("SEED_WIDGETS"),
		CORS: CORSConfig{
			AllowedOrigins:   v.GetString("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   v.GetString("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   v.GetString("CORS_ALLOWED_HEADERS"),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetInt("CORS_MAX_AGE"),
		},
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.CORS.AllowCredentials && cfg.CORS.AllowedOrigins == "*" {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS requires explicit CORS_ALLOWED_ORIGINS")
	}
	return cfg, nil
}
