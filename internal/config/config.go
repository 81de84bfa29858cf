// Package config loads ticketdesk configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers accepted by TICKETDESK_STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverFS       = "fs"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
	DriverRedis    = "redis"
)

// Metrics backends accepted by TICKETDESK_METRICS.
const (
	MetricsNone       = "none"
	MetricsExpvar     = "expvar"
	MetricsPrometheus = "prometheus"
)

// Config is the full process configuration.
type Config struct {
	Storage Storage
	Log     Log
	Auth    Auth
	Metrics string `env:"TICKETDESK_METRICS" envDefault:"none"`
}

// Storage selects and parameterizes the durable document medium.
type Storage struct {
	Driver      string `env:"TICKETDESK_STORAGE_DRIVER" envDefault:"fs"`
	FSRoot      string `env:"TICKETDESK_FS_ROOT" envDefault:"./ticketdesk-data"`
	SQLitePath  string `env:"TICKETDESK_SQLITE_PATH" envDefault:"ticketdesk.db"`
	PostgresDSN string `env:"TICKETDESK_POSTGRES_DSN"`

	S3Bucket    string `env:"TICKETDESK_S3_BUCKET"`
	S3Region    string `env:"TICKETDESK_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"TICKETDESK_S3_ENDPOINT"`
	S3PathStyle bool   `env:"TICKETDESK_S3_PATH_STYLE"`
	S3Prefix    string `env:"TICKETDESK_S3_PREFIX"`
	S3AccessKey string `env:"TICKETDESK_S3_ACCESS_KEY_ID"`
	S3SecretKey string `env:"TICKETDESK_S3_SECRET_ACCESS_KEY"`

	RedisAddr     string `env:"TICKETDESK_REDIS_ADDR"`
	RedisPassword string `env:"TICKETDESK_REDIS_PASSWORD"`
	RedisDB       int    `env:"TICKETDESK_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"TICKETDESK_REDIS_PREFIX" envDefault:"ticketdesk:"`

	// QuotaBytes caps the total size of stored documents; 0 disables the cap.
	QuotaBytes int64 `env:"TICKETDESK_STORAGE_QUOTA_BYTES" envDefault:"5242880"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `env:"TICKETDESK_LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"TICKETDESK_LOG_DEVELOPMENT"`
	OutputPath  string `env:"TICKETDESK_LOG_OUTPUT" envDefault:"stderr"`
}

// Auth holds password hashing cost and seed credentials.
type Auth struct {
	BcryptCost        int    `env:"TICKETDESK_BCRYPT_COST" envDefault:"10"`
	RootPassword      string `env:"TICKETDESK_ROOT_PASSWORD" envDefault:"root"`
	DemoAdminPassword string `env:"TICKETDESK_DEMO_ADMIN_PASSWORD" envDefault:"123"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// Load parses and validates the process configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks driver-specific required fields.
func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case DriverMemory, DriverFS, DriverSQLite:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("TICKETDESK_POSTGRES_DSN required for postgres driver")
		}
	case DriverS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("TICKETDESK_S3_BUCKET required for s3 driver")
		}
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("TICKETDESK_REDIS_ADDR required for redis driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %s", c.Storage.Driver)
	}
	switch c.Metrics {
	case "", MetricsNone, MetricsExpvar, MetricsPrometheus:
	default:
		return fmt.Errorf("unknown metrics backend %s", c.Metrics)
	}
	if c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("storage quota must not be negative")
	}
	if c.Auth.RootPassword == "" {
		return fmt.Errorf("TICKETDESK_ROOT_PASSWORD must not be empty")
	}
	return nil
}
