package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers understood by the server.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config represents the full application configuration surface.
type Config struct {
	Server       ServerConfig
	Log          LogConfig
	Storage      StorageConfig
	MongoDB      MongoDBConfig
	Postgres     PostgresConfig
	Distribution DistributionConfig
	Reporting    ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig holds logger settings. An empty File logs to stdout.
type LogConfig struct {
	Level string
	File  string
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// PostgresConfig holds settings for PostgreSQL.
type PostgresConfig struct {
	DSN         string
	AutoMigrate bool
}

// DistributionConfig holds workflow defaults. Values stored in the system
// settings collection take precedence over these.
type DistributionConfig struct {
	FarmerConfirmationWindowDays string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	OverdueCronSchedule string
	Timezone            string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getenvWithDefault("STORAGE_DRIVER", DriverMongo)),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "agrosupply"),
		},
		Postgres: PostgresConfig{
			DSN:         os.Getenv("POSTGRES_DSN"),
			AutoMigrate: getenvWithDefault("POSTGRES_AUTO_MIGRATE", "true") == "true",
		},
		Distribution: DistributionConfig{
			FarmerConfirmationWindowDays: os.Getenv("FARMER_CONFIRMATION_WINDOW_DAYS"),
		},
		Reporting: ReportingConfig{
			OverdueCronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 7 * * *"),
			Timezone:            getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN must be provided")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

// SettingFallbacks exposes configured workflow defaults keyed by system setting name.
func (c *Config) SettingFallbacks() map[string]string {
	out := map[string]string{}
	if c.Distribution.FarmerConfirmationWindowDays != "" {
		out["FarmerConfirmationWindowDays"] = c.Distribution.FarmerConfirmationWindowDays
	}
	return out
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
