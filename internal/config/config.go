package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"pickup-service/internal/logging"
)

const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Port               string
	PathPrefix         string
	StorageType        string
	DataFile           string
	DynamoDBTable      string
	AWSRegion          string
	KinesisStream      string
	Timezone           string
	CORSAllowedOrigins []string
	ExportPrefix       string
	ShutdownTimeout    time.Duration
	Logging            logging.Config

	location *time.Location
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		PathPrefix:         strings.TrimRight(strings.TrimSpace(k.String("PATH_PREFIX")), "/"),
		StorageType:        strings.ToLower(valueOrDefault(k.String("STORAGE_TYPE"), StorageFile)),
		DataFile:           valueOrDefault(k.String("DATA_FILE"), "data/pickup-logs.json"),
		DynamoDBTable:      valueOrDefault(k.String("DYNAMODB_PICKUPS_TABLE"), "pickup-logs"),
		AWSRegion:          valueOrDefault(k.String("AWS_REGION"), "eu-west-1"),
		KinesisStream:      strings.TrimSpace(k.String("KINESIS_PICKUP_EVENTS_STREAM")),
		Timezone:           valueOrDefault(k.String("TIMEZONE"), "Europe/Amsterdam"),
		CORSAllowedOrigins: splitAndTrim(valueOrDefault(k.String("CORS_ALLOWED_ORIGINS"), "*")),
		ExportPrefix:       valueOrDefault(k.String("EXPORT_FILENAME_PREFIX"), "pickup-log"),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
		Logging: logging.Config{
			Level:  valueOrDefault(k.String("LOG_LEVEL"), "info"),
			Format: valueOrDefault(k.String("LOG_FORMAT"), "json"),
			Output: valueOrDefault(k.String("LOG_OUTPUT"), "stdout"),
		},
	}

	switch cfg.StorageType {
	case StorageFile, StorageMemory, StorageDynamoDB:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_TYPE %q", cfg.StorageType)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return cfg, nil
}

// Location returns the zone pickups are priced and dated in
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
