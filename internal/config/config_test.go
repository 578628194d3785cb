package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "PATH_PREFIX", "STORAGE_TYPE", "DATA_FILE", "DYNAMODB_PICKUPS_TABLE",
		"AWS_REGION", "KINESIS_PICKUP_EVENTS_STREAM", "TIMEZONE", "CORS_ALLOWED_ORIGINS",
		"EXPORT_FILENAME_PREFIX", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, "", cfg.PathPrefix)
	assert.Equal(t, StorageFile, cfg.StorageType)
	assert.Equal(t, "data/pickup-logs.json", cfg.DataFile)
	assert.Equal(t, "pickup-logs", cfg.DynamoDBTable)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.Equal(t, "", cfg.KinesisStream)
	assert.Equal(t, "Europe/Amsterdam", cfg.Location().String())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "pickup-log", cfg.ExportPrefix)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("PATH_PREFIX", "/childcare/")
	t.Setenv("STORAGE_TYPE", "DynamoDB")
	t.Setenv("DYNAMODB_PICKUPS_TABLE", "pickups-prod")
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("KINESIS_PICKUP_EVENTS_STREAM", "pickup-events")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,,")
	t.Setenv("EXPORT_FILENAME_PREFIX", "ophalen")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr())
	assert.Equal(t, "/childcare", cfg.PathPrefix)
	assert.Equal(t, StorageDynamoDB, cfg.StorageType)
	assert.Equal(t, "pickups-prod", cfg.DynamoDBTable)
	assert.Equal(t, "us-west-2", cfg.AWSRegion)
	assert.Equal(t, "pickup-events", cfg.KinesisStream)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "ophalen", cfg.ExportPrefix)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_UnsupportedStorage(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_TYPE", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.Error(t, err)
}

func TestHTTPAddr(t *testing.T) {
	assert.Equal(t, ":8080", (&Config{}).HTTPAddr())
	assert.Equal(t, ":3000", (&Config{Port: ":3000"}).HTTPAddr())
	assert.Equal(t, ":3000", (&Config{Port: " 3000 "}).HTTPAddr())
}

func TestLocation_Unset(t *testing.T) {
	assert.Equal(t, time.UTC, (&Config{}).Location())
}
