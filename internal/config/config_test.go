package config

import (
	"context"
	"log/slog"
	"testing"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker   = "localhost:9092"
	testMapboxToken = "pk.test-token"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, SourceSimulated, cfg.AlertSource)
	assert.Empty(t, cfg.AlertSourceURL)
	assert.Equal(t, 10*time.Second, cfg.AlertSourceTimeout)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval)
	assert.Zero(t, cfg.SimulatorSeed)
	assert.Empty(t, cfg.LocationsFile)
	assert.False(t, cfg.SeedDemoLocations)
	assert.Equal(t, GeocoderNominatim, cfg.GeocoderProvider)
	assert.Equal(t, 5*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, 1000, cfg.GeocoderCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.GeocoderCacheTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "location-risk-changes", cfg.KafkaRiskTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("ALERT_SOURCE", SourceRemote)
	t.Setenv("ALERT_SOURCE_URL", "http://upstream:3001")
	t.Setenv("ALERT_SOURCE_TIMEOUT", "3s")
	t.Setenv("LOCATIONS_FILE", "/var/lib/risk/locations.json")
	t.Setenv("SEED_DEMO_LOCATIONS", "true")
	t.Setenv("GEOCODER_PROVIDER", GeocoderMapbox)
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("GEOCODER_TIMEOUT", "2s")
	t.Setenv("GEOCODER_CACHE_SIZE", "500")
	t.Setenv("GEOCODER_CACHE_TTL", "1h")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_RISK_TOPIC", "custom-risk")
	t.Setenv("SIMULATOR_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, SourceRemote, cfg.AlertSource)
	assert.Equal(t, "http://upstream:3001", cfg.AlertSourceURL)
	assert.Equal(t, 3*time.Second, cfg.AlertSourceTimeout)
	assert.Equal(t, 72*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "/var/lib/risk/locations.json", cfg.LocationsFile)
	assert.True(t, cfg.SeedDemoLocations)
	assert.Equal(t, GeocoderMapbox, cfg.GeocoderProvider)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 2*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, 500, cfg.GeocoderCacheSize)
	assert.Equal(t, time.Hour, cfg.GeocoderCacheTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-risk", cfg.KafkaRiskTopic)
	assert.Equal(t, uint64(42), cfg.SimulatorSeed)
}

func TestLoad_LogSettingsConfigureSharedLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	assert.Same(t, logger, slog.Default())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	_, isText := logger.Handler().(*slog.TextHandler)
	assert.True(t, isText)
}

func TestLoad_ExplicitRefreshIntervalWins(t *testing.T) {
	t.Setenv("ALERT_SOURCE", SourceRemote)
	t.Setenv("ALERT_SOURCE_URL", "http://upstream:3001")
	t.Setenv("REFRESH_INTERVAL", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"REFRESH_INTERVAL", "ALERT_SOURCE_TIMEOUT", "GEOCODER_TIMEOUT", "GEOCODER_CACHE_TTL"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "-1s")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_UnknownAlertSource(t *testing.T) {
	t.Setenv("ALERT_SOURCE", "carrier-pigeon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_SOURCE")
}

func TestLoad_RemoteSourceWithoutURL(t *testing.T) {
	t.Setenv("ALERT_SOURCE", SourceRemote)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_SOURCE_URL")
}

func TestLoad_MapboxWithoutToken(t *testing.T) {
	t.Setenv("GEOCODER_PROVIDER", GeocoderMapbox)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_UnknownGeocoder(t *testing.T) {
	t.Setenv("GEOCODER_PROVIDER", "google")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODER_PROVIDER")
}

func TestLoad_InvalidSimulatorSeed(t *testing.T) {
	t.Setenv("SIMULATOR_SEED", "-3")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIMULATOR_SEED")
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	t.Setenv("GEOCODER_CACHE_SIZE", "lots")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.GeocoderCacheSize)
}
