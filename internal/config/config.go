package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Alert source kinds.
const (
	SourceSimulated = "simulated"
	SourceRemote    = "remote"
)

// Geocoder providers.
const (
	GeocoderNone      = "none"
	GeocoderNominatim = "nominatim"
	GeocoderMapbox    = "mapbox"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Alert source configuration.
	AlertSource        string
	AlertSourceURL     string
	AlertSourceTimeout time.Duration
	RefreshInterval    time.Duration
	SimulatorSeed      uint64

	// Location registry configuration.
	LocationsFile     string
	SeedDemoLocations bool

	// Geocoding configuration.
	GeocoderProvider  string
	MapboxToken       string
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int
	GeocoderCacheTTL  time.Duration
	RedisURL          string

	// Risk change notifications.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaRiskTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	source := sharedcfg.EnvOrDefault("ALERT_SOURCE", SourceSimulated)
	defaultInterval := "60s"
	if source == SourceRemote {
		defaultInterval = "72s"
	}
	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", defaultInterval)
	if err != nil {
		return nil, err
	}
	sourceTimeout, err := parsePositiveDuration("ALERT_SOURCE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parsePositiveDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("GEOCODER_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("SIMULATOR_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid SIMULATOR_SEED")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		AlertSource:        source,
		AlertSourceURL:     os.Getenv("ALERT_SOURCE_URL"),
		AlertSourceTimeout: sourceTimeout,
		RefreshInterval:    refreshInterval,
		SimulatorSeed:      seed,

		LocationsFile:     os.Getenv("LOCATIONS_FILE"),
		SeedDemoLocations: sharedcfg.EnvOrDefault("SEED_DEMO_LOCATIONS", "false") == "true",

		GeocoderProvider:  sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", GeocoderNominatim),
		MapboxToken:       os.Getenv("MAPBOX_TOKEN"),
		GeocoderTimeout:   geocoderTimeout,
		GeocoderCacheSize: parseCacheSize(),
		GeocoderCacheTTL:  cacheTTL,
		RedisURL:          os.Getenv("REDIS_URL"),

		KafkaEnabled:   sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRiskTopic: sharedcfg.EnvOrDefault("KAFKA_RISK_TOPIC", "location-risk-changes"),
	}

	switch cfg.AlertSource {
	case SourceSimulated:
	case SourceRemote:
		if cfg.AlertSourceURL == "" {
			return nil, errors.New("ALERT_SOURCE_URL is required when ALERT_SOURCE is remote")
		}
	default:
		return nil, fmt.Errorf("invalid ALERT_SOURCE %q", cfg.AlertSource)
	}

	switch cfg.GeocoderProvider {
	case GeocoderNone, GeocoderNominatim:
	case GeocoderMapbox:
		if cfg.MapboxToken == "" {
			return nil, errors.New("GEOCODER_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER_PROVIDER %q", cfg.GeocoderProvider)
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaRiskTopic == "" {
			return nil, errors.New("KAFKA_RISK_TOPIC is required")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
