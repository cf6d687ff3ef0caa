package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/location-risk-service/internal/adapter/alertapi"
	"github.com/couchcryptid/location-risk-service/internal/adapter/filestore"
	"github.com/couchcryptid/location-risk-service/internal/adapter/geocache"
	httpadapter "github.com/couchcryptid/location-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/location-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/location-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/location-risk-service/internal/adapter/nominatim"
	"github.com/couchcryptid/location-risk-service/internal/adapter/simulator"
	"github.com/couchcryptid/location-risk-service/internal/alertstore"
	"github.com/couchcryptid/location-risk-service/internal/config"
	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/couchcryptid/location-risk-service/internal/observability"
	"github.com/couchcryptid/location-risk-service/internal/pipeline"
	"github.com/couchcryptid/location-risk-service/internal/registry"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Alert source.
	var source alertstore.Source
	switch cfg.AlertSource {
	case config.SourceRemote:
		source = alertapi.NewClient(cfg.AlertSourceURL, cfg.AlertSourceTimeout, logger)
		logger.Info("using remote alert source", "url", cfg.AlertSourceURL)
	default:
		source = simulator.New(cfg.SimulatorSeed, clock, logger)
		logger.Info("using simulated alert source", "seed", cfg.SimulatorSeed)
	}
	store := alertstore.New(source, clock, logger, metrics)

	// Location registry.
	var persister registry.Persister = registry.NopPersister{}
	if cfg.LocationsFile != "" {
		persister = filestore.New(cfg.LocationsFile)
		logger.Info("persisting locations", "path", cfg.LocationsFile)
	}
	reg := registry.New(persister, logger)
	if err := reg.Load(ctx); err != nil {
		return err
	}
	if cfg.SeedDemoLocations {
		seeded, err := reg.SeedDemo(ctx, clock.Now().UTC())
		if err != nil {
			return err
		}
		if seeded {
			logger.Info("seeded demo locations", "location_count", reg.Len())
		}
	}

	// Geocoding.
	geocoder, redisStore, err := newGeocoder(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	checks := httpadapter.ReadinessChecks{}
	if redisStore != nil {
		defer func() {
			if err := redisStore.Close(); err != nil {
				logger.Error("redis close error", "error", err)
			}
		}()
		checks = append(checks, redisStore)
	}

	// Risk change notifications.
	var notifier pipeline.ChangeNotifier
	if cfg.KafkaEnabled {
		kn := kafkaadapter.NewNotifier(cfg, logger)
		defer func() {
			if err := kn.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		notifier = kn
		logger.Info("publishing risk changes", "topic", cfg.KafkaRiskTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(store, reg, notifier, clock, logger, metrics, cfg.RefreshInterval)
	locations := pipeline.NewLocations(reg, geocoder, p, logger)
	checks = append(checks, p)
	srv := httpadapter.NewServer(cfg.HTTPAddr, checks, p, locations, clock, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// newGeocoder builds the configured provider behind the cache. The Redis
// store is non-nil when REDIS_URL is set; the caller closes it.
func newGeocoder(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (domain.Geocoder, *geocache.RedisStore, error) {
	var provider domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.GeocoderNone:
		logger.Info("geocoding disabled, locations need coordinates")
		return nil, nil, nil
	case config.GeocoderMapbox:
		provider = mapbox.NewClient(cfg.MapboxToken, cfg.GeocoderTimeout, logger, metrics)
	default:
		provider = nominatim.NewClient(cfg.GeocoderTimeout, logger, metrics)
	}

	var (
		shared geocache.SharedCache
		rs     *geocache.RedisStore
	)
	if cfg.RedisURL != "" {
		var err error
		rs, err = geocache.Dial(ctx, cfg.RedisURL, cfg.GeocoderCacheTTL)
		if err != nil {
			return nil, nil, err
		}
		shared = rs
	}

	logger.Info("geocoding enabled",
		"provider", cfg.GeocoderProvider,
		"cache_size", cfg.GeocoderCacheSize,
		"shared_cache", shared != nil,
	)
	return geocache.NewCachedGeocoder(provider, cfg.GeocoderCacheSize, shared, metrics, logger), rs, nil
}
