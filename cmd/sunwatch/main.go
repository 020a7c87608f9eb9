package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/sunwatch/internal/api/http"
	"github.com/i474232898/sunwatch/internal/app"
	"github.com/i474232898/sunwatch/internal/config"
	"github.com/i474232898/sunwatch/internal/exposure"
	"github.com/i474232898/sunwatch/internal/location"
	"github.com/i474232898/sunwatch/internal/metrics"
	"github.com/i474232898/sunwatch/internal/scheduler"
	"github.com/i474232898/sunwatch/internal/store"
	"github.com/i474232898/sunwatch/internal/weather"
	"github.com/i474232898/sunwatch/internal/weather/providers"
)

const serviceName = "sunwatch"

// sampleStore is both the exposure sink and the read side behind the API.
type sampleStore interface {
	exposure.Sink
	httpapi.SampleLister
}

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	log = log.Level(level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Location: continuous source wrapped into single-shot requests.
	var source location.Source
	switch cfg.LocationSource {
	case "ip":
		source = location.NewIPSource(httpClient, cfg.IPLocationURL, cfg.LocationInterval)
	default:
		source = location.NewStaticSource(cfg.Latitude, cfg.Longitude, cfg.LocationInterval)
	}
	var geo location.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geo = location.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	} else {
		log.Info().Msg("GEOCODER_API_KEY not set; place names disabled")
	}
	locator := location.NewProvider(location.ProviderConfig{
		Source:   source,
		Geocoder: geo,
		Logger:   log,
		Metrics:  m,
	})

	// Weather: configured providers behind one aggregating provider.
	var provs []weather.Provider
	for _, name := range cfg.WeatherProviders {
		switch name {
		case config.ProviderOpenMeteo:
			provs = append(provs, providers.NewOpenMeteoProvider(httpClient, ""))
		case config.ProviderOpenWeather:
			provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, ""))
		case config.ProviderWeatherAPI:
			provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, ""))
		}
	}
	fetcher := weather.NewFetcher(weather.FetcherConfig{
		Provider:       weather.NewMultiProvider(log, provs...),
		PlaceholderUV:  cfg.PlaceholderUV,
		Timeout:        cfg.FetchTimeout,
		StrictOrdering: cfg.StrictFetchOrdering,
		Logger:         log,
		Metrics:        m,
	})

	samples, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.HealthStore).Msg("failed to open health store")
	}
	defer closeStore()

	recorder := exposure.NewRecorder(exposure.RecorderConfig{
		Sink:    samples,
		Logger:  log,
		Metrics: m,
	})

	session := app.NewSession(app.SessionConfig{
		Locator:         locator,
		Weather:         fetcher,
		Recorder:        recorder,
		LocationTimeout: cfg.LocationTimeout,
		Logger:          log,
		Metrics:         m,
	})

	// Initial activation, then periodic refresh.
	session.ActivateAsync()

	sched := scheduler.New(session, cfg.RefreshInterval, cfg.LocationTimeout, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	web := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	web.Use(logger.New())
	web.Use(recover.New())

	web.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})
	web.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpapi.RegisterRoutes(web, httpapi.Deps{
		Display: session,
		Weather: fetcher,
		Samples: samples,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := web.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := web.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}

	// In-flight work finishes before the store is closed.
	session.Wait()
	fetcher.Wait()
	locator.Wait()
	recorder.Wait()
}

func openStore(cfg *config.AppConfig) (sampleStore, func(), error) {
	switch cfg.HealthStore {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		return pg, pg.Close, nil
	default:
		return store.NewMemoryStore(cfg.StoreMaxSamples, cfg.StoreMaxAge), func() {}, nil
	}
}
