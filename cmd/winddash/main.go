package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"winddash/internal/cache"
	"winddash/internal/config"
	"winddash/internal/dashboard"
	"winddash/internal/fetchers"
	"winddash/internal/grid"
	"winddash/internal/logger"
	"winddash/internal/mocks"
	"winddash/internal/server"
	"winddash/internal/storage"
)

func main() {
	envFile := flag.String("env", "", "Optional .env file to load before the environment")
	flag.Parse()

	ctx := context.Background()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(ctx, envFiles...)
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	log := logger.Component("main")

	log.Info("Starting wind dashboard", logger.Fields{
		"port":          cfg.Port,
		"mock":          cfg.UseMockData,
		"cache_backend": cfg.CacheBackend,
		"timezone":      cfg.Timezone,
	})

	var (
		store  *cache.Store
		client storage.StorageClient
		source fetchers.DataSource
	)
	if cfg.UseMockData {
		mock, err := mocks.NewMockService(cfg.Location(), nil)
		if err != nil {
			log.Fatal("Failed to load mock data", err)
		}
		source = mock
		if cfg.ForecastAPIKey == "" {
			cfg.ForecastAPIKey = "mock"
		}
		if cfg.ObservationAPIKey == "" {
			cfg.ObservationAPIKey = "mock"
		}
	} else {
		client, err = storage.NewStorageClient(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize cache storage", err)
		}
		store = cache.New(client, cache.WithMaxAge(cfg.CacheMaxAge))
		if cfg.CacheMaxAge > 0 {
			if _, err := store.Prune(ctx); err != nil {
				log.Warn("Failed to prune cache", logger.Fields{"error": err.Error()})
			}
		}

		source = fetchers.NewDMIClient(store, fetchers.ClientConfig{
			ForecastBaseURL:    cfg.ForecastBaseURL,
			ObservationBaseURL: cfg.ObservationBaseURL,
			Timeout:            cfg.HTTPTimeout,
			Location:           cfg.Location(),
			RateLimitRPS:       cfg.RateLimitRPS,
			BreakerMaxFailures: cfg.BreakerMaxFailures,
		})
	}

	svc := dashboard.NewService(source, dashboard.Options{
		ForecastAPIKey:    cfg.ForecastAPIKey,
		ObservationAPIKey: cfg.ObservationAPIKey,
		ForecastHours:     cfg.ForecastHours,
		Location:          cfg.Location(),
	})

	gridClient := resty.New()
	if cfg.HTTPTimeout > 0 {
		gridClient.SetTimeout(cfg.HTTPTimeout)
	}
	srv := server.NewServer(cfg, svc, grid.NewLoader(cfg.GridURL, gridClient), store)

	go func() {
		if err := srv.Listen(":" + cfg.Port); err != nil {
			log.Fatal("HTTP server error", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Error("Server shutdown error", err)
	}
	if client != nil {
		if err := client.Close(); err != nil {
			log.Error("Failed to close cache storage", err)
		}
	}

	log.Info("Server stopped")
}
