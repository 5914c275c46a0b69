package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	blhttp "github.com/bookline/bookline/internal/adapter/http"
	blnats "github.com/bookline/bookline/internal/adapter/nats"
	blotel "github.com/bookline/bookline/internal/adapter/otel"
	"github.com/bookline/bookline/internal/adapter/postgres"
	"github.com/bookline/bookline/internal/adapter/ristretto"
	"github.com/bookline/bookline/internal/adapter/ws"
	"github.com/bookline/bookline/internal/config"
	"github.com/bookline/bookline/internal/logger"
	"github.com/bookline/bookline/internal/middleware"
	"github.com/bookline/bookline/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"telemetry", cfg.Telemetry.Enabled,
	)

	ctx := context.Background()

	// --- Telemetry ---

	shutdownTelemetry, err := blotel.Init(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown", "error", err)
		}
	}()

	metrics, err := blotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := blnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() {
		if err := queue.Drain(); err != nil {
			slog.Error("nats drain", "error", err)
		}
	}()

	slotCache, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer slotCache.Close()

	// --- Services ---

	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	availSvc := service.NewAvailabilityService(store, slotCache, metrics, cfg.Scheduling, cfg.Cache.SlotTTL)
	handlers := &blhttp.Handlers{
		Tenants:      service.NewTenantService(store, cfg.Scheduling.DefaultGranularityMin),
		Resources:    service.NewResourceService(store, hub),
		Catalog:      service.NewCatalogService(store),
		Availability: availSvc,
		Bookings:     service.NewBookingService(store, queue, hub, metrics, availSvc),
		DB:           pool,
		Queue:        queue,
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(
		cfg.Rate.RequestsPerSecond,
		cfg.Rate.Burst,
		cfg.Rate.CleanupInterval,
		cfg.Rate.MaxIdleTime,
	)

	r := chi.NewRouter()

	r.Use(blhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(blhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(blhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(limiter.Handler)
	r.Use(middleware.TenantID)
	if cfg.Telemetry.Enabled {
		r.Use(blotel.HTTPMiddleware(cfg.Logging.Service))
	}

	r.Get("/ws", hub.HandleWS)

	blhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
