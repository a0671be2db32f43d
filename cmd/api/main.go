// Package main is the entry point for the Wanderlust API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/auth"
	"github.com/pkordes/wanderlust/backend/internal/clients/geocode"
	"github.com/pkordes/wanderlust/backend/internal/clients/imagehost"
	"github.com/pkordes/wanderlust/backend/internal/clients/weather"
	"github.com/pkordes/wanderlust/backend/internal/config"
	"github.com/pkordes/wanderlust/backend/internal/handler"
	"github.com/pkordes/wanderlust/backend/internal/middleware"
	"github.com/pkordes/wanderlust/backend/internal/realtime"
	"github.com/pkordes/wanderlust/backend/internal/repo"
	"github.com/pkordes/wanderlust/backend/internal/service"
	"github.com/pkordes/wanderlust/backend/internal/validation"
	"github.com/pkordes/wanderlust/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Change bus -------------------------------------------------------
	// Redis lets several API instances share realtime updates; without it
	// changes stay in-process.
	var bus realtime.Bus
	if cfg.RedisAddr != "" {
		bus, err = realtime.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisChannel, logger)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("redis change bus connected", "channel", cfg.RedisChannel)
	} else {
		bus = realtime.NewLocalBus()
	}
	defer bus.Close()

	// --- Record store -----------------------------------------------------
	store, closeStore, err := openStore(ctx, cfg, bus, logger)
	if err != nil {
		slog.Error("failed to open record store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	hub := realtime.NewHub(store, logger)
	if err := hub.Start(ctx, bus); err != nil {
		slog.Error("failed to start realtime hub", "error", err)
		os.Exit(1)
	}

	// --- External services ------------------------------------------------
	geocoder := geocode.NewClient(geocode.Config{
		BaseURL:   cfg.NominatimURL,
		UserAgent: cfg.NominatimUserAgent,
		Timeout:   cfg.OutboundTimeout,
		CacheTTL:  cfg.GeocodeCacheTTL,
		CacheSize: cfg.GeocodeCacheSize,
	}, logger)
	forecaster := weather.NewClient(cfg.OpenMeteoURL, cfg.OutboundTimeout, logger)

	var images service.ImageHost
	if c := imagehost.NewClient(imagehost.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryFolder,
		Timeout:   cfg.OutboundTimeout,
	}, logger); c.Configured() {
		images = c
	} else {
		slog.Warn("image hosting not configured; photo uploads are disabled")
	}

	// --- Services ---------------------------------------------------------
	v := validation.New()
	policy := aggregate.DefaultPolicy
	trips := service.NewTripService(store, images, v, logger)
	services := handler.Services{
		Trips:      trips,
		Itinerary:  service.NewItineraryService(store, hub, v, policy),
		Expenses:   service.NewExpenseService(store, hub, v, policy),
		Packing:    service.NewPackingService(store, hub, v),
		Shares:     service.NewShareService(store, policy, logger),
		Weather:    service.NewWeatherService(store, geocoder, forecaster),
		Maps:       service.NewMapService(store, geocoder, policy, logger),
		Export:     service.NewExportService(store, trips, policy),
		Experience: service.NewExperienceService(store, images, v, logger),
	}
	streams, stopStreams := context.WithCancel(ctx)
	defer stopStreams()
	api := handler.NewServer(services, logger, handler.WithShutdown(streams))

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit → session.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(auth.Middleware(auth.NewVerifier(cfg.JWTSecret), api.WriteError))
	r.Mount("/", api.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Event streams extend their own write deadline per event, so the
	// WriteTimeout only bounds ordinary requests.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Shutdown does not wait on event streams once they are told to end.
	srv.RegisterOnShutdown(stopStreams)

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore builds the configured record store. Postgres migrations are
// applied with goose before the store is returned.
func openStore(ctx context.Context, cfg config.Config, bus realtime.Bus, logger *slog.Logger) (repo.RecordStore, func(), error) {
	opts := []repo.Option{repo.WithNotifier(bus), repo.WithLogger(logger)}

	if cfg.StoreDriver == config.StoreMemory {
		slog.Warn("using the in-memory record store; data is lost on restart")
		return repo.NewMemoryStore(opts...), func() {}, nil
	}

	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	slog.Info("database connection established")

	// goose drives database/sql, so borrow a *sql.DB view of the pool.
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("migrations applied", "count", len(results))

	return repo.NewPostgresStore(pool, opts...), pool.Close, nil
}
