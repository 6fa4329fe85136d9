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

	"cargo-console/internal/middleware"
	"cargo-console/internal/realtime"
	"cargo-console/internal/room"
	"cargo-console/internal/server"
	serverHandlers "cargo-console/internal/server/handlers"
	"cargo-console/internal/shared/config"
	"cargo-console/internal/shared/database"
	"cargo-console/internal/shared/logger"
	"cargo-console/internal/shared/redis"
	"cargo-console/internal/shipbay"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	logger.Init()

	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store    shipbay.Store
		dbPinger serverHandlers.Pinger
	)
	if cfg.Database.Enabled {
		db, err := database.Connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			return err
		}

		repo := shipbay.NewRepository(db, slog.Default())
		store = repo
		dbPinger = repo
	} else {
		log.Warn("Database disabled, arena records are kept in memory")
		store = shipbay.NewMemoryStore()
	}

	rdb, err := redis.Connect()
	if err != nil {
		return err
	}
	defer rdb.Close()

	hub := realtime.NewHub(realtime.OptionsFromConfig(cfg))
	defer hub.Shutdown()

	var broker realtime.Broker
	if rdb != nil {
		broker = realtime.NewRedisBroker(rdb.Client, hub, cfg.Realtime.ChannelPrefix)
	} else {
		broker = realtime.NewMemoryBroker(hub)
	}

	brokerDone := make(chan error, 1)
	go func() { brokerDone <- broker.Run(ctx) }()

	shipBayService := shipbay.NewService(store, broker, slog.Default())
	roomService := room.NewService(broker, slog.Default())

	routes := server.NewRoutes(dbPinger, shipBayService, roomService, hub, broker, cfg.Frontend.URL, slog.Default())
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit)
	cors := middleware.NewCORS()
	handler := cors.Middleware(rateLimiter.Middleware(mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Cargo console server starting",
			"port", cfg.Server.Port,
			"environment", cfg.Server.Environment,
			"broker", broker.Name(),
			"database_enabled", cfg.Database.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case err := <-brokerDone:
		if err != nil {
			return fmt.Errorf("realtime broker failed: %w", err)
		}
		log.Warn("Realtime broker stopped, shutting down")
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
