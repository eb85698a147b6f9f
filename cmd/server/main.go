package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/GavinBoller/WatchlistVercel-sub001/internal/config"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/database"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/logger"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/server"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/session"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/storage"
)

func main() {
	log := logger.New()
	logger.SetDefault(log)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting watchlist server",
		"port", cfg.Port,
		"redis_addr", cfg.RedisAddr,
	)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to database")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		cancelMigrate()
		slog.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}
	cancelMigrate()

	sessionStore := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	slog.Info("Connected to Redis")

	var storageSvc storage.Service
	if cfg.StorageConfigured() {
		initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
		storageSvc, err = storage.New(initCtx, storage.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		cancelInit()
		if err != nil {
			slog.Warn("Failed to initialize poster storage, continuing without it", "error", err)
			storageSvc = nil
		} else {
			slog.Info("Poster storage initialized", "bucket", cfg.S3Bucket)
		}
	} else {
		slog.Info("Poster storage not configured")
	}

	app := server.New(cfg, db, sessionStore, storageSvc)
	srv := app.HTTPServer()

	go func() {
		slog.Info("Watchlist server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down watchlist server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}

	slog.Info("Watchlist server stopped")
}
