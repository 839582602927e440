package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/consult-portal/internal/api"
	"github.com/terra-clan/consult-portal/internal/catalog"
	"github.com/terra-clan/consult-portal/internal/cleanup"
	"github.com/terra-clan/consult-portal/internal/config"
	"github.com/terra-clan/consult-portal/internal/events"
	"github.com/terra-clan/consult-portal/internal/health"
	"github.com/terra-clan/consult-portal/internal/intake"
	"github.com/terra-clan/consult-portal/internal/metrics"
	"github.com/terra-clan/consult-portal/internal/session"
	"github.com/terra-clan/consult-portal/internal/storage"
	"github.com/terra-clan/consult-portal/internal/upload"
	"github.com/terra-clan/consult-portal/pkg/client"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting consult-portal",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"backend", cfg.Backend.BaseURL,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:      cfg.Database.DSN,
		MaxConns: int32(cfg.Database.MaxConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.RunMigrations(initCtx, repo.Pool(), cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(initCtx).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	options := catalog.NewLoader()
	if err := options.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Warn("failed to load option catalog overrides", "dir", cfg.Catalog.Dir, "error", err)
	}

	validator, err := intake.NewValidator()
	if err != nil {
		slog.Error("failed to compile intake schema", "error", err)
		os.Exit(1)
	}

	backend := client.NewClient(cfg.Backend.BaseURL, "",
		client.WithTimeout(cfg.Backend.Timeout),
		client.WithObserver(metrics.ObserveBackend),
	)

	registry := health.NewRegistry(3 * time.Second)
	registry.Register("redis", health.NewRedisChecker(rdb))
	registry.Register("backend", health.NewBackendChecker(backend))
	pgChecker, err := health.NewPostgresChecker(cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to create postgres checker", "error", err)
		os.Exit(1)
	}
	defer pgChecker.Close()
	registry.Register("postgres", pgChecker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleaner := cleanup.NewCleaner(repo, cfg.Drafts.TTL, cfg.Drafts.CleanupInterval)
	cleaner.Start(ctx)

	server := api.NewServer(cfg.Server, api.Deps{
		Backend:   backend,
		Sessions:  session.NewStore(rdb, cfg.Session.TTL),
		Drafts:    repo,
		Events:    events.NewBus(rdb),
		Catalog:   options,
		Validator: validator,
		Health:    registry,
		UploadLimits: upload.Limits{
			MaxFileBytes: cfg.Uploads.MaxFileBytes,
			MaxPerStage:  cfg.Uploads.MaxPerStage,
			AllowedTypes: cfg.Uploads.AllowedTypes,
		},
		UploadConcurrency: cfg.Uploads.Concurrency,
	})
	httpServer := &http.Server{
		Addr:        cfg.Server.Address(),
		Handler:     server.Router(),
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("consult-portal stopped")
}
