package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"catalog-engine-go/internal/api"
	"catalog-engine-go/internal/config"
	"catalog-engine-go/internal/datastore/postgres"
	"catalog-engine-go/internal/datastore/redis"
	"catalog-engine-go/internal/jobs"
	"catalog-engine-go/internal/logging"
	"catalog-engine-go/internal/redisclient"
	"catalog-engine-go/internal/storefront"
)

func main() {
	// Root context is cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := logging.New(cfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Starting catalog API",
		zap.String("version", cfg.AppVersion),
		zap.String("environment", cfg.Environment),
	)

	// Connect to Postgres
	pgClient, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pgClient.Close()
	logger.Info("Connected to Postgres")

	// Create Redis client
	redisClient, err := redisclient.NewClient(cfg)
	if err != nil {
		logger.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}()

	// Redis only caches; start without it and let readiness report it
	if err := redisClient.Ping(ctx); err != nil {
		logger.Warn("Redis unavailable at startup", zap.Error(err))
	} else {
		logger.Info("Connected to Redis")
	}

	// Create components
	store := postgres.NewRepository(pgClient)
	cache := redis.NewRepository(redisClient.GetRedis(), cfg.CategoryCacheTTL)
	sf := storefront.NewStorefront(store, cache, cfg, logger)

	router := api.NewRouter(sf, redisClient, store, logger)

	scheduler := jobs.NewScheduler(logger)
	if cfg.CacheWarmEnabled() {
		if err := scheduler.AddCategoryWarmer(ctx, cfg.CacheWarmSchedule, cfg.HTTPWriteTimeout, sf); err != nil {
			logger.Fatal("Failed to schedule category cache warmer", zap.Error(err))
		}
	}

	httpServer := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		runHealthChecks(gctx, redisClient, store, logger)
		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		logger.Info("Shutdown signal received, initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		scheduler.Stop(shutdownCtx)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		logger.Info("HTTP server shut down gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Catalog API stopped with error", zap.Error(err))
		return
	}
	logger.Info("Catalog API shutdown complete")
}

type pinger interface {
	Ping(ctx context.Context) error
}

func runHealthChecks(ctx context.Context, redis, postgres pinger, logger *zap.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := redis.Ping(ctx); err != nil {
				logger.Warn("Redis health check failed", zap.Error(err))
			}
			if err := postgres.Ping(ctx); err != nil {
				logger.Warn("Postgres health check failed", zap.Error(err))
			}
		}
	}
}
