// cmd/aggregator/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dining-aggregator/internal/catalog"
	"dining-aggregator/internal/common/aws"
	"dining-aggregator/internal/common/config"
	"dining-aggregator/internal/common/database"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/common/observability"
	"dining-aggregator/internal/nutrition"
	"dining-aggregator/internal/scheduler"
	"dining-aggregator/internal/search"
	"dining-aggregator/internal/server"
	"dining-aggregator/internal/sources"
	"dining-aggregator/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting dining aggregator...",
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("dining-aggregator")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Venue Catalog ---
	cat, err := catalog.Default()
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}
	zapLog.Info("Venue catalog loaded", zap.Int("venues", len(cat.Venues())))

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	ratings := store.NewRatingStore(pg, log)
	if err := ratings.Migrate(ctx); err != nil {
		zapLog.Fatal("ratings migration failed", zap.Error(err))
	}

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	menuCache := store.NewMenuCache(rdb, log)

	// --- Init Elasticsearch with retry (optional) ---
	var index *search.Index
	var searcher server.Searcher
	var indexer scheduler.Indexer
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		index = search.NewIndex(esClient, cfg.Database.Elasticsearch.ItemsIndex, log)
		searcher = index
		indexer = index
	} else {
		zapLog.Warn("Elasticsearch not configured, item search disabled")
	}

	// --- Init SES alerter (optional) ---
	var alerter scheduler.Alerter
	if cfg.Alerts.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Alerts.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		alerter = sesClient
		zapLog.Info("SES alerter initialized", zap.String("region", cfg.Alerts.Region))
	}

	// --- Scheduler ---
	registry := sources.NewRegistry(cfg, log)
	enricher := nutrition.NewEnricher(cfg.Nutrition, log)

	runner := scheduler.NewRunner(
		cat, registry, enricher, menuCache, indexer, alerter,
		obs, cfg.Scheduler, cfg.Alerts, log,
	)

	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	go runner.Start(schedCtx)
	zapLog.Info("Refresh scheduler started",
		zap.Int("intervalMinutes", cfg.Scheduler.Interval),
		zap.Bool("runOnStart", cfg.Scheduler.RunOnStart),
	)

	// --- API Server ---
	api := server.New(menuCache, runner, searcher, ratings, server.NewDefaultLocation(cat), log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zapLog.Info("API server listening", zap.String("addr", cfg.Server.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down API server", zap.Error(err))
	}

	zapLog.Info("Dining aggregator stopped gracefully")
}
