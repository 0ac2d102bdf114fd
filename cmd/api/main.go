package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jack23912/webscrapbook/internal/adapter/chromedp_loader"
	"github.com/jack23912/webscrapbook/internal/adapter/filestore"
	"github.com/jack23912/webscrapbook/internal/adapter/httpfetch"
	"github.com/jack23912/webscrapbook/internal/adapter/postgres"
	redis_adapter "github.com/jack23912/webscrapbook/internal/adapter/redis"
	"github.com/jack23912/webscrapbook/internal/capture"
	"github.com/jack23912/webscrapbook/internal/delivery/http/handler"
	"github.com/jack23912/webscrapbook/internal/delivery/http/router"
	"github.com/jack23912/webscrapbook/internal/repository"
	"github.com/jack23912/webscrapbook/internal/usecase"
	"github.com/jack23912/webscrapbook/pkg/config"
	"github.com/jack23912/webscrapbook/pkg/logger"
	"github.com/jack23912/webscrapbook/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		panic("could not load config: " + err.Error())
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic("could not build logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	// --- Metrics ---
	m := metrics.New(prometheus.DefaultRegisterer)

	// --- Database Connections ---
	ctx := context.Background()

	dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("Unable to connect to database", zap.Error(err))
	}
	defer dbpool.Close()
	if err := postgres.EnsureSchema(ctx, dbpool); err != nil {
		log.Fatal("Unable to create schema", zap.Error(err))
	}
	log.Info("PostgreSQL connection pool established")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Unable to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connection established")

	// --- Repositories ---
	queueRepo := redis_adapter.NewQueueRepo(rdb)
	registry := redis_adapter.NewRegistry(rdb, redis_adapter.WithTTL(cfg.ResourceCacheTTL()))
	cache := redis_adapter.NewCache(rdb, cfg.ResourceCacheTTL())
	recordRepo := postgres.NewCaptureRecordRepo(dbpool)
	failureRepo := postgres.NewFailedResourceRepo(dbpool)
	store := filestore.NewOS(cfg.StoreDir)

	// --- Loading and fetching ---
	agents := httpfetch.NewAgents(cfg.ProxyList(), nil)
	client := agents.NewClient(cfg.FetchTimeoutDuration())
	fetcher := httpfetch.NewFetcher(registry, store, log,
		httpfetch.WithClient(client),
		httpfetch.WithCache(cache),
		httpfetch.WithAgents(agents),
	)

	var loader repository.DocumentLoader
	switch cfg.Loader {
	case config.LoaderHTTP:
		loader = httpfetch.NewLoader(client, agents, log)
	default:
		browser := chromedp_loader.NewChromedpLoader(cfg.CaptureWorkers, cfg.PageLoadTimeoutDuration(), cfg.MaxFrameDepth, log,
			chromedp_loader.WithUserAgents(agents.UserAgent))
		defer browser.Close()
		loader = browser
	}
	log.Info("Document loader selected", zap.String("loader", cfg.Loader))

	// --- Use Cases ---
	captureService := usecase.NewCaptureService(usecase.Dependencies{
		Loader:   loader,
		Registry: registry,
		Fetcher:  fetcher,
		Sink:     store,
		Queue:    queueRepo,
		Records:  recordRepo,
		Failures: failureRepo,
	}, capture.Config{
		MaxFrameDepth:    cfg.MaxFrameDepth,
		FetchConcurrency: int64(cfg.FetchConcurrency),
	}, m, log)
	sessions := usecase.NewSessionManager(queueRepo, recordRepo, failureRepo, m, log)

	workers := usecase.NewWorkerPool(captureService, cfg.CaptureWorkers, time.Second, 2*cfg.PageLoadTimeoutDuration(), log)
	workers.Start()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(sessions, captureService, store.HTTPFileSystem(), cfg.CaptureOptions(),
		map[string]handler.HealthCheck{
			"postgres": dbpool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, log)
	httpRouter := router.New(apiHandler, m, prometheus.DefaultGatherer, log, 2*cfg.PageLoadTimeoutDuration())

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2*cfg.PageLoadTimeoutDuration() + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		}
	}()
	log.Info("Server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	workers.Stop()

	log.Info("Server exiting")
}
