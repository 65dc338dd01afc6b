package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/du-phan/resilio/internal/calibration"
	"github.com/du-phan/resilio/internal/config"
	"github.com/du-phan/resilio/internal/consumer"
	"github.com/du-phan/resilio/internal/paths"
	"github.com/du-phan/resilio/internal/pipeline"
	xredis "github.com/du-phan/resilio/internal/redis"
	"github.com/du-phan/resilio/internal/server"
	"github.com/du-phan/resilio/internal/storage"
	"github.com/du-phan/resilio/internal/xslog"
)

const (
	keyPort    = "port"
	keyBackend = "backend"
	keyBrokers = "brokers"

	shutdownTimeout = 30 * time.Second
)

func main() {
	_ = godotenv.Load()

	logger := xslog.NewLoggerFromEnv(os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", xslog.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Read()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if cfg.Env.IsDevelopment() && os.Getenv(xslog.EnvKey) == "" {
		logger = xslog.NewLogger(os.Stdout, xslog.LevelDebug)
		slog.SetDefault(logger)
	}
	ctx = xslog.WithLogger(ctx, logger)

	params, err := loadCalibration(cfg)
	if err != nil {
		return fmt.Errorf("failed to load calibration: %w", err)
	}
	logger.InfoContext(ctx, "calibration loaded", xslog.CalibrationVersion(params.Version))

	store, err := initStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close store", xslog.Error(err))
		}
	}()

	opts := []pipeline.Option{pipeline.WithParallelism(cfg.Schedule.Parallelism)}
	var limiter storage.RateLimiter = storage.NewMemoryRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Burst)
	if cfg.Redis.URL != "" {
		client, err := xredis.New(ctx, xredis.Config{URL: cfg.Redis.URL})
		if err != nil {
			return fmt.Errorf("failed to initialize redis client: %w", err)
		}
		defer func() { _ = client.Close() }()
		opts = append(opts, redisOptions(client, cfg)...)
		limiter = storage.NewRedisRateLimiter(client, int(cfg.RateLimit.Limit))
		logger.InfoContext(ctx, "using redis for locks, change notifications and rate limits")
	}

	svc := pipeline.NewService(params, store, opts...)

	scheduler, err := pipeline.NewScheduler(svc, cfg.Schedule.RollForward, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var consumers sync.WaitGroup
	if cfg.Kafka.Enabled() {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topic:   cfg.Kafka.Topic,
		})
		defer func() {
			if err := reader.Close(); err != nil {
				logger.ErrorContext(ctx, "failed to close kafka reader", xslog.Error(err))
			}
		}()

		processor := consumer.NewProcessor(reader, consumer.NewIngestHandler(svc), consumer.WithLogger(logger))
		logger.InfoContext(ctx, "starting activity consumer",
			xslog.Topic(cfg.Kafka.Topic),
			slog.Any(keyBrokers, cfg.Kafka.Brokers))
		consumers.Go(func() {
			if err := processor.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorContext(ctx, "activity consumer stopped", xslog.Error(err))
			}
		})
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(svc, server.Options{Logger: logger, Limiter: limiter}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting server",
			xslog.Version(),
			slog.String(keyPort, cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-runCtx.Done():
		logger.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown")
	case err := <-serveErr:
		cancel()
		consumers.Wait()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, stop := context.WithTimeout(ctx, shutdownTimeout)
	defer stop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	consumers.Wait()

	logger.InfoContext(ctx, "server stopped")
	return nil
}

func loadCalibration(cfg config.Config) (calibration.Params, error) {
	path := cfg.CalibrationFile
	if path == "" {
		var err error
		if path, err = paths.CalibrationFile(); err != nil {
			return calibration.Params{}, err
		}
	}
	return calibration.LoadFile(path)
}

func initStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage.Store, error) {
	if cfg.Database.URL != "" {
		logger.InfoContext(ctx, "initializing storage", slog.String(keyBackend, "postgres"))
		store, _, err := storage.OpenPostgres(ctx, cfg.Database.URL)
		return store, err
	}

	path := cfg.Database.Path
	if path == "" {
		if _, err := paths.EnsureDir(); err != nil {
			return nil, err
		}
		var err error
		if path, err = paths.DB(); err != nil {
			return nil, err
		}
	}
	logger.InfoContext(ctx, "initializing storage", slog.String(keyBackend, "sqlite"), slog.String("path", path))
	return storage.OpenSQLite(ctx, path)
}

func redisOptions(client *redis.Client, cfg config.Config) []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithLocker(storage.NewRedisLocker(client, cfg.Redis.LockTTL)),
		pipeline.WithNotifier(storage.NewRedisNotifier(client)),
	}
}
