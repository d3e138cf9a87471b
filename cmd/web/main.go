package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"devfolio/internal/config"
	"devfolio/internal/database"
	"devfolio/internal/exports"
	"devfolio/internal/logging"
	"devfolio/internal/metrics"
	"devfolio/internal/pdf"
	"devfolio/internal/preview"
	"devfolio/internal/session"
	"devfolio/internal/storage"
	"devfolio/internal/telemetry"
	"devfolio/internal/web"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.New(cfg.Log, cfg.App)
	slog.SetDefault(logger)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, cfg.Telemetry, cfg.App)
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown telemetry failed", slog.Any("error", err))
		}
	}()
	metrics.Register()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	var sessions session.Storage
	var rdb redis.UniversalClient
	switch cfg.Session.Driver {
	case "memory":
		sessions = session.NewMemoryStorage(cfg.Session.TTL, 10*time.Minute)
		logger.Warn("using in-memory session storage; sessions are lost on restart")
	default:
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("ping redis: %v", err)
		}
		sessions = session.NewRedisStorage(redisClient)
		rdb = redisClient
	}

	api, registry := web.NewBackend(cfg, sessions, logger)
	renderer := preview.NewRenderer()
	pdfService := pdf.NewService(renderer, pdf.NewRodExporter(cfg.Export, logger))

	opts := web.Options{
		Config:   cfg,
		Logger:   logger,
		API:      api,
		Sessions: sessions,
		Registry: registry,
		Preview:  renderer,
		PDF:      pdfService,
		Redis:    rdb,
	}

	if cfg.Export.AsyncEnabled {
		if rdb == nil {
			log.Fatalf("async export requires the redis session driver")
		}
		db, err := database.InitDatabase(cfg.Database)
		if err != nil {
			log.Fatalf("init database: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
		storageClient, err := storage.NewClient(ctx, cfg.MinIO)
		if err != nil {
			log.Fatalf("init storage client: %v", err)
		}
		queue := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := queue.Close(); err != nil {
				logger.Error("close asynq client failed", slog.Any("error", err))
			}
		}()
		opts.Exports = exports.NewService(db, queue, storageClient, cfg.Export.LinkTTL, cfg.Export.MaxRetry, logger)
		logger.Info("async export enabled", slog.String("bucket", cfg.MinIO.Bucket))
	}

	router, err := web.NewRouter(opts)
	if err != nil {
		log.Fatalf("build router: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("web listening", slog.String("addr", srv.Addr), slog.String("backend", api.BaseURL()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
