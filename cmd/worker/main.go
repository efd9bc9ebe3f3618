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

	"github.com/hibiken/asynq"

	"github.com/southern-apparels/sa-erp/internal/app"
	"github.com/southern-apparels/sa-erp/internal/backend"
	"github.com/southern-apparels/sa-erp/internal/listcache"
	"github.com/southern-apparels/sa-erp/internal/observability"
	"github.com/southern-apparels/sa-erp/internal/platform/cache"
	"github.com/southern-apparels/sa-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.ServiceToken == "" {
		logger.Warn("BACKEND_SERVICE_TOKEN not set, refreshes will call the backend anonymously")
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	backendClient := backend.NewClient(cfg.BackendURL, backend.NewHTTPClient(backend.Options{Timeout: cfg.ProxyTimeout}), logger)
	lists := listcache.New(redisClient, cfg.ListCacheTTL)
	refreshJob := jobs.NewRefreshJob(backendClient, lists, cfg.ServiceToken, logger, metrics.Jobs())

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskListRefresh, Handler: refreshJob.Handle},
			{Type: jobs.TaskListWarm, Handler: refreshJob.HandleWarm},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmSchedule, Task: jobs.NewWarmTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
