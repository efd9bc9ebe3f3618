package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/southern-apparels/sa-erp/internal/app"
	"github.com/southern-apparels/sa-erp/internal/audit"
	audithttp "github.com/southern-apparels/sa-erp/internal/audit/http"
	"github.com/southern-apparels/sa-erp/internal/auth"
	"github.com/southern-apparels/sa-erp/internal/backend"
	"github.com/southern-apparels/sa-erp/internal/listcache"
	"github.com/southern-apparels/sa-erp/internal/navigation"
	"github.com/southern-apparels/sa-erp/internal/observability"
	"github.com/southern-apparels/sa-erp/internal/platform/cache"
	"github.com/southern-apparels/sa-erp/internal/platform/db"
	"github.com/southern-apparels/sa-erp/internal/proxy"
	"github.com/southern-apparels/sa-erp/internal/samples"
	"github.com/southern-apparels/sa-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	var (
		recorder    audit.Recorder = audit.Nop{}
		auditReader audit.Repository
		pool        *pgxpool.Pool
	)
	if cfg.PGDSN != "" {
		pool, err = db.New(ctx, cfg.PGDSN, db.Options{ApplicationName: "sa-erp-gateway"})
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		store := audit.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("audit schema", slog.Any("error", err))
			os.Exit(1)
		}
		recorder, auditReader = store, store
	} else {
		logger.Info("PG_DSN not set, write audit disabled")
	}

	metrics := observability.NewMetrics()

	backendClient := backend.NewClient(cfg.BackendURL, backend.NewHTTPClient(backend.Options{Timeout: cfg.ProxyTimeout}), logger)
	services := backend.NewServices(backendClient)

	lists := listcache.New(redisClient, cfg.ListCacheTTL)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	queue := jobs.NewClient(redisOpts)
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()
	refresher := jobs.NewRefreshScheduler(queue, lists, cfg.RefreshDelay, logger, metrics.Jobs())

	sessions := auth.NewRedisStore(redisClient, cfg.SessionTTL)
	authService := auth.NewService(services.Auth, sessions)
	authHandler := auth.NewHandler(logger, authService, auth.CookieOptions{TTL: cfg.SessionTTL, Secure: cfg.IsProduction()})

	samplesHandler, err := samples.NewHandler(samples.Config{
		Services:  services,
		Lists:     lists,
		Refresher: refresher,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("load samples api", slog.Any("error", err))
		os.Exit(1)
	}

	var auditHandler *audithttp.Handler
	if auditReader != nil {
		auditHandler = audithttp.NewHandler(logger, audit.NewService(auditReader))
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger: logger,
		Config: cfg,
		Proxy:  proxy.New(proxy.Options{
			BackendURL: cfg.BackendURL,
			Timeout:    cfg.ProxyTimeout,
			Client:     backend.NewHTTPClient(backend.Options{Timeout: cfg.ProxyTimeout, FollowRedirects: true}),
			Logger:     logger,
			Writes:     refresher,
			Audit:      recorder,
			Metrics:    metrics,
			Actor:      authService.Actor,
		}),
		AuthService:       authService,
		AuthHandler:       authHandler,
		NavigationHandler: navigation.NewHandler(),
		SamplesHandler:    samplesHandler,
		AuditHandler:      auditHandler,
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
		SPA:               app.SPAFiles(cfg),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting gateway", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
