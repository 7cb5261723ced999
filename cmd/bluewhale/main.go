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

	"github.com/bluewhale-ops/bluewhale-analytics/internal/app"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard"
	dashboardhttp "github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard/http"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/feedback"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/observability"
	platformcache "github.com/bluewhale-ops/bluewhale-analytics/internal/platform/cache"
	platformdb "github.com/bluewhale-ops/bluewhale-analytics/internal/platform/db"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/slicer"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/targets"
	"github.com/bluewhale-ops/bluewhale-analytics/jobs"
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

	pool, err := platformdb.New(ctx, cfg.PGDSN, platformdb.Options{
		MaxConns:        cfg.PGMaxConns,
		MaxConnLifetime: cfg.PGConnLifetime,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := platformcache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, serving uncached", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	policy := kpi.DefaultPolicy()
	policy.AutomationStart = cfg.AutomationStartDate()

	kpiCache := dashboard.NewCache(redisClient, cfg.CacheTTL)
	dashboardSvc := dashboard.NewService(dashboard.NewRepository(pool), kpiCache, policy)
	slicerSvc := slicer.NewService(slicer.NewRepository(pool))
	targetsSvc := targets.NewService(targets.NewRepository(pool), shared.NewAuditLogger(pool), logger)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DashboardHandler: dashboardhttp.NewHandler(logger, dashboardSvc, slicerSvc),
		TargetsHandler:   targets.NewHandler(logger, targetsSvc),
		FeedbackHandler:  feedback.NewHandler(logger, feedback.NewRepository(pool)),
		JobsHandler:      jobs.NewHandler(asynqClient, kpiCache, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
}
