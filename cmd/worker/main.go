package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/app"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard"
	jobmetrics "github.com/bluewhale-ops/bluewhale-analytics/internal/jobs"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	platformcache "github.com/bluewhale-ops/bluewhale-analytics/internal/platform/cache"
	platformdb "github.com/bluewhale-ops/bluewhale-analytics/internal/platform/db"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/slicer"
	"github.com/bluewhale-ops/bluewhale-analytics/jobs"
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

	pool, err := platformdb.New(ctx, cfg.PGDSN, platformdb.Options{
		MaxConns:        cfg.PGMaxConns,
		MaxConnLifetime: cfg.PGConnLifetime,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	policy := kpi.DefaultPolicy()
	policy.AutomationStart = cfg.AutomationStartDate()

	// The worker warms the same Redis the API serves from.
	redisClient, err := platformcache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	warmupCache := dashboard.NewCache(redisClient, cfg.CacheTTL)
	dashboardSvc := dashboard.NewService(dashboard.NewRepository(pool), warmupCache, policy)
	slicerSvc := slicer.NewService(slicer.NewRepository(pool))

	warmup := jobs.NewKPIWarmupJob(dashboardSvc, slicerSvc, logger, jobmetrics.NewMetrics(nil))

	warmupTask, err := jobs.NewKPIWarmupTask(jobs.KPIWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskKPIWarmup, Handler: warmup.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting", slog.String("cron", cfg.WarmupCron))
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
