package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/facturante/facturante/internal/app"
	"github.com/facturante/facturante/internal/masterdata"
	"github.com/facturante/facturante/internal/masterdata/clients"
	"github.com/facturante/facturante/internal/masterdata/products"
	"github.com/facturante/facturante/internal/masterdata/sellers"
	"github.com/facturante/facturante/internal/masterdata/terms"
	"github.com/facturante/facturante/internal/payment"
	"github.com/facturante/facturante/internal/platform/cache"
	"github.com/facturante/facturante/internal/platform/db"
	"github.com/facturante/facturante/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, summary cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	catalog := masterdata.NewCatalog(
		clients.NewRepository(pool),
		sellers.NewRepository(pool),
		products.NewRepository(pool),
		terms.NewRepository(pool),
	)
	paymentRepo := payment.NewRepository(pool)
	paymentService := payment.NewService(paymentRepo, catalog, logger, redisClient, cfg.SummaryCacheTTL)

	sweepTask, err := jobs.NewPaymentsSweepTask(jobs.PaymentsSweepPayload{})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPaymentsSweep, Handler: jobs.NewPaymentsSweepHandler(paymentService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SweepCron, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("sweep_cron", cfg.SweepCron))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
