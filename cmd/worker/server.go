package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"shopora-backend/internal/config"
	couponJob "shopora-backend/internal/domains/coupon/job"
	orderJob "shopora-backend/internal/domains/order/job"
	productJob "shopora-backend/internal/domains/product/job"
	"shopora-backend/internal/infrastructure/queue"
	"shopora-backend/internal/shared"
	"shopora-backend/pkg/container"
	"shopora-backend/pkg/logger"
)

// Run boots the background worker: the asynq server consuming tasks and
// the scheduler emitting periodic ones. Both share the container wiring
// with the API binary.
func Run() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", err)
		os.Exit(1)
	}

	logger.Init(cfg.App.Environment)

	ctx := context.Background()
	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize container", err)
		os.Exit(1)
	}
	defer c.Cleanup()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Jobs.RedisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				shared.QueueCritical: 6,
				shared.QueueDefault:  3,
				shared.QueueLow:      1,
			},
		},
	)

	mux := asynq.NewServeMux()

	expireCoupons := couponJob.NewExpireCouponsHandler(c.CouponService)
	mux.HandleFunc(shared.TypeCouponExpireSweep, expireCoupons.ProcessTask)

	confirmationEmail := orderJob.NewConfirmationEmailHandler(c.Email)
	mux.HandleFunc(shared.TypeOrderConfirmationEmail, confirmationEmail.ProcessTask)

	qrSummary := orderJob.NewQRSummaryHandler(c.OrderRepo, c.Storage, cfg.App.PublicURL)
	mux.HandleFunc(shared.TypeOrderQRSummary, qrSummary.ProcessTask)

	processImage := productJob.NewProcessImageHandler(c.Storage)
	mux.HandleFunc(shared.TypeProductProcessImage, processImage.ProcessTask)

	scheduler := queue.NewScheduler(cfg.Jobs.RedisAddr, cfg.Jobs)
	if err := scheduler.RegisterJobs(); err != nil {
		logger.Error("Failed to register scheduled jobs", err)
		os.Exit(1)
	}

	// Scheduler runs in its own goroutine; asynq server blocks below
	go func() {
		if err := scheduler.Start(); err != nil {
			logger.Error("Scheduler stopped", err)
		}
	}()

	go func() {
		logger.Info("⚙️ Worker started", map[string]interface{}{
			"queues": "critical, default, low",
		})
		if err := srv.Run(mux); err != nil {
			logger.Error("Worker server error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...", nil)
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info("Worker stopped", nil)
}
