package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"shopora-backend/internal/config"
	"shopora-backend/internal/shared"
	"shopora-backend/internal/shared/utils"
	"shopora-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisAddress string, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterJobs registers all periodic jobs.
func (s *Scheduler) RegisterJobs() error {
	if err := s.registerCouponExpireSweepJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// JOB 1: Coupon Expiry Sweep
// ================================================
// Marks coupons whose validity window has ended as expired so the
// validator never has to trust a stale status flag. The interval is
// configurable; default is one minute.
func (s *Scheduler) registerCouponExpireSweepJob() error {
	payload, err := utils.MarshalTaskPayload(shared.CouponExpireSweepPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeCouponExpireSweep, payload)

	cronspec := fmt.Sprintf("@every %s", s.jobConfig.CouponSweepInterval)

	_, err = s.scheduler.Register(
		cronspec,
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register CouponExpireSweep job", err)
		return err
	}

	logger.Info("✓ Registered CouponExpireSweep", map[string]interface{}{
		"interval": s.jobConfig.CouponSweepInterval.String(),
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
