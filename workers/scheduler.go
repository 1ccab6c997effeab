// workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartCollectScheduler runs CollectActive every interval. ctx is handed to
// every run; cancelling it aborts a run in flight. The caller owns the
// returned scheduler and must Shutdown it, which waits for a running pass,
// before closing the database. A run that is still going when the next one
// is due is rescheduled rather than overlapped. With runNow the first pass
// starts immediately.
func StartCollectScheduler(ctx context.Context, c *Collector, interval time.Duration, runNow bool, logger *zap.Logger) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("collect interval must be positive, got %s", interval)
	}
	log := logger.Named("scheduler")

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	opts := []gocron.JobOption{
		gocron.WithName("collect-active-scholars"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if runNow {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			summary, err := c.CollectActive(ctx, nil)
			if err != nil {
				log.Error("scheduled collection failed", zap.String("run_id", summary.RunID), zap.Error(err))
				return
			}
			log.Info("scheduled collection done",
				zap.String("run_id", summary.RunID),
				zap.Int("succeeded", summary.Succeeded),
				zap.Int("failed", summary.Failed),
			)
		}),
		opts...,
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("registering collect job: %w", err)
	}

	sched.Start()
	log.Info("collection scheduler started", zap.Duration("interval", interval))

	return sched, nil
}
