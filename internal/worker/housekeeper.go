package worker

import (
	"context"
	"fmt"

	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/robfig/cron/v3"
)

// Housekeeper runs periodic maintenance jobs, such as lifting expired IP
// blocks or syncing shared settings. A job still running when its next turn
// comes is skipped.
type Housekeeper struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewHousekeeper() *Housekeeper {
	cronLogger := logger.CronLogger()
	return &Housekeeper{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		ctx: context.Background(),
	}
}

// Add schedules job on a cron spec. Failures are logged and the job stays
// scheduled.
func (h *Housekeeper) Add(spec, name string, job func(ctx context.Context) error) error {
	_, err := h.cron.AddFunc(spec, func() {
		if err := job(h.ctx); err != nil {
			logger.Warnf("housekeeping job %s failed: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

// Start runs the jobs until ctx is done.
func (h *Housekeeper) Start(ctx context.Context) {
	h.ctx = ctx
	h.cron.Start()
}

// Stop waits for running jobs to finish.
func (h *Housekeeper) Stop() {
	<-h.cron.Stop().Done()
}
