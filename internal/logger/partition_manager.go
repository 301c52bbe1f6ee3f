package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/robfig/cron/v3"
)

type PartitionManager struct {
	repo repository.PartitionCreator
	cron *cron.Cron
}

func NewPartitionManager(repo repository.PartitionCreator) *PartitionManager {
	c := cron.New(cron.WithLogger(CronLogger()))
	pm := &PartitionManager{
		repo: repo,
		cron: c,
	}

	_, err := c.AddFunc("0 0 1 * *", pm.createNextMonthPartitionWrapper)
	if err != nil {
		Errorf("failed to add cron job: %v", err)
	}

	return pm
}

func (pm *PartitionManager) Start(ctx context.Context) error {
	if err := pm.createInitialPartitions(ctx); err != nil {
		return fmt.Errorf("failed to create initial partitions: %w", err)
	}

	pm.cron.Start()

	go func() {
		<-ctx.Done()
		pm.cron.Stop()
	}()

	return nil
}

func (pm *PartitionManager) createInitialPartitions(ctx context.Context) error {
	start := firstOfMonth(time.Now())
	for i := 0; i < 3; i++ {
		month := start.AddDate(0, i, 0)
		if err := pm.repo.CreatePartition(ctx, month); err != nil {
			return err
		}
	}
	return nil
}

func (pm *PartitionManager) createNextMonthPartition(ctx context.Context) error {
	nextMonth := firstOfMonth(time.Now()).AddDate(0, 3, 0)
	return pm.repo.CreatePartition(ctx, nextMonth)
}

func (pm *PartitionManager) createNextMonthPartitionWrapper() {
	ctx := context.Background()
	if err := pm.createNextMonthPartition(ctx); err != nil {
		Errorf("failed to create next month partition: %v", err)
	}
}

func firstOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
