package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHousekeeper_RunsJobsUntilStopped(t *testing.T) {
	h := NewHousekeeper()
	var ok, failing atomic.Int32
	require.NoError(t, h.Add("@every 1s", "sweep", func(ctx context.Context) error {
		ok.Add(1)
		return nil
	}))
	require.NoError(t, h.Add("@every 1s", "sync", func(ctx context.Context) error {
		failing.Add(1)
		return errors.New("redis down")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx)

	assert.Eventually(t, func() bool { return ok.Load() >= 2 && failing.Load() >= 2 }, 5*time.Second, 50*time.Millisecond,
		"a failing job keeps its schedule")

	h.Stop()
	stopped := ok.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, stopped, ok.Load())
}

func TestHousekeeper_RejectsBadSpecs(t *testing.T) {
	err := NewHousekeeper().Add("every minute", "sweep", func(ctx context.Context) error { return nil })
	assert.ErrorContains(t, err, "failed to schedule sweep")
}
