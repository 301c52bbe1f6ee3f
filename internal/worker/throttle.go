package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Lutefd/logpulse/internal/cache"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
)

// Throttle suppresses repeated alerts for the same subject and direction
// within a project's anti-spam interval.
type Throttle struct {
	store cache.ThrottleStore
}

func NewThrottle(store cache.ThrottleStore) *Throttle {
	return &Throttle{store: store}
}

func throttleKey(subject uuid.UUID, kind string) string {
	return fmt.Sprintf("throttle:%s:%s", subject, kind)
}

func (t *Throttle) ShouldNotify(ctx context.Context, project model.Project, serviceID uuid.UUID, dir model.Direction, now time.Time) (bool, error) {
	if !project.Notify.Enabled {
		return false, nil
	}
	return t.store.CheckAndSet(ctx, throttleKey(serviceID, string(dir)), now, project.Notify.Window())
}

// ShouldNotifyLog throttles log-originated alerts per project and level.
func (t *Throttle) ShouldNotifyLog(ctx context.Context, project model.Project, level string, now time.Time) (bool, error) {
	if !project.Notify.Enabled {
		return false, nil
	}
	return t.store.CheckAndSet(ctx, throttleKey(project.ID, "log:"+level), now, project.Notify.Window())
}

// Forget drops the throttle state of deregistered ping services.
func (t *Throttle) Forget(ctx context.Context, serviceIDs ...uuid.UUID) error {
	keys := make([]string, 0, 2*len(serviceIDs))
	for _, id := range serviceIDs {
		keys = append(keys,
			throttleKey(id, string(model.DirectionBecameUnreachable)),
			throttleKey(id, string(model.DirectionBecameReachable)),
		)
	}
	return t.store.Delete(ctx, keys...)
}
