package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
)

type MemoryPingRepository struct {
	mu       sync.RWMutex
	services map[uuid.UUID]model.PingService
	exists   func(uuid.UUID) bool
}

func NewMemoryPingRepository() *MemoryPingRepository {
	return &MemoryPingRepository{services: make(map[uuid.UUID]model.PingService)}
}

func (r *MemoryPingRepository) Create(ctx context.Context, svc *model.PingService) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live(svc.ProjectID) {
		return model.ErrProjectNotFound
	}
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	if svc.Status == "" {
		svc.Status = model.PingStatusUnknown
	}
	r.services[svc.ID] = svc.Clone()
	return nil
}

// live is checked under the write lock, so a cascade that removed the
// project before taking the lock never misses a service created here.
func (r *MemoryPingRepository) live(projectID uuid.UUID) bool {
	return r.exists == nil || r.exists(projectID)
}

func (r *MemoryPingRepository) Get(ctx context.Context, id uuid.UUID) (model.PingService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[id]
	if !ok {
		return model.PingService{}, model.ErrPingServiceNotFound
	}
	return svc.Clone(), nil
}

func (r *MemoryPingRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error) {
	return r.list(func(s model.PingService) bool { return s.ProjectID == projectID }), nil
}

func (r *MemoryPingRepository) ListAll(ctx context.Context) ([]model.PingService, error) {
	return r.list(func(model.PingService) bool { return true }), nil
}

func (r *MemoryPingRepository) list(keep func(model.PingService) bool) []model.PingService {
	r.mu.RLock()
	out := make([]model.PingService, 0)
	for _, s := range r.services {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.PingService) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out
}

func (r *MemoryPingRepository) Update(ctx context.Context, svc *model.PingService) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.services[svc.ID]
	if !ok {
		return model.ErrPingServiceNotFound
	}
	if !r.live(current.ProjectID) {
		return model.ErrProjectNotFound
	}
	current.Name = svc.Name
	current.URL = svc.URL
	current.Interval = svc.Interval
	current.Tags = slices.Clone(svc.Tags)
	r.services[svc.ID] = current
	return nil
}

func (r *MemoryPingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PingStatus, checkedAt time.Time, changed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.services[id]
	if !ok {
		return model.ErrPingServiceNotFound
	}
	current.LastCheckedAt = &checkedAt
	if changed {
		current.Status = status
		current.LastStatusChangeAt = &checkedAt
	}
	r.services[id] = current
	return nil
}

func (r *MemoryPingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[id]; !ok {
		return model.ErrPingServiceNotFound
	}
	delete(r.services, id)
	return nil
}

func (r *MemoryPingRepository) deleteProject(projectID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.services {
		if s.ProjectID == projectID {
			delete(r.services, id)
			n++
		}
	}
	return n
}

func (r *MemoryPingRepository) Close() error {
	return nil
}
