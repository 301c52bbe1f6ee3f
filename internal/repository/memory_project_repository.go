package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
)

type MemoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]model.Project
}

func NewMemoryProjectRepository() *MemoryProjectRepository {
	return &MemoryProjectRepository{projects: make(map[uuid.UUID]model.Project)}
}

func (r *MemoryProjectRepository) Create(ctx context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	r.projects[project.ID] = project.Clone()
	return nil
}

func (r *MemoryProjectRepository) Get(ctx context.Context, id uuid.UUID) (model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return model.Project{}, model.ErrProjectNotFound
	}
	return p.Clone(), nil
}

func (r *MemoryProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	r.mu.RLock()
	out := make([]model.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Project) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (r *MemoryProjectRepository) Update(ctx context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID]; !ok {
		return model.ErrProjectNotFound
	}
	r.projects[project.ID] = project.Clone()
	return nil
}

func (r *MemoryProjectRepository) exists(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.projects[id]
	return ok
}

func (r *MemoryProjectRepository) delete(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.projects[id]
	delete(r.projects, id)
	return ok
}

func (r *MemoryProjectRepository) Close() error {
	return nil
}
