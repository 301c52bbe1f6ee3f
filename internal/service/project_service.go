package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/google/uuid"
)

type ProjectService struct {
	store     repository.Store
	scheduler Scheduler
	now       func() time.Time
}

func NewProjectService(store repository.Store, scheduler Scheduler) *ProjectService {
	return &ProjectService{store: store, scheduler: scheduler, now: time.Now}
}

func (s *ProjectService) Create(ctx context.Context, project *model.Project) error {
	project.ApplyDefaults()
	if err := validate.Struct(project); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidProject, err)
	}
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	now := s.now().UTC()
	project.CreatedAt, project.UpdatedAt = now, now

	if err := s.store.Projects().Create(ctx, project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	logger.Infof("project %s (%s) created", project.Name, project.ID)
	return nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (model.Project, error) {
	return s.store.Projects().Get(ctx, id)
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	projects, err := s.store.Projects().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Update replaces the configuration of an existing project. Ingest and
// polling read the project per operation, so the change applies to the next
// log or poll result.
func (s *ProjectService) Update(ctx context.Context, project *model.Project) error {
	current, err := s.store.Projects().Get(ctx, project.ID)
	if err != nil {
		return err
	}

	project.Normalize()
	if err := validate.Struct(project); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidProject, err)
	}
	project.CreatedAt = current.CreatedAt
	project.UpdatedAt = s.now().UTC()

	if err := s.store.Projects().Update(ctx, project); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	logger.Infof("project %s (%s) updated", project.Name, project.ID)
	return nil
}

// Delete removes the project together with its logs and ping services and
// reports how many of each were removed. Polling stops before the store is
// touched; if the store fails the services are armed again and the call can
// be retried.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) (int, int, error) {
	if id == model.SystemProjectID {
		return 0, 0, model.ErrProtectedProject
	}
	project, err := s.store.Projects().Get(ctx, id)
	if err != nil {
		return 0, 0, err
	}

	removed := s.scheduler.DeregisterProject(id)
	logs, pings, err := s.store.DeleteProjectCascade(ctx, id)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.scheduler.Restore(id, removed)
		}
		return 0, 0, fmt.Errorf("failed to delete project %s: %w", id, err)
	}

	ids := make([]uuid.UUID, 0, len(removed))
	for _, svc := range removed {
		ids = append(ids, svc.ID)
	}
	s.scheduler.Forget(ctx, ids...)

	logger.Infof("project %s (%s) deleted with %d logs and %d ping services", project.Name, id, logs, pings)
	return logs, pings, nil
}

// EnsureSystemProject creates the project that receives internal events if
// it does not exist yet.
func (s *ProjectService) EnsureSystemProject(ctx context.Context) (model.Project, error) {
	project, err := s.store.Projects().Get(ctx, model.SystemProjectID)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Project{}, fmt.Errorf("failed to load system project: %w", err)
	}

	project = model.NewSystemProject(s.now().UTC())
	if err := s.store.Projects().Create(ctx, &project); err != nil {
		return model.Project{}, fmt.Errorf("failed to create system project: %w", err)
	}
	return project, nil
}
