package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var validate = validator.New()

// Scheduler is the part of the ping scheduler the services drive.
type Scheduler interface {
	Register(svc model.PingService) error
	Reschedule(svc model.PingService) bool
	Deregister(id uuid.UUID) (model.PingService, bool)
	DeregisterProject(projectID uuid.UUID) []model.PingService
	Restore(projectID uuid.UUID, services []model.PingService)
	Forget(ctx context.Context, ids ...uuid.UUID)
	TriggerProject(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error)
}

type PingService struct {
	projects  repository.ProjectRepository
	pings     repository.PingRepository
	scheduler Scheduler
	now       func() time.Time
}

func NewPingService(projects repository.ProjectRepository, pings repository.PingRepository, scheduler Scheduler) *PingService {
	return &PingService{
		projects:  projects,
		pings:     pings,
		scheduler: scheduler,
		now:       time.Now,
	}
}

func (s *PingService) Register(ctx context.Context, projectID uuid.UUID, def model.PingDefinition) (model.PingService, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return model.PingService{}, err
	}
	def, err = checkDefinition(project, def)
	if err != nil {
		return model.PingService{}, err
	}

	svc := model.PingService{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Name:      def.Name,
		URL:       def.URL,
		Interval:  def.Interval,
		Tags:      def.Tags,
		Status:    model.PingStatusUnknown,
		CreatedAt: s.now().UTC(),
	}
	if err := s.pings.Create(ctx, &svc); err != nil {
		return model.PingService{}, fmt.Errorf("failed to create ping service: %w", err)
	}
	// The project may have been deleted since it was read.
	if err := s.scheduler.Register(svc); err != nil {
		if derr := s.pings.Delete(ctx, svc.ID); derr != nil && !errors.Is(derr, model.ErrNotFound) {
			logger.Errorf("failed to remove ping service %s of deleted project %s: %v", svc.ID, project.ID, derr)
		}
		return model.PingService{}, err
	}

	logger.Event(model.LogLevelInfo, []string{"PING"}, "ping service %s registered for project %s every %ds",
		svc.Name, project.Name, svc.Interval)
	return svc, nil
}

func (s *PingService) List(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	services, err := s.pings.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ping services: %w", err)
	}
	return services, nil
}

// Trigger polls every service of the project now and returns their statuses.
func (s *PingService) Trigger(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	services, err := s.scheduler.TriggerProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ping services: %w", err)
	}
	return services, nil
}

func (s *PingService) Update(ctx context.Context, projectID, id uuid.UUID, def model.PingDefinition) (model.PingService, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return model.PingService{}, err
	}
	svc, err := s.owned(ctx, projectID, id)
	if err != nil {
		return model.PingService{}, err
	}
	def, err = checkDefinition(project, def)
	if err != nil {
		return model.PingService{}, err
	}

	svc.Name, svc.URL, svc.Interval, svc.Tags = def.Name, def.URL, def.Interval, def.Tags
	if err := s.pings.Update(ctx, &svc); err != nil {
		return model.PingService{}, fmt.Errorf("failed to update ping service: %w", err)
	}
	if !s.scheduler.Reschedule(svc) {
		return model.PingService{}, model.ErrPingServiceNotFound
	}
	return svc, nil
}

// Delete stops polling the service and removes it. If the store refuses the
// deletion the service is armed again.
func (s *PingService) Delete(ctx context.Context, projectID, id uuid.UUID) error {
	if _, err := s.owned(ctx, projectID, id); err != nil {
		return err
	}

	previous, armed := s.scheduler.Deregister(id)
	if err := s.pings.Delete(ctx, id); err != nil {
		if armed {
			if rerr := s.scheduler.Register(previous); rerr != nil {
				log.Debugf("ping service %s not re-armed: %v", id, rerr)
			}
		}
		return fmt.Errorf("failed to delete ping service: %w", err)
	}
	s.scheduler.Forget(ctx, id)

	logger.Event(model.LogLevelInfo, []string{"PING"}, "ping service %s deleted", id)
	return nil
}

func (s *PingService) owned(ctx context.Context, projectID, id uuid.UUID) (model.PingService, error) {
	svc, err := s.pings.Get(ctx, id)
	if err != nil {
		return model.PingService{}, err
	}
	if svc.ProjectID != projectID {
		return model.PingService{}, model.ErrPingServiceNotFound
	}
	return svc, nil
}

func checkDefinition(project model.Project, def model.PingDefinition) (model.PingDefinition, error) {
	if def.Interval == 0 {
		def.Interval = model.DefaultPingInterval
	}
	if err := validate.Struct(def); err != nil {
		return def, fmt.Errorf("%w: %v", model.ErrInvalidPingDefinition, err)
	}
	tags, err := project.Tags(def.Tags)
	if err != nil {
		return def, err
	}
	def.Tags = tags
	return def, nil
}
