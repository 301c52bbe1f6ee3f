package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/Lutefd/logpulse/internal/metrics"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/Lutefd/logpulse/internal/worker"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type IngestServiceConfig struct {
	Projects   repository.ProjectRepository
	Logs       repository.LogRepository
	Throttle   *worker.Throttle
	Dispatcher AlertDispatcher
	Counters   *metrics.Counters

	// Whitelist gates whitelist projects when set.
	Whitelist Whitelist
	Publisher RecordPublisher

	Now func() time.Time
}

type IngestService struct {
	cfg IngestServiceConfig
}

func NewIngestService(cfg IngestServiceConfig) *IngestService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &IngestService{cfg: cfg}
}

func (s *IngestService) Ingest(ctx context.Context, projectID uuid.UUID, raw model.RawLog, clientIP string) (model.RecordID, error) {
	project, err := s.cfg.Projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.cfg.Counters.LogsRejected.Inc("project_not_found")
			logger.Event(model.LogLevelWarning, []string{"SECURITY", "INGEST"},
				"log rejected: unknown project %s from %s", projectID, clientIP)
		}
		return model.RecordID{}, err
	}

	if err := s.checkAccess(ctx, project, clientIP); err != nil {
		return model.RecordID{}, err
	}

	record, err := Validate(project, raw, s.cfg.Now())
	if err != nil {
		reason := "invalid"
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			reason = string(verr.Kind)
		}
		s.cfg.Counters.LogsRejected.Inc(reason)
		logger.Event(model.LogLevelWarning, []string{"VALIDATION", "INGEST"},
			"log rejected for project %s: %v", project.Name, err)
		return model.RecordID{}, err
	}

	id, err := s.cfg.Logs.Append(ctx, &record)
	if err != nil {
		return model.RecordID{}, fmt.Errorf("failed to store log: %w", err)
	}
	s.cfg.Counters.LogsIngested.Inc(record.Level)

	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.PublishRecord(ctx, record); err != nil {
			log.Errorf("failed to stream log %s: %v", record.ID, err)
		}
	}

	s.alert(ctx, project, record)
	return id, nil
}

func (s *IngestService) checkAccess(ctx context.Context, project model.Project, clientIP string) error {
	if s.cfg.Whitelist == nil || project.AccessLevel != model.AccessLevelWhitelist {
		return nil
	}
	allowed, err := s.cfg.Whitelist.IsAllowed(ctx, clientIP)
	if err != nil {
		return fmt.Errorf("failed to check whitelist: %w: %w", model.ErrStoreUnavailable, err)
	}
	if !allowed {
		s.cfg.Counters.LogsRejected.Inc("access_denied")
		logger.Event(model.LogLevelWarning, []string{"SECURITY", "INGEST"},
			"log rejected: %s is not whitelisted for project %s", clientIP, project.Name)
		return model.ErrAccessDenied
	}
	return nil
}

// alert notifies subscribers of an accepted log unless the project is in
// debug mode or the same level fired within the anti-spam window.
func (s *IngestService) alert(ctx context.Context, project model.Project, record model.LogRecord) {
	if project.DebugMode || !project.Notify.Enabled {
		return
	}
	fire, err := s.cfg.Throttle.ShouldNotifyLog(ctx, project, record.Level, s.cfg.Now())
	if err != nil {
		log.Errorf("failed to check notification throttle for project %s: %v", project.ID, err)
		return
	}
	if !fire {
		return
	}
	a := model.NewLogAlert(project, record)
	s.cfg.Dispatcher.Dispatch(project, a, a.Tags)
}
