package service

import (
	"context"
	"fmt"
	"iter"

	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/repository"
)

type LogService struct {
	projects repository.ProjectRepository
	logs     repository.LogRepository
}

func NewLogService(projects repository.ProjectRepository, logs repository.LogRepository) *LogService {
	return &LogService{projects: projects, logs: logs}
}

// Query returns the records matching filter, ordered by timestamp and then
// insertion order. A filter naming a missing project fails with ErrProjectNotFound.
func (s *LogService) Query(ctx context.Context, filter model.LogFilter) (iter.Seq[model.LogRecord], error) {
	if filter.ProjectID != nil {
		project, err := s.projects.Get(ctx, *filter.ProjectID)
		if err != nil {
			return nil, err
		}
		if filter.Level != "" {
			if level, ok := project.Level(filter.Level); ok {
				filter.Level = level
			}
		}
	}

	records, err := s.logs.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	return records, nil
}

func (s *LogService) DeleteWhere(ctx context.Context, filter model.DeleteFilter) (int, error) {
	if filter.ProjectID != nil {
		project, err := s.projects.Get(ctx, *filter.ProjectID)
		if err != nil {
			return 0, err
		}
		if filter.Level != "" {
			if level, ok := project.Level(filter.Level); ok {
				filter.Level = level
			}
		}
	}

	n, err := s.logs.DeleteWhere(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete logs: %w", err)
	}
	if n > 0 {
		logger.Infof("deleted %d log records", n)
	}
	return n, nil
}
