package repository

import (
	"context"
	"iter"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	Get(ctx context.Context, id uuid.UUID) (model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Close() error
}

type LogRepository interface {
	Append(ctx context.Context, record *model.LogRecord) (model.RecordID, error)
	Query(ctx context.Context, filter model.LogFilter) (iter.Seq[model.LogRecord], error)
	DeleteWhere(ctx context.Context, filter model.DeleteFilter) (int, error)
	Close() error
}

type PingRepository interface {
	Create(ctx context.Context, svc *model.PingService) error
	Get(ctx context.Context, id uuid.UUID) (model.PingService, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error)
	ListAll(ctx context.Context) ([]model.PingService, error)
	Update(ctx context.Context, svc *model.PingService) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PingStatus, checkedAt time.Time, changed bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

// PartitionCreator is implemented by log stores that keep time partitions.
type PartitionCreator interface {
	CreatePartition(ctx context.Context, month time.Time) error
}

// Store groups the repositories and owns the cross-repository cascade.
type Store interface {
	Projects() ProjectRepository
	Logs() LogRepository
	Pings() PingRepository
	// DeleteProjectCascade removes the project with every log record and ping
	// service it owns, as one step.
	DeleteProjectCascade(ctx context.Context, projectID uuid.UUID) (logs int, pings int, err error)
	Close() error
}
