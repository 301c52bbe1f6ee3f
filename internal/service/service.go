package service

import (
	"context"
	"iter"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
)

type IngestServiceInterface interface {
	Ingest(ctx context.Context, projectID uuid.UUID, raw model.RawLog, clientIP string) (model.RecordID, error)
}

type LogServiceInterface interface {
	Query(ctx context.Context, filter model.LogFilter) (iter.Seq[model.LogRecord], error)
	DeleteWhere(ctx context.Context, filter model.DeleteFilter) (int, error)
}

type ProjectServiceInterface interface {
	Create(ctx context.Context, project *model.Project) error
	Get(ctx context.Context, id uuid.UUID) (model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) (logs int, pings int, err error)
}

type PingServiceInterface interface {
	Register(ctx context.Context, projectID uuid.UUID, def model.PingDefinition) (model.PingService, error)
	List(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error)
	Trigger(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error)
	Update(ctx context.Context, projectID, id uuid.UUID, def model.PingDefinition) (model.PingService, error)
	Delete(ctx context.Context, projectID, id uuid.UUID) error
}

// Whitelist decides whether a client address may write into whitelist projects.
type Whitelist interface {
	IsAllowed(ctx context.Context, ip string) (bool, error)
}

// AlertDispatcher fans an alert out to the project's subscribed recipients.
type AlertDispatcher interface {
	Dispatch(project model.Project, alert model.Alert, tags []string) int
}

// RecordPublisher streams accepted records to downstream consumers.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, record model.LogRecord) error
}

type BlacklistServiceInterface interface {
	Add(ctx context.Context, entry model.BlacklistEntry) (model.BlacklistEntry, error)
	Update(ctx context.Context, ip string, entry model.BlacklistEntry) (model.BlacklistEntry, error)
	Remove(ctx context.Context, ip string) error
	List(ctx context.Context) ([]model.BlacklistEntry, error)
	Check(ctx context.Context, ip string) (*model.BlacklistEntry, error)
}

type SettingsServiceInterface interface {
	Get(ctx context.Context) (model.Settings, error)
	SetRateLimit(ctx context.Context, perMinute int) (model.Settings, error)
}
