package repository

import (
	"context"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
)

type MemoryStore struct {
	projects *MemoryProjectRepository
	logs     *MemoryLogRepository
	pings    *MemoryPingRepository
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		projects: NewMemoryProjectRepository(),
		logs:     NewMemoryLogRepository(),
		pings:    NewMemoryPingRepository(),
	}
	s.logs.exists = s.projects.exists
	s.pings.exists = s.projects.exists
	return s
}

func (s *MemoryStore) Projects() ProjectRepository { return s.projects }
func (s *MemoryStore) Logs() LogRepository         { return s.logs }
func (s *MemoryStore) Pings() PingRepository       { return s.pings }

// DeleteProjectCascade removes the project first so concurrent appends are
// rejected, then drops its log partition and ping services.
func (s *MemoryStore) DeleteProjectCascade(ctx context.Context, projectID uuid.UUID) (int, int, error) {
	if !s.projects.delete(projectID) {
		return 0, 0, model.ErrProjectNotFound
	}
	logs := s.logs.dropProject(projectID)
	pings := s.pings.deleteProject(projectID)
	return logs, pings, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
