package handler_test

import (
	"context"
	"iter"
	"net/http"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Ingest(ctx context.Context, projectID uuid.UUID, raw model.RawLog, clientIP string) (model.RecordID, error) {
	args := m.Called(ctx, projectID, raw, clientIP)
	return args.Get(0).(model.RecordID), args.Error(1)
}

type MockLogService struct {
	mock.Mock
}

func (m *MockLogService) Query(ctx context.Context, filter model.LogFilter) (iter.Seq[model.LogRecord], error) {
	args := m.Called(ctx, filter)
	if seq, ok := args.Get(0).(iter.Seq[model.LogRecord]); ok {
		return seq, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLogService) DeleteWhere(ctx context.Context, filter model.DeleteFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectService) Get(ctx context.Context, id uuid.UUID) (model.Project, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Project), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context) ([]model.Project, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Project), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectService) Delete(ctx context.Context, id uuid.UUID) (int, int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Int(1), args.Error(2)
}

type MockPingService struct {
	mock.Mock
}

func (m *MockPingService) Register(ctx context.Context, projectID uuid.UUID, def model.PingDefinition) (model.PingService, error) {
	args := m.Called(ctx, projectID, def)
	return args.Get(0).(model.PingService), args.Error(1)
}

func (m *MockPingService) List(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]model.PingService), args.Error(1)
}

func (m *MockPingService) Trigger(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]model.PingService), args.Error(1)
}

func (m *MockPingService) Update(ctx context.Context, projectID, id uuid.UUID, def model.PingDefinition) (model.PingService, error) {
	args := m.Called(ctx, projectID, id, def)
	return args.Get(0).(model.PingService), args.Error(1)
}

func (m *MockPingService) Delete(ctx context.Context, projectID, id uuid.UUID) error {
	args := m.Called(ctx, projectID, id)
	return args.Error(0)
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seqOf(records ...model.LogRecord) iter.Seq[model.LogRecord] {
	return func(yield func(model.LogRecord) bool) {
		for _, r := range records {
			if !yield(r) {
				return
			}
		}
	}
}

type MockBlacklistService struct {
	mock.Mock
}

func (m *MockBlacklistService) Add(ctx context.Context, entry model.BlacklistEntry) (model.BlacklistEntry, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(model.BlacklistEntry), args.Error(1)
}

func (m *MockBlacklistService) Update(ctx context.Context, ip string, entry model.BlacklistEntry) (model.BlacklistEntry, error) {
	args := m.Called(ctx, ip, entry)
	return args.Get(0).(model.BlacklistEntry), args.Error(1)
}

func (m *MockBlacklistService) Remove(ctx context.Context, ip string) error {
	args := m.Called(ctx, ip)
	return args.Error(0)
}

func (m *MockBlacklistService) List(ctx context.Context) ([]model.BlacklistEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.BlacklistEntry), args.Error(1)
}

func (m *MockBlacklistService) Check(ctx context.Context, ip string) (*model.BlacklistEntry, error) {
	args := m.Called(ctx, ip)
	block, _ := args.Get(0).(*model.BlacklistEntry)
	return block, args.Error(1)
}

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context) (model.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Settings), args.Error(1)
}

func (m *MockSettingsService) SetRateLimit(ctx context.Context, perMinute int) (model.Settings, error) {
	args := m.Called(ctx, perMinute)
	return args.Get(0).(model.Settings), args.Error(1)
}
