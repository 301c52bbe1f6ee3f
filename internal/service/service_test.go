package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Lutefd/logpulse/internal/cache"
	"github.com/Lutefd/logpulse/internal/metrics"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/notifier"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/Lutefd/logpulse/internal/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.May, 14, 9, 30, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type MockWhitelist struct {
	mock.Mock
}

func (m *MockWhitelist) IsAllowed(ctx context.Context, ip string) (bool, error) {
	args := m.Called(ctx, ip)
	return args.Bool(0), args.Error(1)
}

type MockRecordPublisher struct {
	mock.Mock
}

func (m *MockRecordPublisher) PublishRecord(ctx context.Context, record model.LogRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// recordingNotifier counts delivery attempts per alert source.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []model.Alert
}

func (n *recordingNotifier) Send(ctx context.Context, recipient model.Recipient, alert model.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return nil
}

func (n *recordingNotifier) Attempts(source model.AlertSource) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, a := range n.alerts {
		if a.Source == source {
			count++
		}
	}
	return count
}

// failingStore refuses cascades while delegating everything else.
type failingStore struct {
	*repository.MemoryStore
	err error
}

func (s *failingStore) DeleteProjectCascade(ctx context.Context, projectID uuid.UUID) (int, int, error) {
	return 0, 0, s.err
}

// failingPings refuses deletions while delegating everything else.
type failingPings struct {
	repository.PingRepository
	err error
}

func (r *failingPings) Delete(ctx context.Context, id uuid.UUID) error {
	return r.err
}

type failingProber struct{}

func (failingProber) Probe(ctx context.Context, url string, timeout time.Duration) model.PingStatus {
	return model.PingStatusUnreachable
}

// env wires the services over the memory store the way cmd/api does.
type env struct {
	store      repository.Store
	clock      *fakeClock
	notifier   *recordingNotifier
	dispatcher *notifier.Dispatcher
	scheduler  *worker.PingScheduler
	ingest     *IngestService
	logs       *LogService
	pings      *PingService
	projects   *ProjectService
}

func newEnv(t *testing.T, store repository.Store, prober worker.Prober) *env {
	t.Helper()
	clock := &fakeClock{now: epoch}
	counters := metrics.NewTestCounters()
	rec := &recordingNotifier{}
	dispatcher := notifier.NewDispatcher(rec, time.Second, counters)
	throttle := worker.NewThrottle(cache.NewMemoryThrottleStore())

	scheduler := worker.NewPingScheduler(worker.PingSchedulerConfig{
		Pings:        store.Pings(),
		Projects:     store.Projects(),
		Prober:       prober,
		Throttle:     throttle,
		Dispatcher:   dispatcher,
		Counters:     counters,
		ProbeTimeout: time.Second,
		Now:          clock.Now,
		Jitter:       func(time.Duration) time.Duration { return time.Hour },
	})

	e := &env{
		store:      store,
		clock:      clock,
		notifier:   rec,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		ingest: NewIngestService(IngestServiceConfig{
			Projects:   store.Projects(),
			Logs:       store.Logs(),
			Throttle:   throttle,
			Dispatcher: dispatcher,
			Counters:   counters,
			Now:        clock.Now,
		}),
		logs:     NewLogService(store.Projects(), store.Logs()),
		pings:    NewPingService(store.Projects(), store.Pings(), scheduler),
		projects: NewProjectService(store, scheduler),
	}
	e.pings.now = clock.Now
	e.projects.now = clock.Now
	return e
}

func (e *env) createProject(t *testing.T, project model.Project) model.Project {
	t.Helper()
	require.NoError(t, e.projects.Create(context.Background(), &project))
	return project
}

func shopProject(antiSpam int) model.Project {
	return model.Project{
		Name:       "shop",
		CustomTags: []string{"PAYMENT"},
		Notify: model.NotifyPolicy{
			Enabled:          true,
			Recipients:       []model.Recipient{{ID: "ops", Tags: []string{"ERROR"}}},
			AntiSpamInterval: antiSpam,
		},
	}
}

func collect(t *testing.T, e *env, filter model.LogFilter) []model.LogRecord {
	t.Helper()
	seq, err := e.logs.Query(context.Background(), filter)
	require.NoError(t, err)
	var out []model.LogRecord
	for r := range seq {
		out = append(out, r)
	}
	return out
}

// interleavedProjects runs after once, right after the next project read.
type interleavedProjects struct {
	repository.ProjectRepository
	after func()
}

func (r *interleavedProjects) Get(ctx context.Context, id uuid.UUID) (model.Project, error) {
	project, err := r.ProjectRepository.Get(ctx, id)
	if after := r.after; after != nil {
		r.after = nil
		after()
	}
	return project, err
}

// interleavedPings runs the hooks once, right after a successful write.
type interleavedPings struct {
	repository.PingRepository
	afterCreate func()
	afterUpdate func()
}

func (r *interleavedPings) Create(ctx context.Context, svc *model.PingService) error {
	if err := r.PingRepository.Create(ctx, svc); err != nil {
		return err
	}
	if after := r.afterCreate; after != nil {
		r.afterCreate = nil
		after()
	}
	return nil
}

func (r *interleavedPings) Update(ctx context.Context, svc *model.PingService) error {
	if err := r.PingRepository.Update(ctx, svc); err != nil {
		return err
	}
	if after := r.afterUpdate; after != nil {
		r.afterUpdate = nil
		after()
	}
	return nil
}
