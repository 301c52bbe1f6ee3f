package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Lutefd/logpulse/internal/cache"
	"github.com/Lutefd/logpulse/internal/metrics"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)

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

// scriptedProber answers with the scripted statuses in order, then repeats the last one.
type scriptedProber struct {
	mu     sync.Mutex
	script []model.PingStatus
	calls  int
}

func (p *scriptedProber) Probe(ctx context.Context, url string, timeout time.Duration) model.PingStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := min(p.calls, len(p.script)-1)
	p.calls++
	return p.script[i]
}

type recordingDispatcher struct {
	mu     sync.Mutex
	alerts []model.Alert
}

func (d *recordingDispatcher) Dispatch(project model.Project, alert model.Alert, tags []string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerts = append(d.alerts, alert)
	return len(project.Notify.RecipientsFor(tags))
}

func (d *recordingDispatcher) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.alerts)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.TransitionEvent
}

func (p *recordingPublisher) PublishTransition(ctx context.Context, event model.TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Directions() []model.Direction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Direction, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Direction)
	}
	return out
}

type harness struct {
	store      *repository.MemoryStore
	scheduler  *PingScheduler
	dispatcher *recordingDispatcher
	publisher  *recordingPublisher
	clock      *fakeClock
	project    model.Project
}

func newHarness(t *testing.T, prober Prober, antiSpam int) *harness {
	t.Helper()
	store := repository.NewMemoryStore()
	project := model.Project{
		Name:       "shop",
		CustomTags: []string{"PAYMENT"},
		Notify: model.NotifyPolicy{
			Enabled:          true,
			Recipients:       []model.Recipient{{ID: "ops", Tags: []string{"ERROR"}}},
			AntiSpamInterval: antiSpam,
		},
	}
	project.ApplyDefaults()
	project.Notify.AntiSpamInterval = antiSpam
	require.NoError(t, store.Projects().Create(context.Background(), &project))

	h := &harness{
		store:      store,
		dispatcher: &recordingDispatcher{},
		publisher:  &recordingPublisher{},
		clock:      &fakeClock{now: epoch},
		project:    project,
	}
	h.scheduler = NewPingScheduler(PingSchedulerConfig{
		Pings:        store.Pings(),
		Projects:     store.Projects(),
		Prober:       prober,
		Throttle:     NewThrottle(cache.NewMemoryThrottleStore()),
		Dispatcher:   h.dispatcher,
		Counters:     metrics.NewTestCounters(),
		Publisher:    h.publisher,
		ProbeTimeout: time.Second,
		Now:          h.clock.Now,
		Jitter:       func(time.Duration) time.Duration { return time.Hour },
	})
	return h
}

func (h *harness) addService(t *testing.T, name string) model.PingService {
	t.Helper()
	svc := model.PingService{
		ProjectID: h.project.ID,
		Name:      name,
		URL:       "http://" + name + ".invalid",
		Interval:  60,
		Tags:      []string{"ERROR"},
		CreatedAt: h.clock.Now(),
	}
	require.NoError(t, h.store.Pings().Create(context.Background(), &svc))
	require.NoError(t, h.scheduler.Register(svc))
	return svc
}
