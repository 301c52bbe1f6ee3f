package worker

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/Lutefd/logpulse/internal/metrics"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type TransitionPublisher interface {
	PublishTransition(ctx context.Context, event model.TransitionEvent) error
}

type AlertDispatcher interface {
	Dispatch(project model.Project, alert model.Alert, tags []string) int
}

type PingSchedulerConfig struct {
	Pings      repository.PingRepository
	Projects   repository.ProjectRepository
	Prober     Prober
	Throttle   *Throttle
	Dispatcher AlertDispatcher
	Counters   *metrics.Counters
	// Publisher is optional.
	Publisher    TransitionPublisher
	ProbeTimeout time.Duration
	// Now and Jitter default to the wall clock and a uniform offset in [0, interval).
	Now    func() time.Time
	Jitter func(interval time.Duration) time.Duration
}

type pingEntry struct {
	mu      sync.Mutex
	svc     model.PingService
	cronID  cron.EntryID
	removed bool
}

// PingScheduler polls every registered ping service on its own cadence.
// Each service is one cron entry; results of a service are applied one at a
// time under its entry lock, and never after the entry was removed.
type PingScheduler struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*pingEntry

	// closed holds projects whose services were taken down for deletion;
	// nothing of theirs is armed again unless the deletion is rolled back.
	closed map[uuid.UUID]struct{}
	cron   *cron.Cron
	cfg    PingSchedulerConfig
}

func NewPingScheduler(cfg PingSchedulerConfig) *PingScheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Jitter == nil {
		cfg.Jitter = randomJitter
	}
	cronLogger := logger.CronLogger()
	return &PingScheduler{
		entries: make(map[uuid.UUID]*pingEntry),
		closed:  make(map[uuid.UUID]struct{}),
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		cfg: cfg,
	}
}

func randomJitter(interval time.Duration) time.Duration {
	if interval <= 0 {
		return 0
	}
	return rand.N(interval)
}

// jitteredSchedule fires once at first, then every interval after each run.
type jitteredSchedule struct {
	first time.Time
	every time.Duration
}

func (s jitteredSchedule) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	return t.Add(s.every)
}

// Start arms every stored ping service and starts polling until ctx is done.
func (s *PingScheduler) Start(ctx context.Context) error {
	services, err := s.cfg.Pings.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ping services: %w", err)
	}
	s.mu.Lock()
	for _, svc := range services {
		s.armLocked(svc)
	}
	s.mu.Unlock()

	s.cron.Start()
	logger.Infof("ping scheduler started with %d services", len(services))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for running polls to finish.
func (s *PingScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Register arms svc, replacing any previous entry for the same id. It fails
// with ErrProjectNotFound once the project's services were deregistered.
func (s *PingScheduler) Register(svc model.PingService) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.closed[svc.ProjectID]; ok {
		return model.ErrProjectNotFound
	}
	s.armLocked(svc)
	return nil
}

func (s *PingScheduler) armLocked(svc model.PingService) {
	if old, ok := s.entries[svc.ID]; ok {
		s.removeLocked(old)
	}

	e := &pingEntry{svc: svc.Clone()}
	every := svc.Every()
	schedule := jitteredSchedule{first: s.cfg.Now().Add(s.cfg.Jitter(every)), every: every}
	e.cronID = s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.poll(context.Background(), e)
	}))
	s.entries[svc.ID] = e
}

// Reschedule applies a changed definition; pending results of the old one are
// discarded. It reports false when the service is no longer armed.
func (s *PingScheduler) Reschedule(svc model.PingService) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[svc.ID]; !ok {
		return false
	}
	s.armLocked(svc)
	log.Debugf("ping service %s rescheduled every %s", svc.ID, svc.Every())
	return true
}

// Deregister removes the service and returns its last definition.
func (s *PingScheduler) Deregister(id uuid.UUID) (model.PingService, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return model.PingService{}, false
	}
	s.removeLocked(e)
	return e.svc.Clone(), true
}

// DeregisterProject removes every service of a project and returns their
// definitions so a failed deletion can Restore them.
func (s *PingScheduler) DeregisterProject(projectID uuid.UUID) []model.PingService {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed[projectID] = struct{}{}
	var removed []model.PingService
	for _, e := range s.entries {
		if e.svc.ProjectID == projectID {
			s.removeLocked(e)
			removed = append(removed, e.svc.Clone())
		}
	}
	return removed
}

// Restore reopens a project after a failed deletion and arms its services again.
func (s *PingScheduler) Restore(projectID uuid.UUID, services []model.PingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.closed, projectID)
	for _, svc := range services {
		s.armLocked(svc)
	}
}

// Forget releases the throttle state of services that are gone for good.
func (s *PingScheduler) Forget(ctx context.Context, ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	if err := s.cfg.Throttle.Forget(ctx, ids...); err != nil {
		logger.Errorf("failed to release throttle state: %v", err)
	}
}

func (s *PingScheduler) removeLocked(e *pingEntry) {
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()

	s.cron.Remove(e.cronID)
	delete(s.entries, e.svc.ID)
}

func (s *PingScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *PingScheduler) Registered(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// TriggerProject polls every registered service of a project now, in
// parallel, and returns the resulting snapshot. Cron cadence is unaffected.
// Probes are bounded by the probe timeout only; a caller that goes away does
// not turn a healthy target unreachable.
func (s *PingScheduler) TriggerProject(ctx context.Context, projectID uuid.UUID) ([]model.PingService, error) {
	services, err := s.cfg.Pings.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	entries := make([]*pingEntry, 0, len(services))
	for _, svc := range services {
		if e, ok := s.entries[svc.ID]; ok {
			entries = append(entries, e)
		}
	}
	s.mu.Unlock()

	pollCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.poll(pollCtx, e)
		}()
	}
	wg.Wait()

	return s.cfg.Pings.ListByProject(ctx, projectID)
}

func (s *PingScheduler) poll(ctx context.Context, e *pingEntry) {
	e.mu.Lock()
	svc, removed := e.svc, e.removed
	e.mu.Unlock()
	if removed {
		return
	}

	status := s.cfg.Prober.Probe(ctx, svc.URL, ProbeTimeout(s.cfg.ProbeTimeout, svc.Every()))
	s.apply(ctx, e, status)
}

func (s *PingScheduler) apply(ctx context.Context, e *pingEntry, status model.PingStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		log.Debugf("discarding poll result of removed ping service %s", e.svc.ID)
		return
	}

	current, err := s.cfg.Pings.Get(ctx, e.svc.ID)
	if err != nil {
		logger.Errorf("failed to load ping service %s: %v", e.svc.ID, err)
		return
	}

	now := s.cfg.Now()
	changed := current.Status != status
	if err := s.cfg.Pings.UpdateStatus(ctx, current.ID, status, now, changed); err != nil {
		logger.Errorf("failed to store status of ping service %s: %v", current.ID, err)
		return
	}
	s.cfg.Counters.PingChecks.Inc(string(status))

	dir, ok := model.Transition(current.Status, status)
	if !ok {
		return
	}
	s.onTransition(ctx, current, model.TransitionEvent{
		ProjectID:   current.ProjectID,
		ServiceID:   current.ID,
		ServiceName: current.Name,
		URL:         current.URL,
		From:        current.Status,
		To:          status,
		Direction:   dir,
		At:          now,
	})
}

func (s *PingScheduler) onTransition(ctx context.Context, svc model.PingService, event model.TransitionEvent) {
	s.cfg.Counters.PingTransitions.Inc(string(event.Direction))

	level := model.LogLevelWarning
	if event.Direction == model.DirectionBecameReachable {
		level = model.LogLevelInfo
	}
	logger.Event(level, []string{"PING", "MONITOR"}, "ping service %s (%s) changed from %s to %s",
		svc.Name, svc.URL, event.From, event.To)

	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.PublishTransition(ctx, event); err != nil {
			log.Errorf("failed to publish transition of %s: %v", svc.ID, err)
		}
	}

	project, err := s.cfg.Projects.Get(ctx, svc.ProjectID)
	if err != nil {
		logger.Errorf("failed to load project %s for ping alert: %v", svc.ProjectID, err)
		return
	}

	fire, err := s.cfg.Throttle.ShouldNotify(ctx, project, svc.ID, event.Direction, event.At)
	if err != nil {
		logger.Errorf("failed to check notification throttle for %s: %v", svc.ID, err)
		return
	}
	if !fire {
		log.Debugf("notification for %s %s suppressed", svc.ID, event.Direction)
		return
	}

	s.cfg.Dispatcher.Dispatch(project, model.NewPingAlert(project, event, svc.Tags), svc.Tags)
}
