package cache

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
)

type MemoryThrottleStore struct {
	mu    sync.Mutex
	fired map[string]time.Time
}

func NewMemoryThrottleStore() *MemoryThrottleStore {
	return &MemoryThrottleStore{fired: make(map[string]time.Time)}
}

func (s *MemoryThrottleStore) CheckAndSet(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.fired[key]; ok && now.Sub(last) < window {
		return false, nil
	}
	s.fired[key] = now
	return true, nil
}

func (s *MemoryThrottleStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.fired, k)
	}
	return nil
}

func (s *MemoryThrottleStore) Close() error {
	return nil
}

type MemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]model.BlacklistEntry
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]model.BlacklistEntry)}
}

func (b *MemoryBlacklist) GetBlock(ctx context.Context, ip string) (model.BlacklistEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.entries[ip]
	if !ok {
		return model.BlacklistEntry{}, model.ErrBlacklistNotFound
	}
	return entry, nil
}

func (b *MemoryBlacklist) PutBlock(ctx context.Context, entry model.BlacklistEntry, create bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[entry.IP]; ok && create {
		return model.ErrAlreadyBlacklisted
	}
	b.entries[entry.IP] = entry
	return nil
}

func (b *MemoryBlacklist) RemoveBlock(ctx context.Context, ip string) (model.BlacklistEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.entries[ip]
	if !ok {
		return model.BlacklistEntry{}, model.ErrBlacklistNotFound
	}
	delete(b.entries, ip)
	return entry, nil
}

func (b *MemoryBlacklist) ListBlocks(ctx context.Context) ([]model.BlacklistEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries := make([]model.BlacklistEntry, 0, len(b.entries))
	for _, entry := range b.entries {
		entries = append(entries, entry)
	}
	sortBlocks(entries)
	return entries, nil
}

func sortBlocks(entries []model.BlacklistEntry) {
	slices.SortFunc(entries, func(a, b model.BlacklistEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.IP, b.IP)
	})
}

type MemorySettings struct {
	mu       sync.Mutex
	settings *model.Settings
}

func NewMemorySettings() *MemorySettings {
	return &MemorySettings{}
}

func (s *MemorySettings) LoadSettings(ctx context.Context) (model.Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return model.Settings{}, false, nil
	}
	return *s.settings, true, nil
}

func (s *MemorySettings) SaveSettings(ctx context.Context, settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}
