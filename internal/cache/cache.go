package cache

import (
	"context"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
)

// ThrottleStore remembers when a key last fired.
type ThrottleStore interface {
	// CheckAndSet reports whether key may fire at now, that is when it never
	// fired or its last firing is at least window old, and records now if so.
	CheckAndSet(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// BlacklistStore keeps blacklist entries keyed by their normalized IP.
type BlacklistStore interface {
	GetBlock(ctx context.Context, ip string) (model.BlacklistEntry, error)
	// PutBlock stores entry. With create set it fails with
	// model.ErrAlreadyBlacklisted when the IP is already present.
	PutBlock(ctx context.Context, entry model.BlacklistEntry, create bool) error
	RemoveBlock(ctx context.Context, ip string) (model.BlacklistEntry, error)
	ListBlocks(ctx context.Context) ([]model.BlacklistEntry, error)
}

// SettingsStore persists the runtime settings shared by every instance.
type SettingsStore interface {
	// LoadSettings reports false when nothing was saved yet.
	LoadSettings(ctx context.Context) (model.Settings, bool, error)
	SaveSettings(ctx context.Context, settings model.Settings) error
}
