package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lutefd/logpulse/internal/cache"
	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/Lutefd/logpulse/internal/model"
)

var (
	blacklistSettingsTags = []string{"BLACKLIST", "SETTINGS"}
	blacklistSecurityTags = []string{"BLACKLIST", "SECURITY"}
)

type BlacklistService struct {
	store cache.BlacklistStore
	now   func() time.Time
}

func NewBlacklistService(store cache.BlacklistStore) *BlacklistService {
	return &BlacklistService{store: store, now: time.Now}
}

func (s *BlacklistService) Add(ctx context.Context, entry model.BlacklistEntry) (model.BlacklistEntry, error) {
	entry, err := s.prepare(entry)
	if err != nil {
		return model.BlacklistEntry{}, err
	}
	entry.CreatedAt = entry.UpdatedAt
	if err := s.store.PutBlock(ctx, entry, true); err != nil {
		return model.BlacklistEntry{}, err
	}
	s.audit("added IP block %s", entry)
	return entry, nil
}

// Update replaces the reason and expiry of the block on ip.
func (s *BlacklistService) Update(ctx context.Context, ip string, entry model.BlacklistEntry) (model.BlacklistEntry, error) {
	current, err := s.store.GetBlock(ctx, model.NormalizeIP(ip))
	if err != nil {
		return model.BlacklistEntry{}, err
	}
	entry.IP = current.IP
	entry, err = s.prepare(entry)
	if err != nil {
		return model.BlacklistEntry{}, err
	}
	entry.CreatedAt = current.CreatedAt
	if err := s.store.PutBlock(ctx, entry, false); err != nil {
		return model.BlacklistEntry{}, err
	}
	s.audit("updated IP block %s", entry)
	return entry, nil
}

func (s *BlacklistService) Remove(ctx context.Context, ip string) error {
	entry, err := s.store.RemoveBlock(ctx, model.NormalizeIP(ip))
	if err != nil {
		return err
	}
	s.audit("removed IP block %s", entry)
	return nil
}

func (s *BlacklistService) List(ctx context.Context) ([]model.BlacklistEntry, error) {
	return s.store.ListBlocks(ctx)
}

// Check returns the active block on ip, or nil. An expired block found on
// the way is lifted.
func (s *BlacklistService) Check(ctx context.Context, ip string) (*model.BlacklistEntry, error) {
	entry, err := s.store.GetBlock(ctx, model.NormalizeIP(ip))
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if entry.Active(s.now()) {
		return &entry, nil
	}
	s.lift(ctx, entry)
	return nil, nil
}

// Sweep lifts every expired block and reports how many were removed.
func (s *BlacklistService) Sweep(ctx context.Context) (int, error) {
	entries, err := s.store.ListBlocks(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	lifted := 0
	for _, entry := range entries {
		if !entry.Active(now) && s.lift(ctx, entry) {
			lifted++
		}
	}
	return lifted, nil
}

func (s *BlacklistService) lift(ctx context.Context, expired model.BlacklistEntry) bool {
	removed, err := s.store.RemoveBlock(ctx, expired.IP)
	if errors.Is(err, model.ErrNotFound) {
		return false
	}
	if err != nil {
		logger.Warnf("failed to lift expired IP block %s: %v", expired.IP, err)
		return false
	}
	// The block was replaced between the read and the removal.
	if removed.Active(s.now()) {
		if err := s.store.PutBlock(ctx, removed, true); err != nil {
			logger.Warnf("failed to keep IP block %s: %v", removed.IP, err)
		}
		return false
	}
	logger.EventWith(model.LogLevelWarning, blacklistSecurityTags, blockMetadata(removed, "blacklist-cleanup"),
		"automatically lifted IP block %s", removed.IP)
	return true
}

func (s *BlacklistService) prepare(entry model.BlacklistEntry) (model.BlacklistEntry, error) {
	entry.IP = model.NormalizeIP(entry.IP)
	if err := validate.Struct(entry); err != nil {
		return model.BlacklistEntry{}, fmt.Errorf("%w: %v", model.ErrInvalidBlacklist, err)
	}
	if entry.ExpiresAt != nil {
		at := entry.ExpiresAt.UTC()
		entry.ExpiresAt = &at
	}
	entry.UpdatedAt = s.now().UTC()
	return entry, nil
}

func (s *BlacklistService) audit(format string, entry model.BlacklistEntry) {
	logger.EventWith(model.LogLevelInfo, blacklistSettingsTags, blockMetadata(entry, "blacklist-settings"), format, entry.IP)
}

func blockMetadata(entry model.BlacklistEntry, service string) map[string]any {
	return map[string]any{
		model.MetadataIP:      entry.IP,
		model.MetadataService: service,
		model.MetadataExtra:   blockDetails(entry),
	}
}

func blockDetails(entry model.BlacklistEntry) map[string]any {
	var expiresAt any
	if entry.ExpiresAt != nil {
		expiresAt = entry.ExpiresAt.Format(time.RFC3339)
	}
	return map[string]any{"reason": entry.Reason, "expires_at": expiresAt}
}
