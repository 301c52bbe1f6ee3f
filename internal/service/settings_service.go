package service

import (
	"context"
	"fmt"

	"github.com/Lutefd/logpulse/internal/cache"
	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/Lutefd/logpulse/internal/model"
)

// RateLimitControl is the live ingest limiter.
type RateLimitControl interface {
	PerMinute() int
	SetPerMinute(perMinute int)
}

// SettingsService applies runtime settings to this instance and saves them
// for the others, which pick them up on their next Sync.
type SettingsService struct {
	store   cache.SettingsStore
	limiter RateLimitControl
}

func NewSettingsService(store cache.SettingsStore, limiter RateLimitControl) *SettingsService {
	return &SettingsService{store: store, limiter: limiter}
}

func (s *SettingsService) Get(ctx context.Context) (model.Settings, error) {
	return model.Settings{RateLimitPerMinute: s.limiter.PerMinute()}, nil
}

func (s *SettingsService) SetRateLimit(ctx context.Context, perMinute int) (model.Settings, error) {
	settings := model.Settings{RateLimitPerMinute: perMinute}
	if err := validate.Struct(settings); err != nil {
		return model.Settings{}, fmt.Errorf("%w: %v", model.ErrInvalidSettings, err)
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return model.Settings{}, err
	}
	previous := s.limiter.PerMinute()
	s.limiter.SetPerMinute(perMinute)
	logger.EventWith(model.LogLevelInfo, []string{"SETTINGS"}, map[string]any{
		model.MetadataService: "system-settings",
		model.MetadataExtra:   map[string]any{"previous": previous, "rate_limit_per_minute": perMinute},
	}, "rate limit set to %d requests per minute", perMinute)
	return settings, nil
}

// Sync applies the saved settings, if any, to the local limiter.
func (s *SettingsService) Sync(ctx context.Context) error {
	settings, ok, err := s.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if !ok || settings.RateLimitPerMinute < 1 || settings.RateLimitPerMinute == s.limiter.PerMinute() {
		return nil
	}
	s.limiter.SetPerMinute(settings.RateLimitPerMinute)
	logger.Infof("rate limit synced to %d requests per minute", settings.RateLimitPerMinute)
	return nil
}
