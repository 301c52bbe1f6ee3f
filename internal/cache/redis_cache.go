package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	WhitelistKey = "logpulse:whitelist"
	BlacklistKey = "logpulse:blacklist"
	SettingsKey  = "logpulse:settings"

	rateLimitField = "rate_limit_per_minute"
)

// checkAndSetScript stores the firing time in milliseconds. The key expires
// with the window, so an absent key always fires.
var checkAndSetScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if last and (now - tonumber(last)) < window then
	return 0
end
if window > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', window)
end
return 1
`)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) CheckAndSet(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	fired, err := checkAndSetScript.Run(ctx, c.client, []string{key}, now.UnixMilli(), window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to check throttle: %w", err)
	}
	return fired == 1, nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := c.client.Del(ctx, keys...).Err()
	if err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// IsAllowed reports whether ip is a member of the shared whitelist set.
func (c *RedisCache) IsAllowed(ctx context.Context, ip string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, WhitelistKey, ip).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check whitelist: %w", err)
	}
	return ok, nil
}

func (c *RedisCache) Allow(ctx context.Context, ips ...string) error {
	if len(ips) == 0 {
		return nil
	}
	members := make([]any, len(ips))
	for i, ip := range ips {
		members[i] = ip
	}
	if err := c.client.SAdd(ctx, WhitelistKey, members...).Err(); err != nil {
		return fmt.Errorf("failed to update whitelist: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetBlock(ctx context.Context, ip string) (model.BlacklistEntry, error) {
	raw, err := c.client.HGet(ctx, BlacklistKey, ip).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.BlacklistEntry{}, model.ErrBlacklistNotFound
	}
	if err != nil {
		return model.BlacklistEntry{}, fmt.Errorf("failed to read blacklist: %w", err)
	}
	var entry model.BlacklistEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return model.BlacklistEntry{}, fmt.Errorf("failed to decode blacklist entry %s: %w", ip, err)
	}
	return entry, nil
}

func (c *RedisCache) PutBlock(ctx context.Context, entry model.BlacklistEntry, create bool) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode blacklist entry: %w", err)
	}
	if !create {
		if err := c.client.HSet(ctx, BlacklistKey, entry.IP, raw).Err(); err != nil {
			return fmt.Errorf("failed to update blacklist: %w", err)
		}
		return nil
	}
	added, err := c.client.HSetNX(ctx, BlacklistKey, entry.IP, raw).Result()
	if err != nil {
		return fmt.Errorf("failed to update blacklist: %w", err)
	}
	if !added {
		return model.ErrAlreadyBlacklisted
	}
	return nil
}

// RemoveBlock deletes the entry for ip and returns what was stored.
func (c *RedisCache) RemoveBlock(ctx context.Context, ip string) (model.BlacklistEntry, error) {
	entry, err := c.GetBlock(ctx, ip)
	if err != nil {
		return model.BlacklistEntry{}, err
	}
	removed, err := c.client.HDel(ctx, BlacklistKey, ip).Result()
	if err != nil {
		return model.BlacklistEntry{}, fmt.Errorf("failed to update blacklist: %w", err)
	}
	if removed == 0 {
		return model.BlacklistEntry{}, model.ErrBlacklistNotFound
	}
	return entry, nil
}

// ListBlocks returns every entry, newest first.
func (c *RedisCache) ListBlocks(ctx context.Context) ([]model.BlacklistEntry, error) {
	all, err := c.client.HGetAll(ctx, BlacklistKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read blacklist: %w", err)
	}
	entries := make([]model.BlacklistEntry, 0, len(all))
	for ip, raw := range all {
		var entry model.BlacklistEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode blacklist entry %s: %w", ip, err)
		}
		entries = append(entries, entry)
	}
	sortBlocks(entries)
	return entries, nil
}

func (c *RedisCache) LoadSettings(ctx context.Context) (model.Settings, bool, error) {
	limit, err := c.client.HGet(ctx, SettingsKey, rateLimitField).Int()
	if errors.Is(err, redis.Nil) {
		return model.Settings{}, false, nil
	}
	if err != nil {
		return model.Settings{}, false, fmt.Errorf("failed to read settings: %w", err)
	}
	return model.Settings{RateLimitPerMinute: limit}, true, nil
}

func (c *RedisCache) SaveSettings(ctx context.Context, settings model.Settings) error {
	if err := c.client.HSet(ctx, SettingsKey, rateLimitField, settings.RateLimitPerMinute).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
