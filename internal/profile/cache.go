package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// KeyPrefix namespaces cached profiles in the KV store.
const KeyPrefix = "workly:profile:"

// Cache is a best-effort mirror of the signed-in user's profile. It never
// returns errors; a failed read is a miss and failed writes are dropped.
type Cache struct {
	kv     KV
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(kv KV, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{kv: kv, ttl: ttl, logger: logger}
}

func cacheKey(userID string) string {
	return KeyPrefix + userID
}

// Load returns the cached profile or nil.
func (c *Cache) Load(ctx context.Context, userID string) *Profile {
	raw, err := c.kv.Get(ctx, cacheKey(userID))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Debug("profile cache read failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		}
		return nil
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		c.logger.Debug("profile cache entry unreadable", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil
	}
	return &p
}

// Save stores p under userID.
func (c *Cache) Save(ctx context.Context, userID string, p *Profile) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, cacheKey(userID), string(b), c.ttl); err != nil {
		c.logger.Debug("profile cache write failed", slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}

// Clear drops the cached profile for userID.
func (c *Cache) Clear(ctx context.Context, userID string) {
	if err := c.kv.Del(ctx, cacheKey(userID)); err != nil {
		c.logger.Debug("profile cache clear failed", slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}
