// Package cache provides an optional Redis read-through layer in front of
// position lookups. Position reads are a point-in-time best-effort join, so a
// short-TTL cache is semantically safe; a cache entry holds one whole snapshot
// row, never fields from two different as-of timestamps.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantrail/pnlpulse/internal/domain/models"
	"github.com/quantrail/pnlpulse/internal/logger"
)

// PositionLookup is the slice of the repository the cache fronts.
type PositionLookup interface {
	LookupPosition(ctx context.Context, accountID, symbol string) (*models.Position, error)
}

// PositionCache caches position snapshots by (account, symbol) with a TTL.
// Redis failures degrade to direct lookups; the cache never turns a working
// position store into an unavailable one.
type PositionCache struct {
	rdb  *redis.Client
	next PositionLookup
	ttl  time.Duration
}

func NewPositionCache(rdb *redis.Client, next PositionLookup, ttl time.Duration) *PositionCache {
	return &PositionCache{rdb: rdb, next: next, ttl: ttl}
}

func (c *PositionCache) key(accountID, symbol string) string {
	return fmt.Sprintf("pnlpulse:pos:%s:%s", accountID, symbol)
}

// LookupPosition serves from Redis when possible and falls back to the
// underlying store, populating the cache on the way out. Only found rows are
// cached; a missing position is cheap to re-answer from Postgres.
func (c *PositionCache) LookupPosition(ctx context.Context, accountID, symbol string) (*models.Position, error) {
	key := c.key(accountID, symbol)

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var pos models.Position
		if jsonErr := json.Unmarshal([]byte(raw), &pos); jsonErr == nil {
			return &pos, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		_ = c.rdb.Del(ctx, key).Err()
	case err != redis.Nil:
		logger.L().Warn().Err(err).Str("key", key).Msg("position cache unavailable, falling back")
	}

	pos, err := c.next.LookupPosition(ctx, accountID, symbol)
	if err != nil || pos == nil {
		return pos, err
	}

	if b, jsonErr := json.Marshal(pos); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, b, c.ttl).Err(); setErr != nil {
			logger.L().Debug().Err(setErr).Str("key", key).Msg("position cache set failed")
		}
	}
	return pos, nil
}

// Invalidate removes a cached snapshot, e.g. after a fixture reload.
func (c *PositionCache) Invalidate(ctx context.Context, accountID, symbol string) error {
	return c.rdb.Del(ctx, c.key(accountID, symbol)).Err()
}
