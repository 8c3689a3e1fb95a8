package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"github.com/ikkim/bizdir-backend/pkg/redis"
)

const (
	cacheGenerationKey = "listings:gen"
	cacheSnapshotKey   = "listings:approved:v%d"
	cacheFeedKey       = "listings:feed:v%d:%016x"
)

// SnapshotStore is the byte store behind ListingCache; *redis.Store implements it.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// ListingCache memoizes the approved snapshot and per-filter home feeds.
// Every write that can change public output calls Invalidate, which bumps a
// generation counter so stale keys are never read again and expire by TTL.
// A nil store disables caching.
type ListingCache struct {
	store SnapshotStore
	ttl   time.Duration
}

func NewListingCache(store SnapshotStore, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ListingCache{store: store, ttl: ttl}
}

// NewRedisListingCache uses the shared Redis client, or disables caching when
// Redis is not configured.
func NewRedisListingCache(ttl time.Duration) *ListingCache {
	if store := redis.NewStore(); store != nil {
		return NewListingCache(store, ttl)
	}
	return NewListingCache(nil, ttl)
}

func (c *ListingCache) Enabled() bool {
	return c != nil && c.store != nil
}

func (c *ListingCache) generation(ctx context.Context) (int64, error) {
	b, err := c.store.Get(ctx, cacheGenerationKey)
	if errors.Is(err, redis.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(b), 10, 64)
}

// FilterKey hashes the normalized filter into a stable cache key component.
func FilterKey(f directory.Filter) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("k=%s\x00c=%s\x00t=%s\x00r=%d", f.Keyword, f.Category, f.City, f.MinRating))
}

// Snapshot returns the cached approved listings or loads and stores them.
func (c *ListingCache) Snapshot(ctx context.Context, load func() ([]directory.Listing, error)) ([]directory.Listing, error) {
	var out []directory.Listing
	err := c.through(ctx, func(gen int64) string { return fmt.Sprintf(cacheSnapshotKey, gen) }, &out, func() (interface{}, error) {
		listings, err := load()
		if err != nil {
			return nil, err
		}
		out = listings
		return listings, nil
	})
	return out, err
}

// Feed returns the cached home feed for f or builds and stores it.
func (c *ListingCache) Feed(ctx context.Context, f directory.Filter, build func() (*HomeFeed, error)) (*HomeFeed, error) {
	var out *HomeFeed
	key := FilterKey(f)
	err := c.through(ctx, func(gen int64) string { return fmt.Sprintf(cacheFeedKey, gen, key) }, &out, func() (interface{}, error) {
		feed, err := build()
		if err != nil {
			return nil, err
		}
		out = feed
		return feed, nil
	})
	return out, err
}

// through is a read-through helper. Cache errors never fail the request.
func (c *ListingCache) through(ctx context.Context, keyFor func(gen int64) string, dest interface{}, load func() (interface{}, error)) error {
	if !c.Enabled() {
		_, err := load()
		return err
	}

	gen, err := c.generation(ctx)
	if err != nil {
		logger.Warn("Listing cache unavailable, reading from database", map[string]interface{}{
			"error": err.Error(),
		})
		_, err := load()
		return err
	}
	key := keyFor(gen)

	if b, err := c.store.Get(ctx, key); err == nil {
		if err := json.Unmarshal(b, dest); err == nil {
			return nil
		}
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		logger.Warn("Listing cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	v, err := load()
	if err != nil {
		return err
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		logger.Warn("Listing cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return nil
}

// Invalidate drops every cached snapshot and feed.
func (c *ListingCache) Invalidate(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if _, err := c.store.Incr(ctx, cacheGenerationKey); err != nil {
		logger.Warn("Failed to invalidate listing cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
