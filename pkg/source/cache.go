package source

import (
	"context"
	"fmt"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/dgraph-io/ristretto/v2"
)

// CacheConfig holds the configuration for CachedFetcher.
type CacheConfig struct {
	// TTL is how long fetched records stay cached.
	// Default: 30 seconds.
	TTL time.Duration

	// MaxCost caps the cache size, counted in records.
	// Default: 1,000,000.
	MaxCost int64
}

// CachedFetcher serves repeated fetches of a group from memory.
//
// Only successful fetches are cached.
type CachedFetcher struct {
	next   orchestrator.Fetcher
	cache  *ristretto.Cache[string, []bucket.Record]
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedFetcher wraps next with a TTL cache keyed by group id.
func NewCachedFetcher(next orchestrator.Fetcher, cfg CacheConfig, log logger.Logger) (*CachedFetcher, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 1_000_000
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, []bucket.Record]{
		NumCounters: cfg.MaxCost * 10,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create record cache: %w", err)
	}

	return &CachedFetcher{
		next:   next,
		cache:  c,
		ttl:    cfg.TTL,
		logger: log,
	}, nil
}

// FetchRecords implements orchestrator.Fetcher.
func (c *CachedFetcher) FetchRecords(ctx context.Context, groupID string) ([]bucket.Record, error) {
	if records, ok := c.cache.Get(groupID); ok {
		c.logger.Debug("record cache hit", "group", groupID)
		return append([]bucket.Record{}, records...), nil
	}

	records, err := c.next.FetchRecords(ctx, groupID)
	if err != nil {
		return nil, err
	}

	stored := append([]bucket.Record{}, records...)
	c.cache.SetWithTTL(groupID, stored, int64(len(stored))+1, c.ttl)
	c.cache.Wait()

	return records, nil
}

// Invalidate drops the cached records of one group.
func (c *CachedFetcher) Invalidate(groupID string) {
	c.cache.Del(groupID)
}

// Clear drops every cached group.
func (c *CachedFetcher) Clear() {
	c.cache.Clear()
}

// Close releases the cache.
func (c *CachedFetcher) Close() {
	c.cache.Close()
}
