package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sonaguard/sonaguard/internal/config"
	"github.com/sonaguard/sonaguard/internal/metrics"
	"github.com/sonaguard/sonaguard/internal/model"
	"github.com/sonaguard/sonaguard/internal/store"
)

const keyPrefix = "res:"

// ResultCache maps a content fingerprint to a previously computed verdict.
// It runs two tiers: a small in-process expirable LRU in front of the
// shared KV store. Both Get and Put degrade to Miss/no-op when the store
// is unreachable; a cache outage means "always compute", never an error.
type ResultCache struct {
	kv    store.KV
	local *expirable.LRU[string, *model.CacheEntry]
	ttl   time.Duration
}

func New(kv store.KV, cfg config.CacheConfig) *ResultCache {
	local := expirable.NewLRU[string, *model.CacheEntry](
		cfg.LocalSize, nil, time.Duration(cfg.LocalTTLSeconds)*time.Second)
	return &ResultCache{
		kv:    kv,
		local: local,
		ttl:   time.Duration(cfg.TTLSeconds) * time.Second,
	}
}

// Get returns the cached entry for fingerprint, or (nil, false) on miss.
// An entry written by an older model version is treated as a miss so a
// redeployed classifier never serves stale verdicts.
func (c *ResultCache) Get(ctx context.Context, fingerprint, modelVersion string) (*model.CacheEntry, bool) {
	if entry, ok := c.local.Get(fingerprint); ok {
		if entry.ModelVersion == modelVersion {
			metrics.CacheLookups.WithLabelValues("hit_local").Inc()
			return entry, true
		}
		c.local.Remove(fingerprint)
	}
	if c.kv == nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	raw, found, err := c.kv.Get(ctx, keyPrefix+fingerprint)
	if err != nil {
		logutil.GetLogger(ctx).Warn("cache read failed, treating as miss", zap.Error(err))
		metrics.StoreFailOpen.WithLabelValues("cache").Inc()
		return nil, false
	}
	if !found {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	var entry model.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		logutil.GetLogger(ctx).Warn("cache entry corrupt, treating as miss", zap.Error(err))
		return nil, false
	}
	if entry.ModelVersion != modelVersion {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	c.local.Add(fingerprint, &entry)
	metrics.CacheLookups.WithLabelValues("hit_store").Inc()
	return &entry, true
}

// Put writes the entry through both tiers, best effort. Store failures are
// logged and dropped; the caller already holds the computed result.
func (c *ResultCache) Put(ctx context.Context, fingerprint string, entry *model.CacheEntry) {
	c.local.Add(fingerprint, entry)
	if c.kv == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		logutil.GetLogger(ctx).Warn("cache entry encode failed", zap.Error(err))
		return
	}
	if err := c.kv.SetWithTTL(ctx, keyPrefix+fingerprint, string(raw), c.ttl); err != nil {
		logutil.GetLogger(ctx).Warn("cache store failed", zap.Error(err))
		metrics.StoreFailOpen.WithLabelValues("cache").Inc()
	}
}
