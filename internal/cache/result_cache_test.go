package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/sonaguard/sonaguard/internal/config"
	"github.com/sonaguard/sonaguard/internal/model"
	"github.com/sonaguard/sonaguard/internal/store"
)

func newTestStore(t *testing.T) (store.KV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	kv, err := store.NewRedis(config.RedisConfig{Addr: mr.Addr(), IOTimeoutMS: 500})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv, mr
}

func testEntry(version string) *model.CacheEntry {
	return &model.CacheEntry{
		Classification: model.ClassificationAI,
		Confidence:     0.9321,
		Explanation:    "test explanation",
		ModelVersion:   version,
		CachedAt:       time.Now().Unix(),
	}
}

func TestResultCache_ReadAfterWrite(t *testing.T) {
	kv, _ := newTestStore(t)
	c := New(kv, config.CacheConfig{TTLSeconds: 300, LocalSize: 16, LocalTTLSeconds: 60})
	ctx := context.Background()

	fp := Fingerprint([]byte("audio"), "English")
	_, ok := c.Get(ctx, fp, "v1")
	require.False(t, ok)

	want := testEntry("v1")
	c.Put(ctx, fp, want)

	got, ok := c.Get(ctx, fp, "v1")
	require.True(t, ok)
	require.Equal(t, want.Classification, got.Classification)
	require.Equal(t, want.Confidence, got.Confidence)
	require.Equal(t, want.Explanation, got.Explanation)
}

func TestResultCache_SharedStoreAcrossInstances(t *testing.T) {
	kv, _ := newTestStore(t)
	cfg := config.CacheConfig{TTLSeconds: 300, LocalSize: 16, LocalTTLSeconds: 60}
	writer := New(kv, cfg)
	reader := New(kv, cfg)
	ctx := context.Background()

	fp := Fingerprint([]byte("audio"), "English")
	writer.Put(ctx, fp, testEntry("v1"))

	// The reader has a cold local tier, so the hit must come from the store.
	got, ok := reader.Get(ctx, fp, "v1")
	require.True(t, ok)
	require.Equal(t, model.ClassificationAI, got.Classification)
}

func TestResultCache_ModelVersionMismatchIsMiss(t *testing.T) {
	kv, _ := newTestStore(t)
	cfg := config.CacheConfig{TTLSeconds: 300, LocalSize: 16, LocalTTLSeconds: 60}
	c := New(kv, cfg)
	ctx := context.Background()

	fp := Fingerprint([]byte("audio"), "English")
	c.Put(ctx, fp, testEntry("v1"))

	_, ok := c.Get(ctx, fp, "v2")
	require.False(t, ok, "entry from an older model version must not be served")

	// Same check through the store tier only.
	cold := New(kv, cfg)
	_, ok = cold.Get(ctx, fp, "v2")
	require.False(t, ok)
}

func TestResultCache_StoreOutageIsMiss(t *testing.T) {
	kv, mr := newTestStore(t)
	cfg := config.CacheConfig{TTLSeconds: 300, LocalSize: 16, LocalTTLSeconds: 60}
	writer := New(kv, cfg)
	ctx := context.Background()

	fp := Fingerprint([]byte("audio"), "English")
	writer.Put(ctx, fp, testEntry("v1"))

	mr.Close()

	cold := New(kv, cfg)
	_, ok := cold.Get(ctx, fp, "v1")
	require.False(t, ok, "store outage must degrade to miss, not error")

	// Writes during an outage must not panic or block the caller.
	cold.Put(ctx, Fingerprint([]byte("other"), "English"), testEntry("v1"))
}

func TestResultCache_CorruptStoreEntryIsMiss(t *testing.T) {
	kv, mr := newTestStore(t)
	c := New(kv, config.CacheConfig{TTLSeconds: 300, LocalSize: 16, LocalTTLSeconds: 60})

	fp := Fingerprint([]byte("audio"), "English")
	require.NoError(t, mr.Set(keyPrefix+fp, "{not json"))

	_, ok := c.Get(context.Background(), fp, "v1")
	require.False(t, ok)
}

func TestResultCache_NilStoreLocalTierOnly(t *testing.T) {
	c := New(nil, config.CacheConfig{TTLSeconds: 300, LocalSize: 16, LocalTTLSeconds: 60})
	ctx := context.Background()

	fp := Fingerprint([]byte("audio"), "English")
	_, ok := c.Get(ctx, fp, "v1")
	require.False(t, ok)

	c.Put(ctx, fp, testEntry("v1"))
	got, ok := c.Get(ctx, fp, "v1")
	require.True(t, ok)
	require.Equal(t, model.ClassificationAI, got.Classification)
}
