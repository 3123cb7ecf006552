package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sonaguard/sonaguard/internal/config"
	"github.com/sonaguard/sonaguard/internal/metrics"
	appErr "github.com/sonaguard/sonaguard/internal/pkg/errors"
	"github.com/sonaguard/sonaguard/internal/store"
)

// Limiter counts requests per credential per fixed time window against the
// shared KV store. When the store is unreachable it fails open: blocking
// all traffic because a side dependency died is worse than briefly not
// limiting.
type Limiter struct {
	kv        store.KV
	perWindow int64
	window    time.Duration
	expiry    time.Duration
	now       func() time.Time
}

func New(kv store.KV, cfg config.RateLimitConfig) *Limiter {
	window := time.Duration(cfg.WindowSeconds) * time.Second
	return &Limiter{
		kv:        kv,
		perWindow: int64(cfg.PerWindow),
		window:    window,
		// Counter keys outlive the window by a buffer so a read racing the
		// boundary never sees a prematurely reclaimed key.
		expiry: window + time.Duration(cfg.ExpiryBufferSeconds)*time.Second,
		now:    time.Now,
	}
}

// CheckAndConsume atomically increments the caller's counter for the
// current window and compares it against the ceiling. Returns
// appErr.ErrTooMany when the post-increment count exceeds the ceiling.
func (l *Limiter) CheckAndConsume(ctx context.Context, credential string) error {
	if l.kv == nil {
		return nil
	}
	windowID := l.now().Unix() / int64(l.window/time.Second)
	key := fmt.Sprintf("rl:%s:%d", credential, windowID)

	count, err := l.kv.IncrWithTTL(ctx, key, l.expiry)
	if err != nil {
		logutil.GetLogger(ctx).Warn("rate limit store unavailable, failing open", zap.Error(err))
		metrics.StoreFailOpen.WithLabelValues("ratelimit").Inc()
		return nil
	}
	if count > l.perWindow {
		logutil.GetLogger(ctx).Warn("rate limit exceeded",
			zap.String("credential", mask(credential)),
			zap.Int64("count", count),
			zap.Int64("ceiling", l.perWindow),
		)
		metrics.RateLimitHits.Inc()
		return appErr.ErrTooMany
	}
	return nil
}

func mask(credential string) string {
	if len(credential) <= 4 {
		return "****"
	}
	return credential[:4] + "..."
}
