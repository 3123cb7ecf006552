package job

import (
	"context"
	"sync/atomic"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sonaguard/sonaguard/internal/store"
)

// StoreHealthJob periodically pings the cache/rate-limit backing store and
// logs availability transitions. The serving path fails open silently per
// request; this job is what makes a prolonged outage visible.
type StoreHealthJob struct {
	kv store.KV
	up atomic.Bool
}

func NewStoreHealthJob(kv store.KV) *StoreHealthJob {
	j := &StoreHealthJob{kv: kv}
	j.up.Store(true)
	return j
}

func (j *StoreHealthJob) Name() string {
	return "store_health"
}

func (j *StoreHealthJob) Run(ctx context.Context) error {
	if j.kv == nil {
		return nil
	}
	err := j.kv.Ping(ctx)
	wasUp := j.up.Load()
	if err != nil {
		j.up.Store(false)
		if wasUp {
			logutil.GetLogger(ctx).Warn("backing store went down, cache disabled and rate limiting failing open", zap.Error(err))
		}
		return nil
	}
	j.up.Store(true)
	if !wasUp {
		logutil.GetLogger(ctx).Info("backing store recovered")
	}
	return nil
}
