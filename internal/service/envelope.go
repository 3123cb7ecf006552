package service

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sonaguard/sonaguard/internal/config"
	"github.com/sonaguard/sonaguard/internal/model"
	appErr "github.com/sonaguard/sonaguard/internal/pkg/errors"
)

type pipelineFunc func(ctx context.Context) (*model.CacheEntry, error)

// envelope runs CPU-bound pipeline work on a bounded worker pool, capping
// concurrent analyses independently of concurrent connections, and caps
// each run's caller-visible latency at the configured deadline.
type envelope struct {
	sem      *semaphore.Weighted
	deadline time.Duration
}

func newEnvelope(cfg config.PipelineConfig) *envelope {
	return &envelope{
		sem:      semaphore.NewWeighted(int64(cfg.MaxWorkers)),
		deadline: time.Duration(cfg.DeadlineMS) * time.Millisecond,
	}
}

type outcome struct {
	entry *model.CacheEntry
	err   error
}

// run executes fn on the pool and waits for completion or the deadline,
// whichever comes first. On deadline the caller gets ErrTimeout promptly;
// the worker is abandoned, not killed. It keeps its pool slot until it
// finishes, and fn is written so a late completion only touches the cache
// and metrics, never another request's state.
func (e *envelope) run(ctx context.Context, fn pipelineFunc) (*model.CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, appErr.ErrTimeout
	}

	done := make(chan outcome, 1)
	go func() {
		defer e.sem.Release(1)
		// The worker deliberately outlives the deadline: cancelling
		// mid-extraction buys nothing once the caller is gone, and a
		// completed result is still worth caching for the next request.
		entry, err := fn(context.WithoutCancel(ctx))
		done <- outcome{entry: entry, err: err}
	}()

	select {
	case out := <-done:
		return out.entry, out.err
	case <-ctx.Done():
		return nil, appErr.ErrTimeout
	}
}
