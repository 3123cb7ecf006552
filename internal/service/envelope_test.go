package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sonaguard/sonaguard/internal/config"
	"github.com/sonaguard/sonaguard/internal/model"
	appErr "github.com/sonaguard/sonaguard/internal/pkg/errors"
)

func TestEnvelope_Success(t *testing.T) {
	env := newEnvelope(config.PipelineConfig{DeadlineMS: 1000, MaxWorkers: 2})
	want := &model.CacheEntry{Classification: model.ClassificationHuman}

	got, err := env.run(context.Background(), func(ctx context.Context) (*model.CacheEntry, error) {
		return want, nil
	})
	require.NoError(t, err)
	require.Same(t, want, got)
}

func TestEnvelope_PropagatesPipelineError(t *testing.T) {
	env := newEnvelope(config.PipelineConfig{DeadlineMS: 1000, MaxWorkers: 2})
	wantErr := fmt.Errorf("pipeline broke")

	_, err := env.run(context.Background(), func(ctx context.Context) (*model.CacheEntry, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestEnvelope_PromptTimeout(t *testing.T) {
	env := newEnvelope(config.PipelineConfig{DeadlineMS: 50, MaxWorkers: 2})

	start := time.Now()
	_, err := env.run(context.Background(), func(ctx context.Context) (*model.CacheEntry, error) {
		time.Sleep(2 * time.Second)
		return &model.CacheEntry{}, nil
	})
	require.ErrorIs(t, err, appErr.ErrTimeout)
	require.Less(t, time.Since(start), 500*time.Millisecond,
		"caller must get the timeout at the deadline, not at worker completion")
}

func TestEnvelope_AbandonedWorkerStillCompletes(t *testing.T) {
	env := newEnvelope(config.PipelineConfig{DeadlineMS: 50, MaxWorkers: 2})
	workerCtxErr := make(chan error, 1)

	_, err := env.run(context.Background(), func(ctx context.Context) (*model.CacheEntry, error) {
		time.Sleep(200 * time.Millisecond)
		workerCtxErr <- ctx.Err()
		return &model.CacheEntry{}, nil
	})
	require.ErrorIs(t, err, appErr.ErrTimeout)

	select {
	case ctxErr := <-workerCtxErr:
		// The worker context must not be cancelled by the deadline.
		require.NoError(t, ctxErr)
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned worker never ran to completion")
	}
}

func TestEnvelope_PoolBoundsConcurrency(t *testing.T) {
	env := newEnvelope(config.PipelineConfig{DeadlineMS: 100, MaxWorkers: 1})

	release := make(chan struct{})
	occupied := make(chan struct{})
	go func() {
		_, _ = env.run(context.Background(), func(ctx context.Context) (*model.CacheEntry, error) {
			close(occupied)
			<-release
			return &model.CacheEntry{}, nil
		})
	}()
	<-occupied
	defer close(release)

	// The single slot is held, so the second run times out waiting for it.
	_, err := env.run(context.Background(), func(ctx context.Context) (*model.CacheEntry, error) {
		return &model.CacheEntry{}, nil
	})
	require.ErrorIs(t, err, appErr.ErrTimeout)
}
