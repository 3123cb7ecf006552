package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs  atomic.Int32
	block chan struct{}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return nil
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := New()
	require.Error(t, s.AddJob(&countingJob{}, "not a cron spec"))
	require.NoError(t, s.AddJob(&countingJob{}, "* * * * *"))
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s := New()
	s.Start(context.Background())
	defer s.Stop()

	j := &countingJob{block: make(chan struct{})}
	fn := s.wrap(j)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn()
	}()

	// Wait for the first run to be in flight, then fire again.
	require.Eventually(t, func() bool { return j.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	fn()
	require.EqualValues(t, 1, j.runs.Load(), "overlapping run must be skipped, not queued")

	close(j.block)
	wg.Wait()
	fn()
	require.EqualValues(t, 2, j.runs.Load(), "job must run again once the previous run finished")
}
