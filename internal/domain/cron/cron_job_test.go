package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/questx-lab/badge-minter/pkg/testutil"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	count    atomic.Int32
	runNow   bool
	interval time.Duration
}

func (job *countingJob) Do(context.Context) { job.count.Add(1) }
func (job *countingJob) RunNow() bool       { return job.runNow }
func (job *countingJob) Next() time.Time    { return time.Now().Add(job.interval) }

func TestCronJobManager(t *testing.T) {
	ctx, cancel := context.WithCancel(testutil.MockContext())
	defer cancel()

	immediate := &countingJob{runNow: true, interval: 5 * time.Millisecond}
	delayed := &countingJob{runNow: false, interval: time.Hour}

	manager := NewCronJobManager()
	manager.Register(immediate)
	manager.Register(delayed)

	done := make(chan struct{})
	go func() {
		manager.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return immediate.count.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cron job manager did not stop")
	}

	require.Zero(t, delayed.count.Load())
}
