package cron

import (
	"context"
	"sync"
	"time"

	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

type CronJob interface {
	Do(context.Context)
	RunNow() bool
	Next() time.Time
}

type CronJobManager struct {
	mutex sync.Mutex
	wait  sync.WaitGroup
	jobs  map[CronJob]*time.Timer
}

func NewCronJobManager() *CronJobManager {
	return &CronJobManager{jobs: make(map[CronJob]*time.Timer)}
}

func (m *CronJobManager) Register(job CronJob) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.jobs[job] = nil
}

// Start runs the registered jobs and blocks until ctx is done or Cancel is
// called.
func (m *CronJobManager) Start(ctx context.Context) {
	xcontext.Logger(ctx).Infof("Cron job manager started")

	m.mutex.Lock()
	m.wait.Add(len(m.jobs))
	for job := range m.jobs {
		if job.RunNow() {
			go m.run(ctx, job)
		} else {
			m.scheduleLocked(ctx, job)
		}
	}
	m.mutex.Unlock()

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			m.Cancel(ctx)
		case <-stopped:
		}
	}()

	m.wait.Wait()
	close(stopped)
	xcontext.Logger(ctx).Infof("Cron job manager stopped")
}

func (m *CronJobManager) Cancel(ctx context.Context) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for job, timer := range m.jobs {
		if timer != nil {
			timer.Stop()
		} else {
			xcontext.Logger(ctx).Warnf("Stop a job that hasn't been scheduled: %T", job)
		}

		m.wait.Done()
	}

	// Clear all jobs to not schedule them again.
	m.jobs = make(map[CronJob]*time.Timer)
}

func (m *CronJobManager) run(ctx context.Context, job CronJob) {
	xcontext.Logger(ctx).Debugf("%T is running...", job)
	job.Do(ctx)
	xcontext.Logger(ctx).Debugf("%T ok", job)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.scheduleLocked(ctx, job)
}

func (m *CronJobManager) scheduleLocked(ctx context.Context, job CronJob) {
	// Only schedule jobs which still exist in the job list.
	if _, ok := m.jobs[job]; ok {
		m.jobs[job] = time.AfterFunc(time.Until(job.Next()), func() { m.run(ctx, job) })
	}
}
