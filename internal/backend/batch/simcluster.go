package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/specialistvlad/sweepgridgo/internal/backend"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type simJob struct {
	desc   JobDescriptor
	cancel context.CancelFunc
	status backend.Status
}

// SimCluster is an in-process stand-in for a batch scheduler. It queues jobs
// beyond MaxJobs, enforces each job's wall time and can be told to fail
// queries transiently.
type SimCluster struct {
	slots *semaphore.Weighted
	group *errgroup.Group
	base  context.Context
	stop  context.CancelFunc

	mu     sync.Mutex
	jobs   map[string]*simJob
	closed bool

	flaky atomic.Int32
}

// SimOption configures a SimCluster.
type SimOption func(*SimCluster)

// WithTransientQueryFailures makes the next n queries fail with ErrTransient.
func WithTransientQueryFailures(n int) SimOption {
	return func(c *SimCluster) {
		c.flaky.Store(int32(n))
	}
}

// NewSimCluster creates a simulated cluster running at most maxJobs jobs.
func NewSimCluster(maxJobs int, opts ...SimOption) *SimCluster {
	if maxJobs < 1 {
		maxJobs = 1
	}
	base, stop := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(base)
	c := &SimCluster{
		slots: semaphore.NewWeighted(int64(maxJobs)),
		group: group,
		base:  gctx,
		stop:  stop,
		jobs:  make(map[string]*simJob),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit queues a job and returns its id.
func (c *SimCluster) Submit(ctx context.Context, desc JobDescriptor, run RunFunc) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", backend.ErrClosed
	}

	id := uuid.NewString()
	jobCtx, cancel := context.WithCancel(c.base)
	job := &simJob{desc: desc, cancel: cancel, status: backend.Status{State: backend.Queued}}
	c.jobs[id] = job

	c.group.Go(func() error {
		defer cancel()
		if err := c.slots.Acquire(jobCtx, 1); err != nil {
			c.settle(id, nil, backend.ErrCancelled)
			return nil
		}
		defer c.slots.Release(1)
		if !c.start(id) {
			return nil
		}
		outputs, err := backend.Run(jobCtx, run, desc.WallTime)
		c.settle(id, outputs, err)
		return nil
	})
	return id, nil
}

// Query returns the status of a job.
func (c *SimCluster) Query(ctx context.Context, jobID string) (backend.Status, error) {
	if c.flaky.Load() > 0 && c.flaky.Add(-1) >= 0 {
		return backend.Status{}, fmt.Errorf("query %s: %w", jobID, ErrTransient)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[jobID]
	if !ok {
		return backend.Status{}, backend.ErrUnknownHandle
	}
	return job.status, nil
}

// Cancel stops a job. Cancelling a settled job is a no-op.
func (c *SimCluster) Cancel(ctx context.Context, jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[jobID]
	if !ok {
		return backend.ErrUnknownHandle
	}
	if !job.status.State.Terminal() {
		job.status = backend.Status{State: backend.Cancelled, Err: backend.ErrCancelled}
	}
	job.cancel()
	return nil
}

// Close cancels every job and waits for the job goroutines.
func (c *SimCluster) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	for _, job := range c.jobs {
		if !job.status.State.Terminal() {
			job.status = backend.Status{State: backend.Cancelled, Err: backend.ErrCancelled}
		}
	}
	c.mu.Unlock()
	c.stop()
	return c.group.Wait()
}

func (c *SimCluster) start(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	job := c.jobs[id]
	if job.status.State != backend.Queued {
		return false
	}
	job.status.State = backend.Running
	return true
}

func (c *SimCluster) settle(id string, outputs map[string]any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job := c.jobs[id]
	if job.status.State.Terminal() {
		return
	}
	switch {
	case err == nil:
		job.status = backend.Status{State: backend.Succeeded, Outputs: outputs}
	case errors.Is(err, backend.ErrTimeout):
		job.status = backend.Status{State: backend.TimedOut, Err: err}
	case errors.Is(err, backend.ErrCancelled):
		job.status = backend.Status{State: backend.Cancelled, Err: err}
	default:
		job.status = backend.Status{State: backend.Failed, Err: err}
	}
}
