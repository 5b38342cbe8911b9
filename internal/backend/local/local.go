// Package local runs tasks as goroutines on this machine. Concurrency is
// bounded by a thread budget: each task holds as many semaphore units as its
// resource request asks threads for. Every other resource field is ignored.
package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/sweepgridgo/internal/backend"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/task"
	"golang.org/x/sync/semaphore"
)

var _ backend.Backend = (*Backend)(nil)

// Name is the backend name reported in logs.
const Name = "local"

// Backend is the local goroutine backend.
type Backend struct {
	threads int64
	sem     *semaphore.Weighted
	jobs    *backend.Jobs

	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New creates a local backend with a budget of the given number of threads.
func New(threads int) *Backend {
	if threads < 1 {
		threads = 1
	}
	base, stop := context.WithCancel(context.Background())
	return &Backend{
		threads: int64(threads),
		sem:     semaphore.NewWeighted(int64(threads)),
		jobs:    backend.NewJobs(),
		base:    base,
		stop:    stop,
	}
}

func (b *Backend) Name() string { return Name }

// Submit starts a goroutine that waits for thread budget and runs the task.
func (b *Backend) Submit(ctx context.Context, t *task.Task) (backend.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", backend.ErrClosed
	}

	weight := int64(t.Node.Resources.ThreadCount())
	if weight > b.threads {
		return "", &backend.SubmissionError{
			Backend: Name,
			Task:    t.ID(),
			Err:     fmt.Errorf("requests %d threads, budget is %d", weight, b.threads),
		}
	}

	logger := ctxlog.FromContext(ctx).With("backend", Name, "task", t.ID())
	job := b.jobs.Add(ctxlog.WithLogger(b.base, logger), t)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.sem.Acquire(job.Ctx, weight); err != nil {
			b.jobs.Finish(job.Handle, nil, backend.ErrCancelled)
			return
		}
		defer b.sem.Release(weight)
		if !b.jobs.Start(job.Handle) {
			return
		}
		logger.Debug("Task started.", "threads", weight)
		outputs, err := backend.Execute(job.Ctx, t, 0)
		b.jobs.Finish(job.Handle, outputs, err)
		logger.Debug("Task finished.", "error", err)
	}()
	return job.Handle, nil
}

func (b *Backend) Poll(ctx context.Context, h backend.Handle) (backend.Status, error) {
	return b.jobs.Status(h)
}

func (b *Backend) Cancel(ctx context.Context, h backend.Handle) error {
	return b.jobs.Cancel(h)
}

// Close cancels every outstanding task and waits for the goroutines to exit.
func (b *Backend) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.jobs.CancelAll()
	b.stop()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
