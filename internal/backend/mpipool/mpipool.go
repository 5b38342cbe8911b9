// Package mpipool runs tasks on a fixed ensemble of workers that share one
// FIFO queue, the way an MPI pool executor distributes work over its ranks.
// Each task occupies exactly one worker for its whole run; its wall-time
// budget is enforced per task.
package mpipool

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"github.com/specialistvlad/sweepgridgo/internal/backend"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/task"
)

var _ backend.Backend = (*Backend)(nil)

// Name is the backend name reported in logs.
const Name = "mpi"

type queued struct {
	job    *backend.Job
	logger *slog.Logger
}

// Backend is the worker-ensemble backend.
type Backend struct {
	jobs    *backend.Jobs
	workers *pool.Pool
	size    int

	base context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []queued
	closed bool
}

// New starts an ensemble of size workers.
func New(size int) *Backend {
	if size < 1 {
		size = 1
	}
	base, stop := context.WithCancel(context.Background())
	b := &Backend{
		jobs:    backend.NewJobs(),
		workers: pool.New().WithMaxGoroutines(size),
		size:    size,
		base:    base,
		stop:    stop,
	}
	b.cond = sync.NewCond(&b.mu)
	for rank := 0; rank < size; rank++ {
		b.workers.Go(func() { b.work(rank) })
	}
	return b
}

func (b *Backend) Name() string { return Name }

// Size returns the number of workers in the ensemble.
func (b *Backend) Size() int { return b.size }

// Submit appends the task to the shared queue.
func (b *Backend) Submit(ctx context.Context, t *task.Task) (backend.Handle, error) {
	if err := t.Node.Resources.Validate(); err != nil {
		return "", &backend.SubmissionError{Backend: Name, Task: t.ID(), Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", backend.ErrClosed
	}
	logger := ctxlog.FromContext(ctx).With("backend", Name, "task", t.ID())
	job := b.jobs.Add(ctxlog.WithLogger(b.base, logger), t)
	b.queue = append(b.queue, queued{job: job, logger: logger})
	b.cond.Signal()
	return job.Handle, nil
}

func (b *Backend) Poll(ctx context.Context, h backend.Handle) (backend.Status, error) {
	return b.jobs.Status(h)
}

func (b *Backend) Cancel(ctx context.Context, h backend.Handle) error {
	return b.jobs.Cancel(h)
}

// Close cancels all work, wakes idle workers and waits for them to exit.
func (b *Backend) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.queue = nil
	b.cond.Broadcast()
	b.mu.Unlock()

	b.jobs.CancelAll()
	b.stop()
	done := make(chan struct{})
	go func() {
		b.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Backend) next() (queued, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.closed {
		return queued{}, false
	}
	q := b.queue[0]
	b.queue = b.queue[1:]
	return q, true
}

func (b *Backend) work(rank int) {
	for {
		q, ok := b.next()
		if !ok {
			return
		}
		if !b.jobs.Start(q.job.Handle) {
			continue
		}
		// Submit validated the spec, so the wall time parses.
		wall, _ := q.job.Task.Node.Resources.WallTime()
		q.logger.Debug("Task started.", "rank", rank, "wall_time", wall)
		outputs, err := backend.Execute(q.job.Ctx, q.job.Task, wall)
		b.jobs.Finish(q.job.Handle, outputs, err)
		q.logger.Debug("Task finished.", "rank", rank, "error", err)
	}
}
