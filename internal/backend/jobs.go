package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/sweepgridgo/internal/task"
)

// Job is one in-process submission.
type Job struct {
	Handle Handle
	Task   *task.Task
	Ctx    context.Context

	cancel  context.CancelFunc
	state   State
	outputs map[string]any
	err     error
}

// Jobs is the handle table shared by in-process backends.
type Jobs struct {
	mu   sync.Mutex
	jobs map[Handle]*Job
}

// NewJobs creates an empty handle table.
func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[Handle]*Job)}
}

// NewHandle issues a fresh, unique handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// Add registers a queued job running under ctx.
func (j *Jobs) Add(ctx context.Context, t *task.Task) *Job {
	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{Handle: NewHandle(), Task: t, Ctx: jobCtx, cancel: cancel, state: Queued}
	j.mu.Lock()
	j.jobs[job.Handle] = job
	j.mu.Unlock()
	return job
}

// Start moves a queued job to Running. It returns false if the job was
// cancelled while queued.
func (j *Jobs) Start(h Handle) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[h]
	if !ok || job.state != Queued {
		return false
	}
	job.state = Running
	return true
}

// Finish settles a job from its body result. Settled jobs are left alone.
func (j *Jobs) Finish(h Handle, outputs map[string]any, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[h]
	if !ok || job.state.Terminal() {
		return
	}
	defer job.cancel()
	switch {
	case err == nil:
		job.state, job.outputs = Succeeded, outputs
	case errors.Is(err, ErrTimeout):
		job.state, job.err = TimedOut, err
	case errors.Is(err, ErrCancelled):
		job.state, job.err = Cancelled, err
	default:
		job.state, job.err = Failed, err
	}
}

// Status returns the poll result of a job.
func (j *Jobs) Status(h Handle) (Status, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[h]
	if !ok {
		return Status{}, ErrUnknownHandle
	}
	return Status{State: job.state, Outputs: job.outputs, Err: job.err}, nil
}

// Cancel settles a job as Cancelled and cancels its context.
func (j *Jobs) Cancel(h Handle) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[h]
	if !ok {
		return ErrUnknownHandle
	}
	if job.state.Terminal() {
		return nil
	}
	job.state, job.err = Cancelled, ErrCancelled
	job.cancel()
	return nil
}

// CancelAll cancels every unsettled job.
func (j *Jobs) CancelAll() {
	j.mu.Lock()
	handles := make([]Handle, 0, len(j.jobs))
	for h := range j.jobs {
		handles = append(handles, h)
	}
	j.mu.Unlock()
	for _, h := range handles {
		_ = j.Cancel(h)
	}
}

// Execute runs a task body under an optional wall-time budget.
func Execute(ctx context.Context, t *task.Task, wall time.Duration) (map[string]any, error) {
	return Run(ctx, t.Run, wall)
}

// Run calls fn under an optional wall-time budget. The result is returned as
// soon as the budget expires or ctx is cancelled, even if fn ignores its
// context.
func Run(ctx context.Context, fn func(context.Context) (map[string]any, error), wall time.Duration) (map[string]any, error) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if wall > 0 {
		runCtx, cancel = context.WithTimeout(ctx, wall)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type result struct {
		outputs map[string]any
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outputs, err := fn(runCtx)
		done <- result{outputs, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return r.outputs, r.err
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrCancelled
	}
}
