// Package batch hands tasks to a batch scheduler. Resource requests become
// job descriptors; the scheduler itself sits behind the Cluster interface so
// the wire protocol of a real scheduler stays outside this module.
//
// Poll retries cluster queries that fail transiently. Task failures are
// never retried.
package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/specialistvlad/sweepgridgo/internal/backend"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/task"
)

var _ backend.Backend = (*Backend)(nil)

// Name is the backend name reported in logs.
const Name = "batch"

const (
	defaultQueryRetries = 3
	defaultQueryBackoff = 10 * time.Millisecond
)

// Backend submits tasks to a Cluster.
type Backend struct {
	cluster Cluster
	retries uint64
	backoff time.Duration

	mu     sync.Mutex
	jobs   map[backend.Handle]string
	closed bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithQueryRetries sets how many times a transiently failing query is
// retried and the base delay of the exponential backoff. Zero values keep
// the defaults.
func WithQueryRetries(n uint64, base time.Duration) Option {
	return func(b *Backend) {
		if n > 0 {
			b.retries = n
		}
		if base > 0 {
			b.backoff = base
		}
	}
}

// New creates a batch backend on top of a cluster.
func New(cluster Cluster, opts ...Option) *Backend {
	b := &Backend{
		cluster: cluster,
		retries: defaultQueryRetries,
		backoff: defaultQueryBackoff,
		jobs:    make(map[backend.Handle]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return Name }

// Submit translates the task's resources and enqueues it on the cluster.
func (b *Backend) Submit(ctx context.Context, t *task.Task) (backend.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", backend.ErrClosed
	}

	desc, err := NewDescriptor(t)
	if err != nil {
		return "", &backend.SubmissionError{Backend: Name, Task: t.ID(), Err: err}
	}

	logger := ctxlog.FromContext(ctx).With("backend", Name, "task", t.ID(), "job", desc.Name)
	run := func(ctx context.Context) (map[string]any, error) {
		return t.Run(ctxlog.WithLogger(ctx, logger))
	}
	jobID, err := b.cluster.Submit(ctx, desc, run)
	if err != nil {
		return "", &backend.SubmissionError{Backend: Name, Task: t.ID(), Err: err}
	}

	h := backend.NewHandle()
	b.jobs[h] = jobID
	logger.Debug("Job submitted.", "job_id", jobID, "directives", desc.Directives())
	return h, nil
}

// Poll queries the cluster, retrying transient failures with exponential
// backoff.
func (b *Backend) Poll(ctx context.Context, h backend.Handle) (backend.Status, error) {
	jobID, err := b.lookup(h)
	if err != nil {
		return backend.Status{}, err
	}

	var st backend.Status
	policy := retry.WithMaxRetries(b.retries, retry.NewExponential(b.backoff))
	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		var qerr error
		st, qerr = b.cluster.Query(ctx, jobID)
		if errors.Is(qerr, ErrTransient) {
			ctxlog.FromContext(ctx).Debug("Cluster query failed, retrying.", "job_id", jobID, "error", qerr)
			return retry.RetryableError(qerr)
		}
		return qerr
	})
	return st, err
}

func (b *Backend) Cancel(ctx context.Context, h backend.Handle) error {
	jobID, err := b.lookup(h)
	if err != nil {
		return err
	}
	return b.cluster.Cancel(ctx, jobID)
}

// Close stops accepting work and shuts the cluster down.
func (b *Backend) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return b.cluster.Close(ctx)
}

func (b *Backend) lookup(h backend.Handle) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	jobID, ok := b.jobs[h]
	if !ok {
		return "", backend.ErrUnknownHandle
	}
	return jobID, nil
}
