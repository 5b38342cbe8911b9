// Package backend defines the execution backend capability set: submit a
// task, poll its handle, cancel it. Submission never blocks on execution.
// A malformed resource request fails synchronously with SubmissionError;
// everything that goes wrong after that surfaces as a terminal State.
//
// Backends never retry tasks. A task that fails stays failed.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/sweepgridgo/internal/task"
)

var (
	// ErrTimeout is the error of a task that exceeded its wall-time budget.
	ErrTimeout = errors.New("task exceeded its wall-time budget")
	// ErrCancelled is the error of a task cancelled through its handle.
	ErrCancelled = errors.New("task cancelled")
	// ErrUnknownHandle is returned for handles the backend never issued.
	ErrUnknownHandle = errors.New("unknown task handle")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("backend is closed")
)

// Handle identifies one submission.
type Handle string

// State is the lifecycle state of a submission.
type State int

const (
	Queued State = iota
	Running
	Succeeded
	Failed
	TimedOut
	Cancelled
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed-out"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the submission is settled.
func (s State) Terminal() bool {
	return s >= Succeeded
}

// Status is the result of a poll.
type Status struct {
	State   State
	Outputs map[string]any
	Err     error
}

// SubmissionError reports a task rejected before it was enqueued.
type SubmissionError struct {
	Backend string
	Task    string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s backend rejected task '%s': %v", e.Backend, e.Task, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Backend executes tasks.
type Backend interface {
	// Name identifies the backend in logs and reports.
	Name() string
	// Submit enqueues a task and returns immediately.
	Submit(ctx context.Context, t *task.Task) (Handle, error)
	// Poll returns the current status of a submission.
	Poll(ctx context.Context, h Handle) (Status, error)
	// Cancel requests cancellation. Cancelling a settled handle is a no-op.
	Cancel(ctx context.Context, h Handle) error
	// Close cancels outstanding work and waits for it to stop.
	Close(ctx context.Context) error
}
