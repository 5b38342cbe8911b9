package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTask(body registry.Body) *task.Task {
	return &task.Task{Node: node.New("t", "test", 0, nil, nil), Body: body}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		out, err := Execute(ctx, mkTask(func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
			return map[string]any{"x": 1}, nil
		}), 0)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": 1}, out)
	})

	t.Run("body error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Execute(ctx, mkTask(func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
			return nil, boom
		}), time.Second)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("wall time enforced on a body ignoring its context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		_, err := Execute(ctx, mkTask(func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
			<-release
			return nil, nil
		}), 20*time.Millisecond)
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Execute(cctx, mkTask(func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}), 0)
		assert.ErrorIs(t, err, ErrCancelled)
	})
}

func TestJobs_Lifecycle(t *testing.T) {
	jobs := NewJobs()
	job := jobs.Add(context.Background(), mkTask(nil))

	st, err := jobs.Status(job.Handle)
	require.NoError(t, err)
	assert.Equal(t, Queued, st.State)

	require.True(t, jobs.Start(job.Handle))
	assert.False(t, jobs.Start(job.Handle))

	jobs.Finish(job.Handle, map[string]any{"ok": true}, nil)
	st, err = jobs.Status(job.Handle)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, st.State)
	assert.Equal(t, map[string]any{"ok": true}, st.Outputs)

	// Settled jobs are frozen.
	jobs.Finish(job.Handle, nil, errors.New("late"))
	require.NoError(t, jobs.Cancel(job.Handle))
	st, _ = jobs.Status(job.Handle)
	assert.Equal(t, Succeeded, st.State)

	_, err = jobs.Status("nope")
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestJobs_Classification(t *testing.T) {
	jobs := NewJobs()
	cases := map[error]State{
		ErrTimeout:          TimedOut,
		ErrCancelled:        Cancelled,
		errors.New("crash"): Failed,
	}
	for in, want := range cases {
		job := jobs.Add(context.Background(), mkTask(nil))
		jobs.Finish(job.Handle, nil, in)
		st, err := jobs.Status(job.Handle)
		require.NoError(t, err)
		assert.Equal(t, want, st.State, in.Error())
		assert.ErrorIs(t, st.Err, in)
	}
}

func TestJobs_CancelWhileQueued(t *testing.T) {
	jobs := NewJobs()
	job := jobs.Add(context.Background(), mkTask(nil))

	require.NoError(t, jobs.Cancel(job.Handle))
	assert.False(t, jobs.Start(job.Handle))
	assert.Error(t, job.Ctx.Err())

	st, _ := jobs.Status(job.Handle)
	assert.Equal(t, Cancelled, st.State)
	assert.ErrorIs(t, st.Err, ErrCancelled)
}

func TestSubmissionError(t *testing.T) {
	err := &SubmissionError{Backend: "batch", Task: "t", Err: errors.New("cores must be positive")}
	assert.EqualError(t, err, "batch backend rejected task 't': cores must be positive")
	assert.True(t, Failed.Terminal())
	assert.False(t, Running.Terminal())
	assert.Equal(t, "timed-out", TimedOut.String())
}
