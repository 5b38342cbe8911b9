package local

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/sweepgridgo/internal/backend"
	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/specialistvlad/sweepgridgo/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTask(id string, threads int, body registry.Body) *task.Task {
	n := node.New(id, "test", 0, nil, nil)
	n.Resources = resource.Spec{Threads: threads, Cores: 64, Time: "bogus"}
	return &task.Task{Node: n, Body: body}
}

func waitState(t *testing.T, b backend.Backend, h backend.Handle, want backend.State) backend.Status {
	t.Helper()
	var st backend.Status
	require.Eventually(t, func() bool {
		var err error
		st, err = b.Poll(context.Background(), h)
		require.NoError(t, err)
		return st.State == want
	}, 2*time.Second, 5*time.Millisecond)
	return st
}

func TestSubmit_SuccessAndFailure(t *testing.T) {
	b := New(2)
	defer b.Close(context.Background())
	ctx := context.Background()

	ok, err := b.Submit(ctx, mkTask("ok", 1, func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		return map[string]any{"out": inv.NodeID}, nil
	}))
	require.NoError(t, err)
	st := waitState(t, b, ok, backend.Succeeded)
	assert.Equal(t, map[string]any{"out": "ok"}, st.Outputs)

	boom := errors.New("boom")
	bad, err := b.Submit(ctx, mkTask("bad", 1, func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		return nil, boom
	}))
	require.NoError(t, err)
	st = waitState(t, b, bad, backend.Failed)
	assert.ErrorIs(t, st.Err, boom)
}

func TestSubmit_RejectsOversizedRequest(t *testing.T) {
	b := New(2)
	defer b.Close(context.Background())

	_, err := b.Submit(context.Background(), mkTask("big", 3, nil))
	var se *backend.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "big", se.Task)
}

func TestSubmit_ThreadBudgetBoundsConcurrency(t *testing.T) {
	b := New(2)
	defer b.Close(context.Background())

	var running, peak atomic.Int32
	release := make(chan struct{})
	body := func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return nil, nil
	}

	var handles []backend.Handle
	for _, id := range []string{"a", "b", "c", "d"} {
		h, err := b.Submit(context.Background(), mkTask(id, 1, body))
		require.NoError(t, err, "submission must not block")
		handles = append(handles, h)
	}
	require.Eventually(t, func() bool { return running.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	for _, h := range handles {
		waitState(t, b, h, backend.Succeeded)
	}
	assert.EqualValues(t, 2, peak.Load())
}

func TestCancel(t *testing.T) {
	b := New(1)
	defer b.Close(context.Background())
	ctx := context.Background()

	started := make(chan struct{})
	blocker := func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	running, err := b.Submit(ctx, mkTask("running", 1, blocker))
	require.NoError(t, err)
	<-started
	queued, err := b.Submit(ctx, mkTask("queued", 1, func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		return nil, nil
	}))
	require.NoError(t, err)

	require.NoError(t, b.Cancel(ctx, queued))
	require.NoError(t, b.Cancel(ctx, running))

	waitState(t, b, running, backend.Cancelled)
	waitState(t, b, queued, backend.Cancelled)

	_, err = b.Poll(ctx, "unknown")
	assert.ErrorIs(t, err, backend.ErrUnknownHandle)
}

func TestClose(t *testing.T) {
	b := New(1)
	require.NoError(t, b.Close(context.Background()))
	_, err := b.Submit(context.Background(), mkTask("late", 1, nil))
	assert.ErrorIs(t, err, backend.ErrClosed)
}

func TestSubmit_IgnoresWallTime(t *testing.T) {
	b := New(1)
	defer b.Close(context.Background())

	tk := mkTask("short", 1, func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		_, hasDeadline := ctx.Deadline()
		return map[string]any{"deadline": hasDeadline}, nil
	})
	tk.Node.Resources.Time = "0:00:01"
	h, err := b.Submit(context.Background(), tk)
	require.NoError(t, err)

	st := waitState(t, b, h, backend.Succeeded)
	assert.Equal(t, false, st.Outputs["deadline"])
}
