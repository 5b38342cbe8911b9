package batch

import (
	"context"
	"errors"
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

func mkTask(id string, spec resource.Spec, body registry.Body) *task.Task {
	n := node.New(id, "test", 0, nil, nil)
	n.Resources = spec
	return &task.Task{Node: n, Body: body}
}

func okBody(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
	return map[string]any{"out": inv.NodeID}, nil
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

func TestNewDescriptor(t *testing.T) {
	spec := resource.Spec{
		RunMode:   resource.RunModeHPC,
		Project:   "snic2017-7-89",
		Partition: "core",
		Cores:     1,
		Time:      "4-00:00:00",
		JobName:   "trnlin_f00_c0000000010",
	}
	desc, err := NewDescriptor(mkTask("trainlin_fold_0_cost_10", spec, okBody))
	require.NoError(t, err)

	assert.Equal(t, "trnlin_f00_c0000000010", desc.Name)
	assert.Equal(t, 96*time.Hour, desc.WallTime)
	assert.Equal(t, 1, desc.Threads)
	assert.Equal(t, []string{
		"#SBATCH --job-name=trnlin_f00_c0000000010",
		"#SBATCH --account=snic2017-7-89",
		"#SBATCH --partition=core",
		"#SBATCH --ntasks=1",
		"#SBATCH --cpus-per-task=1",
		"#SBATCH --time=4-00:00:00",
	}, desc.Directives())
}

func TestNewDescriptor_FallsBackToNodeID(t *testing.T) {
	desc, err := NewDescriptor(mkTask("Average RMSD cost 10", resource.Spec{Cores: 2, Time: "15:00"}, okBody))
	require.NoError(t, err)
	assert.Equal(t, "average-rmsd-cost-10", desc.Name)
}

func TestNewDescriptor_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec resource.Spec
	}{
		{"no cores", resource.Spec{Time: "1:00:00"}},
		{"no time", resource.Spec{Cores: 1}},
		{"bad time", resource.Spec{Cores: 1, Time: "soon"}},
		{"negative threads", resource.Spec{Cores: 1, Time: "1:00:00", Threads: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDescriptor(mkTask("x", tt.spec, okBody))
			assert.Error(t, err)
		})
	}
}

func TestSubmit_RejectsMalformedResources(t *testing.T) {
	b := New(NewSimCluster(2))
	defer b.Close(context.Background())

	_, err := b.Submit(context.Background(), mkTask("bad", resource.Spec{Cores: 1}, okBody))
	var se *backend.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, Name, se.Backend)
	assert.Equal(t, "bad", se.Task)
}

func TestSubmit_RunsOnCluster(t *testing.T) {
	b := New(NewSimCluster(2))
	defer b.Close(context.Background())
	spec := resource.Spec{Cores: 1, Time: "1:00:00"}

	h, err := b.Submit(context.Background(), mkTask("ok", spec, okBody))
	require.NoError(t, err)
	st := waitState(t, b, h, backend.Succeeded)
	assert.Equal(t, map[string]any{"out": "ok"}, st.Outputs)

	boom := errors.New("boom")
	h, err = b.Submit(context.Background(), mkTask("bad", spec, func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		return nil, boom
	}))
	require.NoError(t, err)
	st = waitState(t, b, h, backend.Failed)
	assert.ErrorIs(t, st.Err, boom)
}

func TestSubmit_WallTimeExceeded(t *testing.T) {
	cluster := NewSimCluster(1)
	b := New(cluster)
	defer b.Close(context.Background())

	// The body ignores its context; the cluster still settles the job.
	block := make(chan struct{})
	defer close(block)
	desc := JobDescriptor{Name: "slow", Cores: 1, Threads: 1, WallTime: 20 * time.Millisecond}
	jobID, err := cluster.Submit(context.Background(), desc, func(ctx context.Context) (map[string]any, error) {
		<-block
		return nil, nil
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st, err := cluster.Query(context.Background(), jobID)
		require.NoError(t, err)
		return st.State == backend.TimedOut
	}, 2*time.Second, 5*time.Millisecond)
	st, _ := cluster.Query(context.Background(), jobID)
	assert.ErrorIs(t, st.Err, backend.ErrTimeout)
}

func TestPoll_RetriesTransientQueryErrors(t *testing.T) {
	// --- Arrange ---
	cluster := NewSimCluster(1, WithTransientQueryFailures(2))
	b := New(cluster, WithQueryRetries(3, time.Millisecond))
	defer b.Close(context.Background())
	release := make(chan struct{})
	h, err := b.Submit(context.Background(), mkTask("t", resource.Spec{Cores: 1, Time: "1:00:00"},
		func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
			<-release
			return nil, nil
		}))
	require.NoError(t, err)

	// --- Act ---
	st, err := b.Poll(context.Background(), h)

	// --- Assert ---
	require.NoError(t, err)
	assert.False(t, st.State.Terminal())
	close(release)
	waitState(t, b, h, backend.Succeeded)
}

func TestPoll_GivesUpAfterRetries(t *testing.T) {
	cluster := NewSimCluster(1, WithTransientQueryFailures(10))
	b := New(cluster, WithQueryRetries(2, time.Millisecond))
	defer b.Close(context.Background())
	h, err := b.Submit(context.Background(), mkTask("t", resource.Spec{Cores: 1, Time: "1:00:00"}, okBody))
	require.NoError(t, err)

	_, err = b.Poll(context.Background(), h)
	assert.ErrorIs(t, err, ErrTransient)
}

func TestCancel_QueuedJob(t *testing.T) {
	b := New(NewSimCluster(1))
	defer b.Close(context.Background())
	spec := resource.Spec{Cores: 1, Time: "1:00:00"}

	release := make(chan struct{})
	defer close(release)
	blocker, err := b.Submit(context.Background(), mkTask("blocker", spec, func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		<-release
		return nil, nil
	}))
	require.NoError(t, err)
	waitState(t, b, blocker, backend.Running)

	queued, err := b.Submit(context.Background(), mkTask("queued", spec, okBody))
	require.NoError(t, err)
	require.NoError(t, b.Cancel(context.Background(), queued))

	st, err := b.Poll(context.Background(), queued)
	require.NoError(t, err)
	assert.Equal(t, backend.Cancelled, st.State)
}

func TestUnknownHandleAndClosed(t *testing.T) {
	b := New(NewSimCluster(1))
	_, err := b.Poll(context.Background(), "nope")
	assert.ErrorIs(t, err, backend.ErrUnknownHandle)

	require.NoError(t, b.Close(context.Background()))
	_, err = b.Submit(context.Background(), mkTask("late", resource.Spec{Cores: 1, Time: "1:00"}, okBody))
	assert.ErrorIs(t, err, backend.ErrClosed)
}
