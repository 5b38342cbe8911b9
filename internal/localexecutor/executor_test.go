package localexecutor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/sweepgridgo/internal/backend"
	"github.com/specialistvlad/sweepgridgo/internal/backend/local"
	"github.com/specialistvlad/sweepgridgo/internal/builder"
	"github.com/specialistvlad/sweepgridgo/internal/graph"
	"github.com/specialistvlad/sweepgridgo/internal/inmemorystore"
	"github.com/specialistvlad/sweepgridgo/internal/inmemorytopology"
	"github.com/specialistvlad/sweepgridgo/internal/metrics"
	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/report"
	"github.com/specialistvlad/sweepgridgo/internal/scheduler"
	"github.com/specialistvlad/sweepgridgo/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// echo publishes the node id, or fails when the node id is listed in fail.
func echo(fail map[string]bool) registry.Body {
	return func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		if fail[inv.NodeID] {
			return nil, errBoom
		}
		return map[string]any{"out": inv.NodeID}, nil
	}
}

func testRegistry(body registry.Body) *registry.Registry {
	r := registry.New()
	r.Register(&registry.Kind{Name: "src", Ports: []port.Spec{port.OutSpec("out", port.Any)}, Body: body})
	r.Register(&registry.Kind{Name: "pass", Ports: []port.Spec{port.InSpec("in", port.Any), port.OutSpec("out", port.Any)}, Body: body})
	r.Register(&registry.Kind{Name: "join", Ports: []port.Spec{port.FanInSpec("in", port.Any, false), port.OutSpec("out", port.Any)}, Body: body})
	r.Register(&registry.Kind{Name: "best", Ports: []port.Spec{port.FanInSpec("in", port.Any, true), port.OutSpec("out", port.Any)},
		Body: func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
			return map[string]any{"out": inv.Values("in")}, nil
		}})
	return r
}

type gb struct {
	t   *testing.T
	ctx context.Context
	reg *registry.Registry
	b   *builder.Builder
}

func newGB(t *testing.T, reg *registry.Registry) *gb {
	return &gb{t: t, ctx: context.Background(), reg: reg, b: builder.New(reg, inmemorytopology.New(), inmemorystore.New())}
}

func (g *gb) node(kind, id string) *gb {
	g.t.Helper()
	_, err := g.b.CreateTask(g.ctx, kind, id, nil)
	require.NoError(g.t, err)
	return g
}

func (g *gb) wire(from, to string) *gb {
	g.t.Helper()
	require.NoError(g.t, g.b.Wire(g.ctx, port.R(from, "out"), port.R(to, "in")))
	return g
}

func (g *gb) fanIn(to string, from ...string) *gb {
	g.t.Helper()
	refs := make([]port.Ref, len(from))
	for i, f := range from {
		refs[i] = port.R(f, "out")
	}
	require.NoError(g.t, g.b.ConnectMany(g.ctx, refs, to, "in"))
	return g
}

func (g *gb) build(sinks ...string) graph.Graph {
	g.t.Helper()
	for _, s := range sinks {
		require.NoError(g.t, g.b.Sink(g.ctx, s))
	}
	out, err := g.b.Build(g.ctx)
	require.NoError(g.t, err)
	return out
}

func statusOf(t *testing.T, g graph.Graph, id string) node.Status {
	t.Helper()
	s, ok := g.NodeStatus(context.Background(), id)
	require.True(t, ok, "node %s", id)
	return s
}

func fastOpts() Options {
	return Options{Workflow: "test", PollInterval: time.Millisecond}
}

func TestExecute_Diamond(t *testing.T) {
	// --- Arrange ---
	reg := testRegistry(echo(nil))
	g := newGB(t, reg).
		node("src", "a").node("pass", "b").node("pass", "c").node("join", "d").
		wire("a", "b").wire("a", "c").fanIn("d", "b", "c").
		build("d")
	be := local.New(4)
	defer be.Close(context.Background())
	m := metrics.New()
	opts := fastOpts()
	opts.Metrics = m

	// --- Act ---
	exec := New(g, reg, be, opts)
	err := exec.Execute(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, node.StatusCompleted, statusOf(t, g, id), id)
	}
	assert.Equal(t, map[string]any{"out": "d"}, g.Output(context.Background(), "d"))
	rep := exec.Report()
	require.NotNil(t, rep)
	assert.True(t, rep.Succeeded())
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Finished.WithLabelValues("pass", "completed"))+testutil.ToFloat64(m.Finished.WithLabelValues("src", "completed"))+testutil.ToFloat64(m.Finished.WithLabelValues("join", "completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestExecute_FailureSkipsDependentsButNotSiblings(t *testing.T) {
	reg := testRegistry(echo(map[string]bool{"b1": true}))
	g := newGB(t, reg).
		node("src", "a").
		node("pass", "b1").node("pass", "c1").
		node("pass", "b2").node("pass", "c2").
		wire("a", "b1").wire("b1", "c1").
		wire("a", "b2").wire("b2", "c2").
		build("c1", "c2")
	be := local.New(2)
	defer be.Close(context.Background())

	exec := New(g, reg, be, fastOpts())
	err := exec.Execute(context.Background())

	var fe *report.FailureError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, node.StatusFailed, statusOf(t, g, "b1"))
	assert.Equal(t, node.StatusSkipped, statusOf(t, g, "c1"))
	assert.Equal(t, node.StatusCompleted, statusOf(t, g, "c2"))
	assert.ErrorIs(t, g.Error(context.Background(), "c1"), errBoom)
	assert.ErrorContains(t, g.Error(context.Background(), "c1"), "upstream 'b1' failed")

	rep := exec.Report()
	assert.Equal(t, report.Summary{Total: 5, Completed: 3, Failed: 1, Skipped: 1}, rep.Summary)
}

func TestExecute_PartialFanInRunsWithSurvivors(t *testing.T) {
	reg := testRegistry(echo(map[string]bool{"y": true}))
	g := newGB(t, reg).
		node("src", "x").node("src", "y").node("src", "z").node("best", "sel").
		fanIn("sel", "x", "y", "z").
		build("sel")
	be := local.New(2)
	defer be.Close(context.Background())

	err := New(g, reg, be, fastOpts()).Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, node.StatusCompleted, statusOf(t, g, "sel"))
	assert.Equal(t, []any{"x", "z"}, g.Output(context.Background(), "sel")["out"])
}

func TestExecute_SubmissionErrorFailsNode(t *testing.T) {
	reg := testRegistry(echo(nil))
	g := newGB(t, reg).node("src", "a").node("pass", "b").wire("a", "b").build("b")

	be := &rejecting{Backend: local.New(1), reject: "a"}
	defer be.Close(context.Background())
	err := New(g, reg, be, fastOpts()).Execute(context.Background())

	require.Error(t, err)
	var se *backend.SubmissionError
	assert.ErrorAs(t, g.Error(context.Background(), "a"), &se)
	assert.Equal(t, node.StatusSkipped, statusOf(t, g, "b"))
}

func TestExecute_CycleIsReportedBeforeSubmission(t *testing.T) {
	reg := testRegistry(echo(nil))
	g := newGB(t, reg).node("pass", "A").node("pass", "B").wire("A", "B").wire("B", "A").build("B")
	rec := &recording{Backend: local.New(1)}
	defer rec.Close(context.Background())

	err := New(g, reg, rec, fastOpts()).Execute(context.Background())

	var cyc *scheduler.CycleDetectedError
	require.ErrorAs(t, err, &cyc)
	assert.Empty(t, rec.submitted())
}

func TestExecute_CancelMidRun(t *testing.T) {
	// --- Arrange ---
	// a completes, then b and c block until cancelled; d and e are never
	// submitted.
	release := make(chan struct{})
	body := func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		if inv.NodeID == "a" {
			return map[string]any{"out": "a"}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return map[string]any{"out": inv.NodeID}, nil
		}
	}
	defer close(release)
	reg := testRegistry(body)
	g := newGB(t, reg).
		node("src", "a").node("pass", "b").node("pass", "c").node("pass", "d").node("pass", "e").
		wire("a", "b").wire("a", "c").wire("b", "d").wire("c", "e").
		build("d", "e")
	rec := &recording{Backend: local.New(4)}
	defer rec.Close(context.Background())
	ctx, cancel := context.WithCancel(context.Background())

	// --- Act ---
	done := make(chan error, 1)
	go func() { done <- New(g, reg, rec, fastOpts()).Execute(ctx) }()
	require.Eventually(t, func() bool { return len(rec.submitted()) == 3 }, 2*time.Second, time.Millisecond)
	cancel()
	var err error
	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not stop after cancellation")
	}

	// --- Assert ---
	assert.ErrorIs(t, err, context.Canceled)
	var fe *report.FailureError
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, node.StatusCompleted, statusOf(t, g, "a"))
	assert.Equal(t, node.StatusFailed, statusOf(t, g, "b"))
	assert.Equal(t, node.StatusFailed, statusOf(t, g, "c"))
	assert.Equal(t, node.StatusSkipped, statusOf(t, g, "d"))
	assert.Equal(t, node.StatusSkipped, statusOf(t, g, "e"))
	assert.ElementsMatch(t, []string{"b", "c"}, rec.cancelledIDs())
	assert.ElementsMatch(t, []string{"a", "b", "c"}, rec.submitted())
}

// recording wraps a backend and records submissions and cancellations.
type recording struct {
	backend.Backend
	mu        sync.Mutex
	handles   map[backend.Handle]string
	order     []string
	cancelled []string
}

func (r *recording) Submit(ctx context.Context, t *task.Task) (backend.Handle, error) {
	h, err := r.Backend.Submit(ctx, t)
	if err != nil {
		return h, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles == nil {
		r.handles = make(map[backend.Handle]string)
	}
	r.handles[h] = t.ID()
	r.order = append(r.order, t.ID())
	return h, nil
}

func (r *recording) Cancel(ctx context.Context, h backend.Handle) error {
	r.mu.Lock()
	r.cancelled = append(r.cancelled, r.handles[h])
	r.mu.Unlock()
	return r.Backend.Cancel(ctx, h)
}

func (r *recording) submitted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *recording) cancelledIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cancelled...)
}

// rejecting refuses to submit one node.
type rejecting struct {
	backend.Backend
	reject string
}

func (r *rejecting) Submit(ctx context.Context, t *task.Task) (backend.Handle, error) {
	if t.ID() == r.reject {
		return "", &backend.SubmissionError{Backend: "test", Task: t.ID(), Err: errors.New("bad resources")}
	}
	return r.Backend.Submit(ctx, t)
}
