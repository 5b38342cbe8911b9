package task

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/sweepgridgo/internal/builder"
	"github.com/specialistvlad/sweepgridgo/internal/inmemorystore"
	"github.com/specialistvlad/sweepgridgo/internal/inmemorytopology"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
	return map[string]any{"out": len(inv.Values("in"))}, nil
}

func testRegistry() *registry.Registry {
	r := registry.New()
	r.Register(&registry.Kind{Name: "src", Ports: []port.Spec{port.OutSpec("out", port.ScalarMetric)}, Body: echo})
	r.Register(&registry.Kind{Name: "best", Ports: []port.Spec{
		port.FanInSpec("in", port.ScalarMetric, true),
		{Name: "mode", Direction: port.In, Type: port.Any, Default: "min"},
		port.OutSpec("out", port.ScalarMetric),
	}, Body: echo})
	r.Register(&registry.Kind{Name: "strict", Ports: []port.Spec{
		port.FanInSpec("in", port.ScalarMetric, false),
		port.OutSpec("out", port.ScalarMetric),
	}, Body: echo})
	return r
}

func TestBuild_ResolvesInputs(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry()
	b := builder.New(reg, inmemorytopology.New(), inmemorystore.New())
	for _, id := range []string{"x", "y", "z"} {
		_, err := b.CreateTask(ctx, "src", id, nil)
		require.NoError(t, err)
	}
	_, err := b.CreateTask(ctx, "best", "best", nil)
	require.NoError(t, err)
	_, err = b.CreateTask(ctx, "strict", "strict", nil)
	require.NoError(t, err)
	refs := []port.Ref{port.R("z", "out"), port.R("x", "out"), port.R("y", "out")}
	require.NoError(t, b.ConnectMany(ctx, refs, "best", "in"))
	require.NoError(t, b.ConnectMany(ctx, refs, "strict", "in"))
	require.NoError(t, b.Sink(ctx, "best"))
	require.NoError(t, b.Sink(ctx, "strict"))
	g, err := b.Build(ctx)
	require.NoError(t, err)

	for id, v := range map[string]float64{"x": 1, "z": 3} {
		require.NoError(t, g.MarkRunning(ctx, id))
		require.NoError(t, g.MarkCompleted(ctx, id, map[string]any{"out": port.Metric{Key: id, Value: v}}))
	}
	require.NoError(t, g.MarkRunning(ctx, "y"))
	require.NoError(t, g.MarkFailed(ctx, "y", errors.New("boom")))

	n, _ := g.Node(ctx, "best")
	tk, err := Build(ctx, g, reg, n, "/work")
	require.NoError(t, err)
	assert.Equal(t, []any{port.Metric{Key: "z", Value: 3}, port.Metric{Key: "x", Value: 1}}, tk.ResolvedInputs["in"])
	assert.Equal(t, []any{"min"}, tk.ResolvedInputs["mode"])
	assert.Equal(t, "best", tk.ID())

	out, err := tk.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"out": 2}, out)

	inv := tk.Invocation()
	assert.Equal(t, "/work", inv.Workdir)
	assert.Equal(t, "best", inv.Kind)

	strict, _ := g.Node(ctx, "strict")
	_, err = Build(ctx, g, reg, strict, "/work")
	assert.ErrorContains(t, err, "producer 'y.out' is Failed")
}

func TestRun_NilBody(t *testing.T) {
	reg := registry.New()
	reg.Register(&registry.Kind{Name: "empty"})
	b := builder.New(reg, inmemorytopology.New(), inmemorystore.New())
	n, err := b.CreateTask(context.Background(), "empty", "e", nil)
	require.NoError(t, err)

	_, err = (&Task{Node: n}).Run(context.Background())
	assert.ErrorContains(t, err, "has no body")
}
