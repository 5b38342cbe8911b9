package registry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, inv *Invocation) (map[string]any, error) {
	return nil, nil
}

func trainKind() *Kind {
	return &Kind{
		Name: "train_linear",
		Ports: []port.Spec{
			port.InSpec("sparse_traindata", port.SparseMatrix),
			port.OutSpec("model", port.ModelArtifact),
		},
		Params: []Param{
			{Name: "cost", Required: true},
			{Name: "solver", Default: "2"},
		},
		Resources: resource.Spec{Cores: 1, Time: "15:00"},
		Body:      noop,
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.Register(trainKind())

	k, ok := r.Lookup("train_linear")
	require.True(t, ok)
	assert.Len(t, k.Inputs(), 1)
	assert.Len(t, k.Outputs(), 1)

	p, ok := k.Port("model", port.Out)
	require.True(t, ok)
	assert.Equal(t, port.ModelArtifact, p.Type)
	_, ok = k.Port("model", port.In)
	assert.False(t, ok)

	param, ok := k.Param("solver")
	require.True(t, ok)
	assert.Equal(t, "2", param.Default)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"train_linear"}, r.Names())
}

func TestRegister_DuplicatePanics(t *testing.T) {
	r := New()
	r.Register(trainKind())
	assert.Panics(t, func() { r.Register(trainKind()) })
}

func TestSetBodyAndResources(t *testing.T) {
	r := New()
	r.Register(trainKind())

	called := false
	require.NoError(t, r.SetBody("train_linear", func(ctx context.Context, inv *Invocation) (map[string]any, error) {
		called = true
		return nil, nil
	}))
	k, _ := r.Lookup("train_linear")
	_, _ = k.Body(context.Background(), &Invocation{})
	assert.True(t, called)

	require.NoError(t, r.SetResources("train_linear", resource.Spec{Cores: 4}))
	assert.Equal(t, 4, k.Resources.Cores)

	assert.Error(t, r.SetBody("nope", noop))
	assert.Error(t, r.SetResources("nope", resource.Spec{}))
}

func TestValidate(t *testing.T) {
	r := New()
	r.Register(trainKind())
	require.NoError(t, r.Validate(context.Background()))

	r.Register(&Kind{
		Name: "broken",
		Ports: []port.Spec{
			port.InSpec("x", port.Any),
			port.InSpec("x", port.Any),
			{Name: "y", Direction: port.Out, Variadic: true},
		},
		Params: []Param{{Name: "p"}, {Name: "p"}},
	})
	err := r.Validate(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "no body registered")
	assert.ErrorContains(t, err, "duplicate in port 'x'")
	assert.ErrorContains(t, err, "output port 'y' cannot be variadic")
	assert.ErrorContains(t, err, "duplicate parameter 'p'")
}

func TestInvocation(t *testing.T) {
	inv := &Invocation{
		NodeID: "avg",
		Inputs: map[string][]any{"values": {1.0, 2.0}},
		Params: map[string]string{"cost": "10"},
	}
	v, err := inv.Input("values")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.Len(t, inv.Values("values"), 2)
	assert.Equal(t, "10", inv.Param("cost"))

	_, err = inv.Input("missing")
	assert.ErrorContains(t, err, "input 'missing' has no value")
}

func TestValidate_LogsThroughContextLogger(t *testing.T) {
	// --- Arrange ---
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)
	r := New()

	// --- Act ---
	r.Register(trainKind())
	assert.Empty(t, buf.String())
	require.NoError(t, r.Validate(ctx))

	// --- Assert ---
	assert.Contains(t, buf.String(), "kind=train_linear")
	assert.Contains(t, buf.String(), "Registry validation successful.")
}
