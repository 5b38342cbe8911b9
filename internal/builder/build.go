package builder

import (
	"context"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/graph"
)

// Sink declares a node as a workflow result. Declaring it twice is a no-op.
func (b *Builder) Sink(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return ErrSealed
	}
	n, ok := b.topology.GetNode(ctx, id)
	if !ok {
		return &UnknownNodeError{ID: id}
	}
	if !n.Sink {
		n.Sink = true
		b.sinks = append(b.sinks, id)
	}
	return nil
}

// Sinks returns the declared sink ids in declaration order.
func (b *Builder) Sinks() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.sinks...)
}

// Build seals the builder and returns the graph. The graph is the closure of
// nodes upstream of the declared sinks; any node outside it is rejected.
func (b *Builder) Build(ctx context.Context) (graph.Graph, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph validation.")

	if b.sealed {
		return nil, ErrSealed
	}
	if len(b.sinks) == 0 {
		return nil, ErrNoSinks
	}

	nodes := b.topology.AllNodes(ctx)
	var unconsumed []string
	for _, n := range nodes {
		if n.Sink {
			continue
		}
		dependents, err := b.topology.DependentsOf(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		if len(dependents) == 0 {
			unconsumed = append(unconsumed, n.ID)
		}
	}
	if len(unconsumed) > 0 {
		return nil, &UnconsumedNodeError{IDs: unconsumed}
	}

	closure := make(map[string]struct{}, len(nodes))
	queue := append([]string(nil), b.sinks...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := closure[id]; seen {
			continue
		}
		closure[id] = struct{}{}
		deps, err := b.topology.DependenciesOf(ctx, id)
		if err != nil {
			return nil, err
		}
		queue = append(queue, deps...)
	}
	var unreachable []string
	for _, n := range nodes {
		if _, ok := closure[n.ID]; !ok {
			unreachable = append(unreachable, n.ID)
		}
	}
	if len(unreachable) > 0 {
		return nil, &UnconsumedNodeError{IDs: unreachable, Unreachable: true}
	}

	b.sealed = true
	logger.Info("Build: Graph construction successful.", "nodes", len(nodes), "wires", len(b.topology.Wires(ctx)), "sinks", len(b.sinks))
	return graph.New(b.topology, b.nodeState), nil
}
