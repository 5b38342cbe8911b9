// Package task turns a ready node into the unit of work a backend executes:
// the node, its inputs resolved from upstream outputs, and the body to run.
package task

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sweepgridgo/internal/graph"
	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
)

// Task represents a node that is fully prepared for execution.
type Task struct {
	// Node is the original node definition from the graph.
	Node *node.Node

	// ResolvedInputs holds, per input port, the values published by its
	// producers in supply order.
	ResolvedInputs map[string][]any

	// Body is the kind's opaque work function.
	Body registry.Body

	// Workdir is where the body places artifacts.
	Workdir string
}

// ID returns the node id.
func (t *Task) ID() string {
	return t.Node.ID
}

// Invocation renders the task as the argument passed to its body.
func (t *Task) Invocation() *registry.Invocation {
	return &registry.Invocation{
		NodeID:    t.Node.ID,
		Kind:      t.Node.Kind,
		Params:    t.Node.Params,
		Inputs:    t.ResolvedInputs,
		Resources: t.Node.Resources,
		Workdir:   t.Workdir,
	}
}

// Run executes the body. A nil body is an execution failure.
func (t *Task) Run(ctx context.Context) (map[string]any, error) {
	if t.Body == nil {
		return nil, fmt.Errorf("task '%s': kind '%s' has no body", t.Node.ID, t.Node.Kind)
	}
	return t.Body(ctx, t.Invocation())
}

// Build resolves a node's inputs against the published outputs in g. Strict
// inputs require every producer to have completed; partial fan-ins take the
// values of the producers that completed. Unwired inputs take their default.
func Build(ctx context.Context, g graph.Graph, reg *registry.Registry, n *node.Node, workdir string) (*Task, error) {
	k, ok := reg.Lookup(n.Kind)
	if !ok {
		return nil, fmt.Errorf("task '%s': unknown kind '%s'", n.ID, n.Kind)
	}
	wires, err := g.IncomingWires(ctx, n.ID)
	if err != nil {
		return nil, err
	}

	inputs := make(map[string][]any, len(n.Inputs))
	for _, w := range wires {
		p := n.Inputs[w.To.Port]
		status, _ := g.NodeStatus(ctx, w.From.Task)
		if status != node.StatusCompleted {
			if p.Spec.Partial {
				continue
			}
			return nil, fmt.Errorf("task '%s': input '%s' producer '%s' is %s", n.ID, w.To.Port, w.From, status)
		}
		out := g.Output(ctx, w.From.Task)
		v, ok := out[w.From.Port]
		if !ok {
			return nil, fmt.Errorf("task '%s': producer '%s' did not publish '%s'", n.ID, w.From.Task, w.From.Port)
		}
		inputs[w.To.Port] = append(inputs[w.To.Port], v)
	}
	for name, p := range n.Inputs {
		if _, ok := inputs[name]; ok {
			continue
		}
		if p.Spec.Default != nil && !p.Wired() {
			inputs[name] = []any{p.Spec.Default}
			continue
		}
		if p.Spec.Variadic {
			inputs[name] = []any{}
		}
	}
	return &Task{Node: n, ResolvedInputs: inputs, Body: k.Body, Workdir: workdir}, nil
}
