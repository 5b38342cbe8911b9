package graph

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/nodestore"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/topologystore"
)

// Manager implements Graph by composing a topology store and a node store.
type Manager struct {
	topology  topologystore.Store
	nodeState nodestore.Store
}

// New creates a new graph manager over the given stores.
func New(ts topologystore.Store, ns nodestore.Store) Graph {
	return &Manager{topology: ts, nodeState: ns}
}

func (m *Manager) Node(ctx context.Context, id string) (*node.Node, bool) {
	return m.topology.GetNode(ctx, id)
}

func (m *Manager) AllNodes(ctx context.Context) []*node.Node {
	return m.topology.AllNodes(ctx)
}

func (m *Manager) Sinks(ctx context.Context) []*node.Node {
	var sinks []*node.Node
	for _, n := range m.topology.AllNodes(ctx) {
		if n.Sink {
			sinks = append(sinks, n)
		}
	}
	return sinks
}

func (m *Manager) Wires(ctx context.Context) []port.Wire {
	return m.topology.Wires(ctx)
}

func (m *Manager) IncomingWires(ctx context.Context, id string) ([]port.Wire, error) {
	return m.topology.IncomingWires(ctx, id)
}

func (m *Manager) DependenciesOf(ctx context.Context, id string) ([]*node.Node, error) {
	ids, err := m.topology.DependenciesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, ids)
}

func (m *Manager) DependentsOf(ctx context.Context, id string) ([]*node.Node, error) {
	ids, err := m.topology.DependentsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, ids)
}

func (m *Manager) resolve(ctx context.Context, ids []string) ([]*node.Node, error) {
	nodes := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := m.topology.GetNode(ctx, id)
		if !ok {
			return nil, fmt.Errorf("internal inconsistency: node '%s' is wired but not in topology", id)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (m *Manager) NodeStatus(ctx context.Context, id string) (node.Status, bool) {
	if _, ok := m.topology.GetNode(ctx, id); !ok {
		return node.StatusPending, false
	}
	status, err := m.nodeState.GetStatus(ctx, id)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to read node status.", "id", id, "error", err)
		return node.StatusPending, false
	}
	return status, true
}

func (m *Manager) Output(ctx context.Context, id string) map[string]any {
	out, err := m.nodeState.GetOutput(ctx, id)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to read node output.", "id", id, "error", err)
		return nil
	}
	return out
}

func (m *Manager) Error(ctx context.Context, id string) error {
	nodeErr, err := m.nodeState.GetError(ctx, id)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to read node error.", "id", id, "error", err)
		return nil
	}
	return nodeErr
}

func (m *Manager) MarkReady(ctx context.Context, id string) error {
	ctxlog.FromContext(ctx).Debug("Node ready.", "id", id)
	return m.nodeState.SetStatus(ctx, id, node.StatusReady)
}

func (m *Manager) MarkRunning(ctx context.Context, id string) error {
	ctxlog.FromContext(ctx).Debug("Node running.", "id", id)
	return m.nodeState.SetStatus(ctx, id, node.StatusRunning)
}

func (m *Manager) MarkCompleted(ctx context.Context, id string, outputs map[string]any) error {
	ctxlog.FromContext(ctx).Debug("Node completed.", "id", id)
	return m.nodeState.SetOutput(ctx, id, outputs)
}

func (m *Manager) MarkFailed(ctx context.Context, id string, nodeErr error) error {
	ctxlog.FromContext(ctx).Debug("Node failed.", "id", id, "error", nodeErr)
	if nodeErr == nil {
		nodeErr = fmt.Errorf("node '%s' failed without an error", id)
	}
	return m.nodeState.SetError(ctx, id, nodeErr)
}

func (m *Manager) MarkSkipped(ctx context.Context, id string, cause error) error {
	ctxlog.FromContext(ctx).Debug("Node skipped.", "id", id, "cause", cause)
	if err := m.nodeState.SetStatus(ctx, id, node.StatusSkipped); err != nil {
		return err
	}
	if cause == nil {
		return nil
	}
	return m.nodeState.SetError(ctx, id, cause)
}
