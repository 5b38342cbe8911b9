package graph

import (
	"context"

	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/port"
)

// Graph is the read API over a sealed execution graph plus the write API
// for node state.
//
// Implementations MUST be thread-safe: backends complete nodes concurrently
// while the resolver and report read the graph.
type Graph interface {
	// Node retrieves a node by id.
	Node(ctx context.Context, id string) (*node.Node, bool)

	// AllNodes returns every node in insertion order.
	AllNodes(ctx context.Context) []*node.Node

	// Sinks returns the declared sink nodes in insertion order.
	Sinks(ctx context.Context) []*node.Node

	// Wires returns every wiring directive in insertion order.
	Wires(ctx context.Context) []port.Wire

	// IncomingWires returns the wires feeding a node, ordered by port and slot.
	IncomingWires(ctx context.Context, id string) ([]port.Wire, error)

	// DependenciesOf returns the distinct upstream nodes of a node.
	DependenciesOf(ctx context.Context, id string) ([]*node.Node, error)

	// DependentsOf returns the distinct downstream nodes of a node.
	DependentsOf(ctx context.Context, id string) ([]*node.Node, error)

	// NodeStatus returns the status of a node and whether the node exists.
	NodeStatus(ctx context.Context, id string) (node.Status, bool)

	// Output returns the published outputs of a completed node.
	Output(ctx context.Context, id string) map[string]any

	// Error returns the failure or skip cause recorded for a node.
	Error(ctx context.Context, id string) error

	// MarkReady transitions a node to Ready once all its inputs resolved.
	MarkReady(ctx context.Context, id string) error

	// MarkRunning transitions a node to Running when it is submitted.
	MarkRunning(ctx context.Context, id string) error

	// MarkCompleted publishes outputs and transitions a node to Completed.
	MarkCompleted(ctx context.Context, id string, outputs map[string]any) error

	// MarkFailed records an error and transitions a node to Failed.
	MarkFailed(ctx context.Context, id string, nodeErr error) error

	// MarkSkipped transitions a node that never ran to Skipped, recording
	// the cause.
	MarkSkipped(ctx context.Context, id string, cause error) error
}
