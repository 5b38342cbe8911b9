// Package topologystore defines the interface for storing and retrieving the
// static structure of the execution graph: task nodes and the wiring
// directives between their ports.
//
// # Lifecycle
//
// The topology store is:
//  1. Created once per run.
//  2. Populated by the graph builder (nodes, then wires).
//  3. Read-only once the builder is sealed. The resolver walks wires to compute
//     in-degrees and the executor looks up nodes to build tasks.
//  4. Discarded when the run ends.
//
// Mutable execution state (status, outputs, errors) lives in nodestore.
package topologystore

import (
	"context"

	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/port"
)

// Store manages the nodes and wiring directives of one graph.
//
// Implementations MUST be safe for concurrent use. AllNodes returns nodes in
// insertion order, which the resolver relies on as its tie-break.
type Store interface {
	// AddNode registers a node. Adding a second node with the same id is an
	// error; the builder reports it as a DuplicateIDError.
	AddNode(ctx context.Context, n *node.Node) error

	// AddWire records a wiring directive. Both endpoint nodes must exist.
	AddWire(ctx context.Context, w port.Wire) error

	// GetNode retrieves a node by id.
	GetNode(ctx context.Context, id string) (*node.Node, bool)

	// AllNodes returns a snapshot of every node in insertion order.
	AllNodes(ctx context.Context) []*node.Node

	// Wires returns a snapshot of every wiring directive in insertion order.
	Wires(ctx context.Context) []port.Wire

	// IncomingWires returns the wires feeding the node's input ports, ordered
	// by target port name and then by fan-in slot.
	IncomingWires(ctx context.Context, id string) ([]port.Wire, error)

	// OutgoingWires returns the wires leaving the node's output ports in
	// insertion order.
	OutgoingWires(ctx context.Context, id string) ([]port.Wire, error)

	// DependenciesOf returns the distinct upstream node ids of a node, in the
	// order their wires were added.
	DependenciesOf(ctx context.Context, id string) ([]string, error)

	// DependentsOf returns the distinct downstream node ids of a node, in the
	// order their wires were added.
	DependentsOf(ctx context.Context, id string) ([]string, error)
}
