// Package nodestore defines the interface for storing and retrieving the
// mutable execution state of nodes: status, published outputs and errors.
//
// # State Transitions
//
// Nodes follow this lifecycle:
//
//	Pending → Ready → Running → Completed (with outputs) OR Failed (with error)
//	Pending → Skipped (with cause)
//	Ready   → Skipped (with cause)
//
// Once a node reaches a terminal status its state is frozen. Outputs and
// errors are written at most once per node.
package nodestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/sweepgridgo/internal/node"
)

// ErrTerminal is returned when a write targets a node whose state is frozen.
var ErrTerminal = errors.New("node already reached a terminal status")

// TransitionError reports an illegal status change.
type TransitionError struct {
	ID       string
	From, To node.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("node '%s': illegal status transition %s -> %s", e.ID, e.From, e.To)
}

// Store manages the mutable execution state of nodes.
//
// Implementations MUST be safe for concurrent use. Writes for one node are
// serialized; writes for different nodes must not contend.
type Store interface {
	// SetStatus moves a node to a non-terminal status, or to Skipped.
	// Completed and Failed are reached through SetOutput and SetError.
	SetStatus(ctx context.Context, id string, status node.Status) error

	// GetStatus returns StatusPending for nodes never written.
	GetStatus(ctx context.Context, id string) (node.Status, error)

	// SetOutput publishes a node's output values keyed by port name and marks
	// it Completed in the same critical section.
	SetOutput(ctx context.Context, id string, outputs map[string]any) error

	// GetOutput returns the published outputs, or nil if none were published.
	GetOutput(ctx context.Context, id string) (map[string]any, error)

	// SetError records why a node failed and marks it Failed, or records the
	// cause of a skip when the node is already Skipped.
	SetError(ctx context.Context, id string, nodeErr error) error

	// GetError returns the recorded error, or nil.
	GetError(ctx context.Context, id string) (error, error)
}
