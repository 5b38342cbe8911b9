package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/nodestore"
)

// entry is the state of one node, guarded by its own mutex.
type entry struct {
	mu      sync.Mutex
	status  node.Status
	outputs map[string]any
	err     error
}

// Store is an in-memory implementation of nodestore.Store. The sync.Map only
// hands out per-node entries; all state changes happen under the entry lock.
type Store struct {
	entries sync.Map // Key: node ID, Value: *entry
}

// New creates a new, empty in-memory node state store.
func New() nodestore.Store {
	return &Store{}
}

func (s *Store) entry(id string) *entry {
	if e, ok := s.entries.Load(id); ok {
		return e.(*entry)
	}
	e, _ := s.entries.LoadOrStore(id, &entry{status: node.StatusPending})
	return e.(*entry)
}

func (s *Store) lookup(id string) (*entry, bool) {
	e, ok := s.entries.Load(id)
	if !ok {
		return nil, false
	}
	return e.(*entry), true
}

// SetStatus updates the execution status of a node.
func (s *Store) SetStatus(ctx context.Context, id string, status node.Status) error {
	if status == node.StatusCompleted || status == node.StatusFailed {
		return &nodestore.TransitionError{ID: id, From: node.StatusRunning, To: status}
	}
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status.Terminal() {
		return nodestore.ErrTerminal
	}
	if status < e.status && status != node.StatusSkipped {
		return &nodestore.TransitionError{ID: id, From: e.status, To: status}
	}
	if status == node.StatusSkipped && e.status == node.StatusRunning {
		return &nodestore.TransitionError{ID: id, From: e.status, To: status}
	}
	e.status = status
	return nil
}

// GetStatus retrieves the status of a node, defaulting to StatusPending.
func (s *Store) GetStatus(ctx context.Context, id string) (node.Status, error) {
	e, ok := s.lookup(id)
	if !ok {
		return node.StatusPending, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status, nil
}

// SetOutput publishes outputs and marks the node Completed.
func (s *Store) SetOutput(ctx context.Context, id string, outputs map[string]any) error {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status.Terminal() {
		return nodestore.ErrTerminal
	}
	published := make(map[string]any, len(outputs))
	for k, v := range outputs {
		published[k] = v
	}
	e.outputs = published
	e.status = node.StatusCompleted
	return nil
}

// GetOutput retrieves the published outputs of a completed node.
func (s *Store) GetOutput(ctx context.Context, id string) (map[string]any, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outputs, nil
}

// SetError records the error of a node and marks it Failed. A Skipped node
// keeps its status and gets the error recorded as its cause.
func (s *Store) SetError(ctx context.Context, id string, nodeErr error) error {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return nodestore.ErrTerminal
	}
	switch e.status {
	case node.StatusSkipped:
		e.err = nodeErr
		return nil
	case node.StatusCompleted, node.StatusFailed:
		return nodestore.ErrTerminal
	}
	e.err = nodeErr
	e.status = node.StatusFailed
	return nil
}

// GetError retrieves the recorded error of a node.
func (s *Store) GetError(ctx context.Context, id string) (error, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err, nil
}
