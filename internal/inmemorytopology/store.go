package inmemorytopology

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/topologystore"
)

// Store implements topologystore.Store using slices for ordering, maps for
// lookup and an RWMutex for concurrent access.
type Store struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]*node.Node
	wires []port.Wire
	in    map[string][]int // Key: node ID, Value: indexes into wires
	out   map[string][]int
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		nodes: make(map[string]*node.Node),
		in:    make(map[string][]int),
		out:   make(map[string][]int),
	}
}

// AddNode adds a new node to the store.
func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.ID]; exists {
		return fmt.Errorf("node '%s' already exists in topology", n.ID)
	}
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
	return nil
}

// AddWire records a wiring directive between two existing nodes.
func (s *Store) AddWire(ctx context.Context, w port.Wire) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[w.From.Task]; !exists {
		return fmt.Errorf("wire source node '%s' not found in topology", w.From.Task)
	}
	if _, exists := s.nodes[w.To.Task]; !exists {
		return fmt.Errorf("wire target node '%s' not found in topology", w.To.Task)
	}

	idx := len(s.wires)
	s.wires = append(s.wires, w)
	s.in[w.To.Task] = append(s.in[w.To.Task], idx)
	s.out[w.From.Task] = append(s.out[w.From.Task], idx)
	return nil
}

// GetNode retrieves a single node by its id.
func (s *Store) GetNode(ctx context.Context, id string) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

// AllNodes returns all nodes in insertion order.
func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node.Node, 0, len(s.order))
	for _, id := range s.order {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

// Wires returns all wiring directives in insertion order.
func (s *Store) Wires(ctx context.Context) []port.Wire {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wires := make([]port.Wire, len(s.wires))
	copy(wires, s.wires)
	return wires
}

// IncomingWires returns the wires feeding a node, ordered by port then slot.
func (s *Store) IncomingWires(ctx context.Context, id string) ([]port.Wire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", id)
	}
	wires := s.collect(s.in[id])
	sort.SliceStable(wires, func(i, j int) bool {
		if wires[i].To.Port != wires[j].To.Port {
			return wires[i].To.Port < wires[j].To.Port
		}
		return wires[i].Slot < wires[j].Slot
	})
	return wires, nil
}

// OutgoingWires returns the wires leaving a node in insertion order.
func (s *Store) OutgoingWires(ctx context.Context, id string) ([]port.Wire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", id)
	}
	return s.collect(s.out[id]), nil
}

// DependenciesOf returns the distinct upstream node ids of a node.
func (s *Store) DependenciesOf(ctx context.Context, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", id)
	}
	return s.distinct(s.in[id], func(w port.Wire) string { return w.From.Task }), nil
}

// DependentsOf returns the distinct downstream node ids of a node.
func (s *Store) DependentsOf(ctx context.Context, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", id)
	}
	return s.distinct(s.out[id], func(w port.Wire) string { return w.To.Task }), nil
}

func (s *Store) collect(idx []int) []port.Wire {
	wires := make([]port.Wire, 0, len(idx))
	for _, i := range idx {
		wires = append(wires, s.wires[i])
	}
	return wires
}

func (s *Store) distinct(idx []int, key func(port.Wire) string) []string {
	seen := make(map[string]struct{}, len(idx))
	ids := make([]string, 0, len(idx))
	for _, i := range idx {
		k := key(s.wires[i])
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ids = append(ids, k)
	}
	return ids
}
