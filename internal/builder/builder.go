package builder

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/nodeid"
	"github.com/specialistvlad/sweepgridgo/internal/nodestore"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/specialistvlad/sweepgridgo/internal/topologystore"
)

// Option customizes a node at creation time.
type Option func(*node.Node)

// WithResources sets the per-node resource request. Zero fields fall back to
// the kind's default profile.
func WithResources(spec resource.Spec) Option {
	return func(n *node.Node) {
		n.Resources = spec
	}
}

// WithRunMode overrides only the run mode of the request.
func WithRunMode(mode resource.RunMode) Option {
	return func(n *node.Node) {
		n.Resources.RunMode = mode
	}
}

// Builder owns the topology while the graph is under construction.
type Builder struct {
	mu        sync.Mutex
	registry  *registry.Registry
	topology  topologystore.Store
	nodeState nodestore.Store
	sealed    bool
	seq       int
	sinks     []string
}

// New creates a builder writing into the given stores.
func New(reg *registry.Registry, ts topologystore.Store, ns nodestore.Store) *Builder {
	return &Builder{registry: reg, topology: ts, nodeState: ns}
}

// Has reports whether a node with the id was already created. Declarations
// use it to share upstream nodes across sweep combinations.
func (b *Builder) Has(ctx context.Context, id string) bool {
	_, ok := b.topology.GetNode(ctx, id)
	return ok
}

// Node returns a created node.
func (b *Builder) Node(ctx context.Context, id string) (*node.Node, bool) {
	return b.topology.GetNode(ctx, id)
}

// CreateTask instantiates a registered kind under a unique id.
func (b *Builder) CreateTask(ctx context.Context, kind, id string, params map[string]string, opts ...Option) (*node.Node, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	logger := ctxlog.FromContext(ctx).With("task", id, "kind", kind)

	if b.sealed {
		return nil, ErrSealed
	}
	if err := nodeid.Validate(id); err != nil {
		return nil, fmt.Errorf("cannot create task: %w", err)
	}
	if _, exists := b.topology.GetNode(ctx, id); exists {
		return nil, &DuplicateIDError{ID: id}
	}
	k, ok := b.registry.Lookup(kind)
	if !ok {
		return nil, &UnknownKindError{Kind: kind}
	}

	resolved := make(map[string]string, len(params)+len(k.Params))
	maps.Copy(resolved, params)
	for _, p := range k.Params {
		if _, supplied := resolved[p.Name]; supplied {
			continue
		}
		if p.Required {
			return nil, &MissingParameterError{Task: id, Kind: kind, Param: p.Name}
		}
		if p.Default != "" {
			resolved[p.Name] = p.Default
		}
	}
	for name := range params {
		if _, known := k.Param(name); !known {
			logger.Debug("Parameter is not declared by the kind schema; passing it through.", "param", name)
		}
	}

	n := node.New(id, kind, b.seq, resolved, k.Ports)
	for _, opt := range opts {
		opt(n)
	}
	n.Resources = n.Resources.Merge(k.Resources)

	if err := b.topology.AddNode(ctx, n); err != nil {
		return nil, err
	}
	if err := b.nodeState.SetStatus(ctx, id, node.StatusPending); err != nil {
		return nil, err
	}
	b.seq++
	logger.Debug("Created task node.", "seq", n.Seq, "inputs", len(n.Inputs), "outputs", len(n.Outputs))
	return n, nil
}

// DeclarePort resolves a port on an existing node, checking it against the
// kind's schema.
func (b *Builder) DeclarePort(ctx context.Context, id, name string, dir port.Direction) (*node.Port, error) {
	n, ok := b.topology.GetNode(ctx, id)
	if !ok {
		return nil, &UnknownNodeError{ID: id}
	}
	p, ok := n.Port(name, dir)
	if !ok {
		return nil, &UnknownPortError{Task: id, Kind: n.Kind, Port: name, Direction: dir}
	}
	return p, nil
}
