// Package node defines the task node: one parametrized instance of a task
// kind, its ports and its resource request. A node owns no data; it only
// describes a unit of work and where its inputs come from.
package node

import (
	"sort"

	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
)

// Port is a materialized port on a node. Producers is only populated for
// input ports and holds the wired upstream refs in supply order.
type Port struct {
	Owner string
	Spec  port.Spec
	// Producers lists upstream output ports feeding this input, in supply order.
	Producers []port.Ref
	// Consumers lists downstream input ports fed by this output.
	Consumers []port.Ref
}

// Ref returns the port's own reference.
func (p *Port) Ref() port.Ref {
	return port.Ref{Task: p.Owner, Port: p.Spec.Name}
}

// Wired reports whether an input port has a producer.
func (p *Port) Wired() bool {
	return len(p.Producers) > 0
}

// Node is a single vertex in the execution graph.
type Node struct {
	// ID is unique within a graph.
	ID string
	// Kind names the registered task kind this node instantiates.
	Kind string
	// Params holds the resolved parameter values.
	Params map[string]string
	// Resources is consumed by execution backends only.
	Resources resource.Spec
	// Sink marks nodes declared as workflow results.
	Sink bool
	// Seq is the insertion order at build time, used as scheduling tie-break.
	Seq int

	Inputs  map[string]*Port
	Outputs map[string]*Port
}

// New creates a node with ports materialized from the given schema.
func New(id, kind string, seq int, params map[string]string, ports []port.Spec) *Node {
	n := &Node{
		ID:      id,
		Kind:    kind,
		Params:  params,
		Seq:     seq,
		Inputs:  make(map[string]*Port),
		Outputs: make(map[string]*Port),
	}
	for _, spec := range ports {
		p := &Port{Owner: id, Spec: spec}
		if spec.Direction == port.In {
			n.Inputs[spec.Name] = p
		} else {
			n.Outputs[spec.Name] = p
		}
	}
	return n
}

// Port looks up a port by name and direction.
func (n *Node) Port(name string, dir port.Direction) (*Port, bool) {
	var p *Port
	var ok bool
	if dir == port.In {
		p, ok = n.Inputs[name]
	} else {
		p, ok = n.Outputs[name]
	}
	return p, ok
}

// InputNames returns the input port names sorted for deterministic iteration.
func (n *Node) InputNames() []string {
	return sortedKeys(n.Inputs)
}

// OutputNames returns the output port names sorted for deterministic iteration.
func (n *Node) OutputNames() []string {
	return sortedKeys(n.Outputs)
}

// Param returns a parameter value, or "" if unset.
func (n *Node) Param(name string) string {
	return n.Params[name]
}

func sortedKeys(m map[string]*Port) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
