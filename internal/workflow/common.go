package workflow

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sweepgridgo/internal/builder"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
)

// Placement is the resource context every node of a workflow shares.
type Placement struct {
	RunMode resource.RunMode
	Project string
	// Overrides replace parts of a kind's default profile, keyed by kind.
	Overrides map[string]resource.Spec
}

// spec builds the request of one node: the per-kind override, then the
// node-specific fields, then the kind's default profile (applied by the
// builder).
func (p Placement) spec(kind, jobName string, extra resource.Spec) resource.Spec {
	s := p.Overrides[kind].Merge(extra)
	if s.RunMode == "" {
		s.RunMode = p.RunMode
	}
	if s.Project == "" {
		s.Project = p.Project
	}
	if s.JobName == "" {
		s.JobName = jobName
	}
	return s
}

// decl wraps a builder with the error bookkeeping of a declaration: the
// first error sticks and every later call becomes a no-op.
type decl struct {
	ctx context.Context
	b   *builder.Builder
	err error
}

func (d *decl) task(kind, id string, params map[string]string, spec resource.Spec) string {
	if d.err != nil {
		return id
	}
	if _, err := d.b.CreateTask(d.ctx, kind, id, with(params), builder.WithResources(spec)); err != nil {
		d.err = fmt.Errorf("declaring '%s': %w", id, err)
	}
	return id
}

// shared declares a node that several sweep combinations reach. Only the
// first declaration creates it.
func (d *decl) shared(kind, id string, params map[string]string, spec resource.Spec) string {
	if d.err != nil || d.b.Has(d.ctx, id) {
		return id
	}
	return d.task(kind, id, params, spec)
}

func (d *decl) wire(fromTask, fromPort, toTask, toPort string) {
	if d.err != nil {
		return
	}
	if err := d.b.Wire(d.ctx, port.R(fromTask, fromPort), port.R(toTask, toPort)); err != nil {
		d.err = fmt.Errorf("wiring %s.%s -> %s.%s: %w", fromTask, fromPort, toTask, toPort, err)
	}
}

// wireOnce wires unless toTask.toPort already has a producer. Shared nodes
// are reached from several sweep combinations.
func (d *decl) wireOnce(fromTask, fromPort, toTask, toPort string) {
	if d.err != nil {
		return
	}
	n, ok := d.b.Node(d.ctx, toTask)
	if ok {
		if p, ok := n.Inputs[toPort]; ok && p.Wired() {
			return
		}
	}
	d.wire(fromTask, fromPort, toTask, toPort)
}

func (d *decl) fanIn(from []port.Ref, toTask, toPort string) {
	if d.err != nil {
		return
	}
	if err := d.b.ConnectMany(d.ctx, from, toTask, toPort); err != nil {
		d.err = fmt.Errorf("connecting %d producers to %s.%s: %w", len(from), toTask, toPort, err)
	}
}

func (d *decl) sink(id string) {
	if d.err != nil {
		return
	}
	if err := d.b.Sink(d.ctx, id); err != nil {
		d.err = fmt.Errorf("declaring sink '%s': %w", id, err)
	}
}

// with merges parameter maps; later maps win. Empty values are dropped so
// kind defaults apply.
func with(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			if v == "" {
				continue
			}
			out[k] = v
		}
	}
	return out
}
