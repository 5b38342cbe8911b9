package scheduler

import (
	"context"
	"sort"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/graph"
	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/port"
)

type state int

const (
	statePending state = iota
	stateReady
	stateTaken
	stateCompleted
	stateFailed
	stateSkipped
)

func (s state) String() string {
	return [...]string{"pending", "ready", "taken", "completed", "failed", "skipped"}[s]
}

func (s state) terminal() bool {
	return s >= stateCompleted
}

// fanIn tracks the producers of one input port.
type fanIn struct {
	partial   bool
	total     int
	done      int
	succeeded int
}

type entry struct {
	node   *node.Node
	indeg  int
	state  state
	inputs map[string]*fanIn
	out    []port.Wire
}

// Frontier is the live ready set of a graph under execution. It is not safe
// for concurrent use; the executor drives it from a single goroutine.
type Frontier struct {
	entries map[string]*entry
	order   []string
	open    int
}

// NewFrontier validates the graph and seeds the frontier with every node
// that has no inputs to wait for.
func NewFrontier(ctx context.Context, g graph.Graph) (*Frontier, error) {
	if err := Validate(ctx, g); err != nil {
		return nil, err
	}

	nodes := g.AllNodes(ctx)
	f := &Frontier{entries: make(map[string]*entry, len(nodes)), open: len(nodes)}
	for _, n := range nodes {
		e := &entry{node: n, inputs: make(map[string]*fanIn, len(n.Inputs))}
		for name, p := range n.Inputs {
			e.inputs[name] = &fanIn{partial: p.Spec.Partial}
		}
		f.entries[n.ID] = e
		f.order = append(f.order, n.ID)
	}
	for _, w := range g.Wires(ctx) {
		dst := f.entries[w.To.Task]
		dst.indeg++
		dst.inputs[w.To.Port].total++
		src := f.entries[w.From.Task]
		src.out = append(src.out, w)
	}
	var ready []string
	for _, id := range f.order {
		if e := f.entries[id]; e.indeg == 0 {
			e.state = stateReady
			ready = append(ready, id)
		}
	}
	ctxlog.FromContext(ctx).Debug("Frontier initialized.", "nodes", len(nodes), "ready", len(ready))
	return f, nil
}

// Ready returns the nodes currently ready and not yet taken, in insertion
// order. Calling it repeatedly without Take returns the same set.
func (f *Frontier) Ready() []string {
	var ready []string
	for _, id := range f.order {
		if f.entries[id].state == stateReady {
			ready = append(ready, id)
		}
	}
	return ready
}

// Take removes a ready node from the frontier once it has been submitted.
func (f *Frontier) Take(id string) error {
	e, err := f.expect(id, "take", stateReady)
	if err != nil {
		return err
	}
	e.state = stateTaken
	return nil
}

// Complete records a successful node and returns the dependents that became
// ready as a result.
func (f *Frontier) Complete(id string) ([]string, error) {
	e, err := f.expect(id, "complete", stateTaken)
	if err != nil {
		return nil, err
	}
	e.state = stateCompleted
	f.open--

	var ready []string
	for _, w := range e.out {
		dst := f.entries[w.To.Task]
		if dst.state.terminal() {
			continue
		}
		fi := dst.inputs[w.To.Port]
		fi.done++
		fi.succeeded++
		dst.indeg--
		if dst.indeg == 0 && dst.state == statePending {
			dst.state = stateReady
			ready = append(ready, dst.node.ID)
		}
	}
	return f.sorted(ready), nil
}

// Fail records a failed node. Dependents reachable only through strict
// inputs are skipped transitively. Dependents on partial fan-ins become
// ready if every other producer is settled and at least one succeeded.
func (f *Frontier) Fail(id string) (ready, skipped []string, err error) {
	e, err := f.expect(id, "fail", stateTaken)
	if err != nil {
		return nil, nil, err
	}
	e.state = stateFailed
	f.open--
	ready, skipped = f.propagate(e)
	return f.sorted(ready), f.sorted(skipped), nil
}

// SkipRemaining skips every node that was never taken and returns them.
// The executor calls it on cancellation.
func (f *Frontier) SkipRemaining() []string {
	var skipped []string
	for _, id := range f.order {
		e := f.entries[id]
		if e.state == statePending || e.state == stateReady {
			e.state = stateSkipped
			f.open--
			skipped = append(skipped, id)
		}
	}
	return skipped
}

// Done reports whether every node reached a terminal state.
func (f *Frontier) Done() bool {
	return f.open == 0
}

// InFlight returns the taken nodes that have not been settled yet.
func (f *Frontier) InFlight() []string {
	var ids []string
	for _, id := range f.order {
		if f.entries[id].state == stateTaken {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *Frontier) propagate(failed *entry) (ready, skipped []string) {
	queue := []*entry{failed}
	for len(queue) > 0 {
		src := queue[0]
		queue = queue[1:]
		for _, w := range src.out {
			dst := f.entries[w.To.Task]
			if dst.state.terminal() {
				continue
			}
			fi := dst.inputs[w.To.Port]
			if !fi.partial {
				f.skip(dst)
				skipped = append(skipped, dst.node.ID)
				queue = append(queue, dst)
				continue
			}
			fi.done++
			dst.indeg--
			if fi.done == fi.total && fi.succeeded == 0 {
				f.skip(dst)
				skipped = append(skipped, dst.node.ID)
				queue = append(queue, dst)
				continue
			}
			if dst.indeg == 0 && dst.state == statePending {
				dst.state = stateReady
				ready = append(ready, dst.node.ID)
			}
		}
	}
	return ready, skipped
}

func (f *Frontier) skip(e *entry) {
	e.state = stateSkipped
	f.open--
}

func (f *Frontier) expect(id, action string, want state) (*entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, &StateError{ID: id, Action: action, State: "unknown"}
	}
	if e.state != want {
		return nil, &StateError{ID: id, Action: action, State: e.state.String()}
	}
	return e, nil
}

func (f *Frontier) sorted(ids []string) []string {
	sort.SliceStable(ids, func(i, j int) bool {
		return f.entries[ids[i]].node.Seq < f.entries[ids[j]].node.Seq
	})
	return ids
}
